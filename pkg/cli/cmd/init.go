package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/configmanager"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/notify"
)

// NewInitCmd creates the init command for scaffolding a sandbox config file.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "init",
		Short:        "Scaffold a mksandbox.yaml in the current directory",
		Long:         "Write a fully defaulted sandbox configuration to mksandbox.yaml.",
		RunE:         handleInitRunE,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing mksandbox.yaml")

	return cmd
}

func handleInitRunE(cmd *cobra.Command, _ []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to read force flag: %w", err)
	}

	err = configmanager.Scaffold(configmanager.ConfigFileName, force)
	if err != nil {
		return fmt.Errorf("failed to scaffold config: %w", err)
	}

	notify.Successf(cmd.OutOrStdout(), "'%s' created", configmanager.ConfigFileName)

	return nil
}

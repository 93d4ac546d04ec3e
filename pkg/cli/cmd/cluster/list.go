package cluster

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewListCmd creates the cluster list command.
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List clusters known to the configured distribution",
		RunE:         handleListRunE,
		SilenceUsage: true,
	}
}

func handleListRunE(cmd *cobra.Command, _ []string) error {
	provisioner, _, err := newProvisioner(cmd)
	if err != nil {
		return err
	}

	names, err := provisioner.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list clusters: %w", err)
	}

	for _, name := range names {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
	}

	return nil
}

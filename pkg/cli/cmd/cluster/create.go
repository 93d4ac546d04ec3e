package cluster

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/notify"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/timer"
)

// NewCreateCmd creates the cluster create command.
func NewCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "create NAME",
		Short:        "Create a single sandbox cluster",
		Long:         "Create one cluster with the configured distribution, for example to add a worker.",
		Args:         cobra.ExactArgs(1),
		RunE:         handleCreateRunE,
		SilenceUsage: true,
	}
}

func handleCreateRunE(cmd *cobra.Command, args []string) error {
	tmr := timer.New()
	tmr.Start()

	out := cmd.OutOrStdout()
	name := args[0]

	provisioner, _, err := newProvisioner(cmd)
	if err != nil {
		return err
	}

	notify.Activityf(out, "creating cluster '%s'", name)

	err = provisioner.Create(cmd.Context(), name)
	if err != nil {
		return fmt.Errorf("failed to create cluster %s: %w", name, err)
	}

	notify.SuccessWithTimerf(out, tmr, "cluster '%s' created", name)

	return nil
}

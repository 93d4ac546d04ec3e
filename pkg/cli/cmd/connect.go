package cmd

import (
	"github.com/spf13/cobra"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/notify"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/timer"
)

// NewConnectCmd creates the connect command that (re)wires MultiKueue.
func NewConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Wire MultiKueue between the manager and worker clusters",
		Long: "Generate worker access kubeconfigs, create the MultiKueue resources " +
			"on the manager, mirror the queues on every worker, and wait for the " +
			"admission check to become active. Safe to re-run.",
		RunE:         handleConnectRunE,
		SilenceUsage: true,
	}
}

func handleConnectRunE(cmd *cobra.Command, _ []string) error {
	tmr := timer.New()
	tmr.Start()

	notify.Titlef(cmd.OutOrStdout(), "🔗", "Connect MultiKueue...")

	env, err := loadSandbox(cmd, tmr)
	if err != nil {
		return err
	}

	tmr.NewStage()

	return runConnect(cmd, env, tmr)
}

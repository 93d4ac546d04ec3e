package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/client/docker"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/notify"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/timer"
)

// NewUpCmd creates the up command that stands up the whole sandbox.
func NewUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Create the sandbox clusters, install Kueue, and wire MultiKueue",
		Long: "Create the manager and worker clusters in Docker, install Kueue on " +
			"each of them, and connect MultiKueue so jobs submitted on the manager " +
			"dispatch to workers.",
		RunE:         handleUpRunE,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("skip-connect", false, "Stop after installing Kueue, without wiring MultiKueue")

	return cmd
}

func handleUpRunE(cmd *cobra.Command, _ []string) error {
	tmr := timer.New()
	tmr.Start()

	out := cmd.OutOrStdout()
	notify.Titlef(out, "🚀", "Create sandbox...")

	env, err := loadSandbox(cmd, tmr)
	if err != nil {
		return err
	}

	dockerClient, err := docker.GetDockerClient()
	if err != nil {
		return err
	}

	err = docker.CheckReady(cmd.Context(), dockerClient)
	if err != nil {
		return err
	}

	err = createClusters(cmd, env, tmr)
	if err != nil {
		return err
	}

	err = installKueueEverywhere(cmd, env, tmr)
	if err != nil {
		return err
	}

	skipConnect, err := cmd.Flags().GetBool("skip-connect")
	if err != nil {
		return fmt.Errorf("failed to read skip-connect flag: %w", err)
	}

	if skipConnect {
		notify.SuccessWithTimerf(out, tmr, "sandbox ready (multikueue not wired)")

		return nil
	}

	return runConnect(cmd, env, tmr)
}

func createClusters(cmd *cobra.Command, env *sandboxEnv, tmr timer.Timer) error {
	out := cmd.OutOrStdout()

	provisioner, err := clusterFactory().Create(env.sandbox.Spec.Distribution, env.kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to create provisioner: %w", err)
	}

	for _, name := range env.sandbox.Spec.ClusterNames() {
		tmr.NewStage()

		exists, err := provisioner.Exists(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("failed to check cluster %s: %w", name, err)
		}

		if exists {
			notify.Warningf(out, "cluster '%s' already exists, skipping create", name)

			continue
		}

		notify.Activityf(out, "creating cluster '%s'", name)

		err = provisioner.Create(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("failed to create cluster %s: %w", name, err)
		}

		notify.SuccessWithTimerf(out, tmr, "cluster '%s' created", name)
	}

	return nil
}

func installKueueEverywhere(cmd *cobra.Command, env *sandboxEnv, tmr timer.Timer) error {
	out := cmd.OutOrStdout()

	for _, name := range env.sandbox.Spec.ClusterNames() {
		tmr.NewStage()
		notify.Activityf(out, "installing kueue on '%s'", name)

		err := env.installKueue(cmd, name)
		if err != nil {
			return err
		}

		notify.SuccessWithTimerf(out, tmr, "kueue ready on '%s'", name)
	}

	return nil
}

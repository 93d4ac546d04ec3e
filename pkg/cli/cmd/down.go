package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/notify"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/timer"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/fsutil"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/k8s"
	clusterprovisioner "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster/clustererrors"
)

// NewDownCmd creates the down command that tears the sandbox down.
func NewDownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Delete the sandbox clusters and generated credentials",
		Long: "Delete the manager and worker clusters, remove their kubeconfig " +
			"entries, and delete the generated worker kubeconfigs.",
		RunE:         handleDownRunE,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	return cmd
}

func handleDownRunE(cmd *cobra.Command, _ []string) error {
	tmr := timer.New()
	tmr.Start()

	out := cmd.OutOrStdout()
	notify.Titlef(out, "🔥", "Destroy sandbox...")

	env, err := loadSandbox(cmd, tmr)
	if err != nil {
		return err
	}

	confirmed, err := confirmTeardown(cmd, env)
	if err != nil {
		return err
	}

	if !confirmed {
		notify.Activityf(out, "teardown aborted")

		return nil
	}

	err = deleteClusters(cmd, env)
	if err != nil {
		return err
	}

	err = removeGeneratedKubeconfigs(cmd, env)
	if err != nil {
		return err
	}

	notify.SuccessWithTimerf(out, tmr, "sandbox destroyed")

	return nil
}

func confirmTeardown(cmd *cobra.Command, env *sandboxEnv) (bool, error) {
	skip, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return false, fmt.Errorf("failed to read yes flag: %w", err)
	}

	if skip {
		return true, nil
	}

	clusterNames := strings.Join(env.sandbox.Spec.ClusterNames(), ", ")
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Delete clusters %s? [y/N]: ", clusterNames)

	reader := bufio.NewReader(cmd.InOrStdin())

	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return false, nil
	}

	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes", nil
}

func deleteClusters(cmd *cobra.Command, env *sandboxEnv) error {
	out := cmd.OutOrStdout()

	provisioner, err := clusterFactory().Create(env.sandbox.Spec.Distribution, env.kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to create provisioner: %w", err)
	}

	for _, name := range env.sandbox.Spec.ClusterNames() {
		err = provisioner.Delete(cmd.Context(), name)

		switch {
		case errors.Is(err, clustererrors.ErrClusterNotFound):
			notify.Warningf(out, "cluster '%s' not found, skipping", name)

			continue
		case err != nil:
			return fmt.Errorf("failed to delete cluster %s: %w", name, err)
		}

		notify.Successf(out, "cluster '%s' deleted", name)

		err = cleanupKubeconfigEntries(env, name, out)
		if err != nil {
			return err
		}
	}

	return nil
}

func cleanupKubeconfigEntries(env *sandboxEnv, clusterName string, out io.Writer) error {
	entries, err := clusterprovisioner.KubeconfigEntriesFor(env.sandbox.Spec.Distribution, clusterName)
	if err != nil {
		return err
	}

	err = k8s.CleanupKubeconfig(env.kubeconfig, entries.Cluster, entries.Context, entries.AuthInfo, out)
	if err != nil {
		return fmt.Errorf("failed to clean kubeconfig for %s: %w", clusterName, err)
	}

	return nil
}

func removeGeneratedKubeconfigs(cmd *cobra.Command, env *sandboxEnv) error {
	dir, err := fsutil.ExpandHomePath(env.sandbox.Spec.Connection.KubeconfigDir)
	if err != nil {
		return fmt.Errorf("failed to expand kubeconfig dir: %w", err)
	}

	err = os.RemoveAll(dir)
	if err != nil {
		return fmt.Errorf("failed to remove generated kubeconfigs: %w", err)
	}

	notify.Activityf(cmd.OutOrStdout(), "removed generated kubeconfigs under '%s'", dir)

	return nil
}

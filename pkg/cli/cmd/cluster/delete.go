package cluster

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/notify"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/timer"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/fsutil"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/k8s"
	clusterprovisioner "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster/clustererrors"
)

// NewDeleteCmd creates the cluster delete command.
func NewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "delete NAME",
		Short:        "Delete a single sandbox cluster",
		Long:         "Delete one cluster and remove its kubeconfig entries.",
		Args:         cobra.ExactArgs(1),
		RunE:         handleDeleteRunE,
		SilenceUsage: true,
	}
}

func handleDeleteRunE(cmd *cobra.Command, args []string) error {
	tmr := timer.New()
	tmr.Start()

	out := cmd.OutOrStdout()
	name := args[0]

	provisioner, sandbox, err := newProvisioner(cmd)
	if err != nil {
		return err
	}

	err = provisioner.Delete(cmd.Context(), name)
	if errors.Is(err, clustererrors.ErrClusterNotFound) {
		notify.Warningf(out, "cluster '%s' not found", name)

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete cluster %s: %w", name, err)
	}

	entries, err := clusterprovisioner.KubeconfigEntriesFor(sandbox.Spec.Distribution, name)
	if err != nil {
		return err
	}

	kubeconfig, err := fsutil.ExpandHomePath(sandbox.Spec.Connection.Kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to expand kubeconfig path: %w", err)
	}

	err = k8s.CleanupKubeconfig(kubeconfig, entries.Cluster, entries.Context, entries.AuthInfo, out)
	if err != nil {
		return fmt.Errorf("failed to clean kubeconfig for %s: %w", name, err)
	}

	notify.SuccessWithTimerf(out, tmr, "cluster '%s' deleted", name)

	return nil
}

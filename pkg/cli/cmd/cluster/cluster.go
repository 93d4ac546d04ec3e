// Package cluster hosts the granular cluster lifecycle commands.
package cluster

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	v1alpha1 "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/configmanager"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/fsutil"
	clusterprovisioner "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster"
)

// factoryOverride lets tests substitute the provisioner factory.
//
//nolint:gochecknoglobals // Test injection point, guarded by mutex.
var (
	factoryMu       sync.RWMutex
	factoryOverride clusterprovisioner.Factory
)

func setFactoryOverride(factory clusterprovisioner.Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	factoryOverride = factory
}

func factory() clusterprovisioner.Factory {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	if factoryOverride != nil {
		return factoryOverride
	}

	return clusterprovisioner.DefaultFactory{}
}

// NewClusterCmd creates the cluster command group.
func NewClusterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Manage individual sandbox clusters",
		Long:  "Create, delete, and list sandbox clusters one at a time.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The err can safely be ignored, as it can never fail at runtime.
			_ = cmd.Help()

			return nil
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(NewCreateCmd())
	cmd.AddCommand(NewDeleteCmd())
	cmd.AddCommand(NewListCmd())

	return cmd
}

// newProvisioner loads the sandbox configuration and creates the provisioner
// for its distribution.
func newProvisioner(cmd *cobra.Command) (clusterprovisioner.Provisioner, *v1alpha1.Sandbox, error) {
	cfgManager := configmanager.NewConfigManager(cmd.OutOrStdout())

	sandbox, err := cfgManager.LoadConfigSilent()
	if err != nil {
		return nil, nil, err
	}

	kubeconfig, err := fsutil.ExpandHomePath(sandbox.Spec.Connection.Kubeconfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to expand kubeconfig path: %w", err)
	}

	provisioner, err := factory().Create(sandbox.Spec.Distribution, kubeconfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create provisioner: %w", err)
	}

	return provisioner, sandbox, nil
}

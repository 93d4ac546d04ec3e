// Package k3dprovisioner provisions sandbox clusters with k3d.
package k3dprovisioner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	clustercommand "github.com/k3d-io/k3d/v5/cmd/cluster"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/runner"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster/clustererrors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NetworkName is the shared Docker network all sandbox k3d clusters join.
// k3d isolates each cluster on its own network by default, which would keep
// the manager's Kueue controller from reaching worker API servers; a shared
// network restores cross-cluster connectivity.
const NetworkName = "k3d-mksandbox"

// ServerContainerName returns the Docker container name of a k3d cluster's
// first server node.
func ServerContainerName(clusterName string) string {
	return "k3d-" + clusterName + "-server-0"
}

// ContextName returns the kubeconfig context k3d writes for a cluster. The
// context and cluster entries share this name.
func ContextName(clusterName string) string {
	return "k3d-" + clusterName
}

// AuthInfoName returns the kubeconfig user entry k3d writes for a cluster.
func AuthInfoName(clusterName string) string {
	return "admin@k3d-" + clusterName
}

// logrusConfigOnce ensures logrus is configured exactly once to avoid data races.
var logrusConfigOnce sync.Once //nolint:gochecknoglobals // Required for one-time logrus initialization

// K3dClusterProvisioner executes k3d lifecycle commands via cobra.
type K3dClusterProvisioner struct {
	runner runner.CommandRunner
}

// NewK3dClusterProvisioner constructs a new command-backed provisioner.
func NewK3dClusterProvisioner() *K3dClusterProvisioner {
	return NewK3dClusterProvisionerWithRunner(runner.NewCobraCommandRunner(nil, nil))
}

// NewK3dClusterProvisionerWithRunner constructs a provisioner with an
// explicit command runner for testing purposes.
func NewK3dClusterProvisionerWithRunner(cmdRunner runner.CommandRunner) *K3dClusterProvisioner {
	// k3d uses logrus for its console output, so it must be set up before the
	// first command runs. sync.Once prevents data races from parallel tests.
	logrusConfigOnce.Do(func() {
		logrus.SetOutput(os.Stdout)
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors:     true,
			FullTimestamp:   false,
			TimestampFormat: "2006-01-02T15:04:05Z",
		})
		logrus.SetLevel(logrus.InfoLevel)
	})

	return &K3dClusterProvisioner{runner: cmdRunner}
}

// Create provisions a single-server k3d cluster on the shared sandbox network.
func (k *K3dClusterProvisioner) Create(ctx context.Context, name string) error {
	args := []string{"--servers", "1", "--network", NetworkName}

	return k.runLifecycleCommand(
		ctx,
		clustercommand.NewCmdClusterCreate,
		args,
		name,
		"cluster create",
	)
}

// Delete removes a k3d cluster via the cobra command.
// Returns clustererrors.ErrClusterNotFound if the cluster does not exist.
func (k *K3dClusterProvisioner) Delete(ctx context.Context, name string) error {
	exists, err := k.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check cluster existence: %w", err)
	}

	if !exists {
		return fmt.Errorf("%w: %s", clustererrors.ErrClusterNotFound, name)
	}

	return k.runLifecycleCommand(
		ctx,
		clustercommand.NewCmdClusterDelete,
		nil,
		name,
		"cluster delete",
	)
}

// List returns cluster names reported by the cobra command.
func (k *K3dClusterProvisioner) List(ctx context.Context) ([]string, error) {
	// Silence logrus while listing so JSON output stays parseable.
	originalLogOutput := logrus.StandardLogger().Out

	logrus.SetOutput(io.Discard)
	defer logrus.SetOutput(originalLogOutput)

	output, err := k.runListCommand(ctx)
	if err != nil {
		return nil, fmt.Errorf("cluster list: %w", err)
	}

	return parseClusterNames(output)
}

// Exists returns whether the target cluster is present.
func (k *K3dClusterProvisioner) Exists(ctx context.Context, name string) (bool, error) {
	clusters, err := k.List(ctx)
	if err != nil {
		return false, fmt.Errorf("list: %w", err)
	}

	return slices.Contains(clusters, name), nil
}

func (k *K3dClusterProvisioner) runListCommand(ctx context.Context) (string, error) {
	cmd := clustercommand.NewCmdClusterList()
	args := []string{"--output", "json"}

	res, runErr := k.runner.Run(ctx, cmd, args)
	if runErr != nil {
		return "", fmt.Errorf("run k3d cluster list: %w", runErr)
	}

	return strings.TrimSpace(res.Stdout), nil
}

func (k *K3dClusterProvisioner) runLifecycleCommand(
	ctx context.Context,
	builder func() *cobra.Command,
	args []string,
	name string,
	errorPrefix string,
) error {
	cmd := builder()

	if strings.TrimSpace(name) != "" {
		args = append(args, name)
	}

	_, runErr := k.runner.Run(ctx, cmd, args)
	if runErr != nil {
		return fmt.Errorf("%s: %w", errorPrefix, runErr)
	}

	return nil
}

// parseClusterNames parses JSON output and extracts cluster names.
func parseClusterNames(output string) ([]string, error) {
	if output == "" {
		return nil, nil
	}

	var entries []struct {
		Name string `json:"name"`
	}

	decodeErr := json.Unmarshal([]byte(output), &entries)
	if decodeErr != nil {
		return nil, fmt.Errorf("cluster list: parse output: %w", decodeErr)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Name != "" {
			names = append(names, entry.Name)
		}
	}

	return names, nil
}

// Package kindprovisioner provisions sandbox clusters with kind.
package kindprovisioner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/runner"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster/clustererrors"
	"sigs.k8s.io/kind/pkg/apis/config/v1alpha4"
	kindcmd "sigs.k8s.io/kind/pkg/cmd"
	createcluster "sigs.k8s.io/kind/pkg/cmd/kind/create/cluster"
	deletecluster "sigs.k8s.io/kind/pkg/cmd/kind/delete/cluster"
	getclusters "sigs.k8s.io/kind/pkg/cmd/kind/get/clusters"
	"sigs.k8s.io/kind/pkg/log"
	"sigs.k8s.io/yaml"
)

// NodeContainerName returns the Docker container name of a kind cluster's
// control-plane node.
func NodeContainerName(clusterName string) string {
	return clusterName + "-control-plane"
}

// ContextName returns the kubeconfig context kind writes for a cluster.
// kind uses the same name for the context, cluster, and user entries.
func ContextName(clusterName string) string {
	return "kind-" + clusterName
}

// NetworkName is the Docker network all kind clusters share, which is what
// lets the manager's Kueue controller reach worker API servers by IP.
const NetworkName = "kind"

// KindClusterProvisioner provisions kind clusters through kind's cobra
// commands. A single-node cluster config is generated per cluster name.
type KindClusterProvisioner struct {
	kubeConfig string
	runner     runner.CommandRunner
}

// NewKindClusterProvisioner constructs a provisioner writing kubeconfig
// entries to the given path.
func NewKindClusterProvisioner(kubeConfig string) *KindClusterProvisioner {
	return NewKindClusterProvisionerWithRunner(
		kubeConfig,
		runner.NewCobraCommandRunner(os.Stdout, os.Stderr),
	)
}

// NewKindClusterProvisionerWithRunner constructs a provisioner with an
// explicit command runner for testing purposes.
func NewKindClusterProvisionerWithRunner(
	kubeConfig string,
	cmdRunner runner.CommandRunner,
) *KindClusterProvisioner {
	return &KindClusterProvisioner{
		kubeConfig: kubeConfig,
		runner:     cmdRunner,
	}
}

// Create creates a single-node kind cluster using kind's cobra command.
func (k *KindClusterProvisioner) Create(ctx context.Context, name string) error {
	clusterConfig := &v1alpha4.Cluster{
		TypeMeta: v1alpha4.TypeMeta{
			APIVersion: "kind.x-k8s.io/v1alpha4",
			Kind:       "Cluster",
		},
		Name: name,
		Nodes: []v1alpha4.Node{
			{Role: v1alpha4.ControlPlaneRole},
		},
	}

	// Serialize config to a temp file (required by kind's cobra command)
	tmpFile, err := os.CreateTemp("", "kind-config-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}

	defer func() { _ = tmpFile.Close() }()
	defer func() { _ = os.Remove(tmpFile.Name()) }()

	configYAML, err := yaml.Marshal(clusterConfig)
	if err != nil {
		return fmt.Errorf("marshal kind config: %w", err)
	}

	const configFilePerms = 0o600

	err = os.WriteFile(tmpFile.Name(), configYAML, configFilePerms)
	if err != nil {
		return fmt.Errorf("write temp config file: %w", err)
	}

	logger := &streamLogger{writer: os.Stdout}
	streams := kindcmd.IOStreams{Out: os.Stdout, ErrOut: os.Stderr}

	cmd := createcluster.NewCommand(logger, streams)

	args := []string{"--name", name, "--config", tmpFile.Name()}
	if k.kubeConfig != "" {
		args = append(args, "--kubeconfig", k.kubeConfig)
	}

	_, err = k.runner.Run(ctx, cmd, args)
	if err != nil {
		return fmt.Errorf("failed to create kind cluster: %w", err)
	}

	return nil
}

// Delete deletes a kind cluster using kind's cobra command.
// Returns clustererrors.ErrClusterNotFound if the cluster does not exist.
func (k *KindClusterProvisioner) Delete(ctx context.Context, name string) error {
	exists, err := k.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check cluster existence: %w", err)
	}

	if !exists {
		return fmt.Errorf("%w: %s", clustererrors.ErrClusterNotFound, name)
	}

	logger := &streamLogger{writer: os.Stdout}
	streams := kindcmd.IOStreams{Out: os.Stdout, ErrOut: os.Stderr}

	cmd := deletecluster.NewCommand(logger, streams)

	args := []string{"--name", name}
	if k.kubeConfig != "" {
		args = append(args, "--kubeconfig", k.kubeConfig)
	}

	_, err = k.runner.Run(ctx, cmd, args)
	if err != nil {
		return fmt.Errorf("failed to delete kind cluster: %w", err)
	}

	return nil
}

// List returns all kind clusters using kind's cobra command.
func (k *KindClusterProvisioner) List(ctx context.Context) ([]string, error) {
	var outBuf bytes.Buffer

	logger := &streamLogger{writer: &outBuf}

	// Kind's get clusters command writes names to streams.Out directly.
	streams := kindcmd.IOStreams{Out: &outBuf, ErrOut: io.Discard}

	cmd := getclusters.NewCommand(logger, streams)

	result, err := k.runner.Run(ctx, cmd, []string{})
	if err != nil {
		return nil, fmt.Errorf("failed to list kind clusters: %w", err)
	}

	const noKindClustersMsg = "No kind clusters found."

	output := outBuf.String()
	if output == "" {
		output = result.Stdout
	}

	var clusters []string

	for _, line := range strings.Split(output, "\n") {
		name := strings.TrimSpace(line)
		if name != "" && name != noKindClustersMsg {
			clusters = append(clusters, name)
		}
	}

	return clusters, nil
}

// Exists checks if a kind cluster exists.
func (k *KindClusterProvisioner) Exists(ctx context.Context, name string) (bool, error) {
	clusters, err := k.List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list kind clusters: %w", err)
	}

	return slices.Contains(clusters, name), nil
}

// streamLogger adapts kind's log interface so console output is displayed
// in real time. Only info-level messages (V(0)) are enabled to avoid verbose
// debug output.
type streamLogger struct {
	writer io.Writer
}

func (l *streamLogger) Warn(message string) {
	l.write(message)
}

func (l *streamLogger) Warnf(format string, args ...any) {
	l.write(fmt.Sprintf(format, args...))
}

func (l *streamLogger) Error(message string) {
	l.write(message)
}

func (l *streamLogger) Errorf(format string, args ...any) {
	l.write(fmt.Sprintf(format, args...))
}

func (l *streamLogger) Info(message string) {
	l.write(message)
}

func (l *streamLogger) Infof(format string, args ...any) {
	l.write(fmt.Sprintf(format, args...))
}

func (l *streamLogger) Enabled() bool {
	return true
}

func (l *streamLogger) V(level log.Level) log.InfoLogger {
	if level > 0 {
		return noopInfoLogger{}
	}

	return l
}

func (l *streamLogger) write(message string) {
	if l == nil {
		return
	}

	if message == "" {
		_, _ = io.WriteString(l.writer, "\n")

		return
	}

	if strings.ContainsRune(message, '\r') || strings.HasSuffix(message, "\n") {
		_, _ = io.WriteString(l.writer, message)

		return
	}

	_, _ = io.WriteString(l.writer, message+"\n")
}

// noopInfoLogger discards verbose/debug messages (V(1) and higher).
type noopInfoLogger struct{}

func (noopInfoLogger) Info(string)          {}
func (noopInfoLogger) Infof(string, ...any) {}
func (noopInfoLogger) Enabled() bool        { return false }

package kindprovisioner_test

import (
	"context"
	"testing"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/runner"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster/clustererrors"
	kindprovisioner "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster/kind"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	stdout   string
	err      error
	commands []string
	args     [][]string
}

func (f *fakeRunner) Run(
	_ context.Context,
	cmd *cobra.Command,
	args []string,
) (runner.Result, error) {
	f.commands = append(f.commands, cmd.Name())
	f.args = append(f.args, args)

	return runner.Result{Stdout: f.stdout}, f.err
}

func TestListParsesClusterNames(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{stdout: "manager\nworker1\nworker2\n"}
	provisioner := kindprovisioner.NewKindClusterProvisionerWithRunner("", fake)

	clusters, err := provisioner.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"manager", "worker1", "worker2"}, clusters)
}

func TestListIgnoresNoClustersMessage(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{stdout: "No kind clusters found.\n"}
	provisioner := kindprovisioner.NewKindClusterProvisionerWithRunner("", fake)

	clusters, err := provisioner.List(context.Background())
	require.NoError(t, err)

	assert.Empty(t, clusters)
}

func TestExists(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{stdout: "manager\n"}
	provisioner := kindprovisioner.NewKindClusterProvisionerWithRunner("", fake)

	exists, err := provisioner.Exists(context.Background(), "manager")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = provisioner.Exists(context.Background(), "worker1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteMissingClusterReturnsNotFound(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{stdout: ""}
	provisioner := kindprovisioner.NewKindClusterProvisionerWithRunner("", fake)

	err := provisioner.Delete(context.Background(), "worker1")
	assert.ErrorIs(t, err, clustererrors.ErrClusterNotFound)
}

func TestCreatePassesNameAndConfig(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{}
	provisioner := kindprovisioner.NewKindClusterProvisionerWithRunner(
		"/tmp/kubeconfig", fake,
	)

	err := provisioner.Create(context.Background(), "worker1")
	require.NoError(t, err)

	require.Len(t, fake.args, 1)
	args := fake.args[0]
	assert.Contains(t, args, "--name")
	assert.Contains(t, args, "worker1")
	assert.Contains(t, args, "--config")
	assert.Contains(t, args, "--kubeconfig")
}

func TestNodeContainerName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "worker1-control-plane", kindprovisioner.NodeContainerName("worker1"))
}

package cluster

import (
	"bytes"
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1alpha1 "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
	clusterprovisioner "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster/clustererrors"
)

type fakeProvisioner struct {
	existing []string
	created  []string
	deleted  []string
}

func (f *fakeProvisioner) Create(_ context.Context, name string) error {
	f.created = append(f.created, name)

	return nil
}

func (f *fakeProvisioner) Delete(_ context.Context, name string) error {
	if !slices.Contains(f.existing, name) {
		return clustererrors.ErrClusterNotFound
	}

	f.deleted = append(f.deleted, name)

	return nil
}

func (f *fakeProvisioner) List(_ context.Context) ([]string, error) {
	return slices.Clone(f.existing), nil
}

func (f *fakeProvisioner) Exists(_ context.Context, name string) (bool, error) {
	return slices.Contains(f.existing, name), nil
}

type fakeFactory struct {
	provisioner *fakeProvisioner
}

func (f fakeFactory) Create(
	_ v1alpha1.Distribution,
	_ string,
) (clusterprovisioner.Provisioner, error) {
	return f.provisioner, nil
}

func installFakeFactory(t *testing.T, provisioner *fakeProvisioner) {
	t.Helper()
	t.Chdir(t.TempDir())

	setFactoryOverride(fakeFactory{provisioner: provisioner})
	t.Cleanup(func() { setFactoryOverride(nil) })
}

func TestClusterCreateCreatesNamedCluster(t *testing.T) {
	provisioner := &fakeProvisioner{}
	installFakeFactory(t, provisioner)

	cmd := NewCreateCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"worker3"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, []string{"worker3"}, provisioner.created)
}

func TestClusterDeleteDeletesNamedCluster(t *testing.T) {
	provisioner := &fakeProvisioner{existing: []string{"worker1"}}
	installFakeFactory(t, provisioner)

	cmd := NewDeleteCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"worker1"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, []string{"worker1"}, provisioner.deleted)
}

func TestClusterDeleteWarnsOnMissingCluster(t *testing.T) {
	provisioner := &fakeProvisioner{}
	installFakeFactory(t, provisioner)

	cmd := NewDeleteCmd()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetArgs([]string{"ghost"})

	require.NoError(t, cmd.Execute())
	assert.Empty(t, provisioner.deleted)
	assert.Contains(t, out.String(), "not found")
}

func TestClusterListPrintsClusterNames(t *testing.T) {
	provisioner := &fakeProvisioner{existing: []string{"manager", "worker1"}}
	installFakeFactory(t, provisioner)

	cmd := NewListCmd()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "manager\nworker1\n")
}

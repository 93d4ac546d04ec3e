package cmd

import (
	"context"
	"slices"

	v1alpha1 "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
	clusterprovisioner "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster/clustererrors"
)

// fakeProvisioner records lifecycle calls and serves canned cluster state.
type fakeProvisioner struct {
	existing []string
	created  []string
	deleted  []string
}

func (f *fakeProvisioner) Create(_ context.Context, name string) error {
	f.created = append(f.created, name)
	f.existing = append(f.existing, name)

	return nil
}

func (f *fakeProvisioner) Delete(_ context.Context, name string) error {
	if !slices.Contains(f.existing, name) {
		return clustererrors.ErrClusterNotFound
	}

	f.deleted = append(f.deleted, name)
	f.existing = slices.DeleteFunc(f.existing, func(n string) bool { return n == name })

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

// Package clusterprovisioner defines the interface for managing sandbox
// Kubernetes clusters in Docker.
package clusterprovisioner

import "context"

// Provisioner defines methods for managing Kubernetes clusters. A sandbox
// uses one provisioner for all of its clusters (manager and workers), so
// every operation takes an explicit cluster name.
type Provisioner interface {
	// Create creates a Kubernetes cluster with the given name.
	Create(ctx context.Context, name string) error

	// Delete deletes a Kubernetes cluster by name.
	// Returns clustererrors.ErrClusterNotFound if the cluster does not exist.
	Delete(ctx context.Context, name string) error

	// List lists all clusters known to the underlying tool.
	List(ctx context.Context) ([]string, error)

	// Exists checks if a cluster with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)
}

// Package installer defines the contract for installing components into
// sandbox clusters.
package installer

import (
	"context"
	"time"

	v1alpha1 "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
)

// DefaultInstallTimeout is the default timeout for component installation.
const DefaultInstallTimeout = 5 * time.Minute

// Installer defines methods for installing and uninstalling components.
type Installer interface {
	// Install installs the component into the target cluster.
	Install(ctx context.Context) error

	// Uninstall removes the component from the target cluster.
	Uninstall(ctx context.Context) error
}

// GetInstallTimeout determines the timeout for component installation. The
// sandbox connection timeout wins when configured.
func GetInstallTimeout(sandbox *v1alpha1.Sandbox) time.Duration {
	if sandbox == nil {
		return DefaultInstallTimeout
	}

	if sandbox.Spec.Connection.Timeout.Duration > 0 {
		return sandbox.Spec.Connection.Timeout.Duration
	}

	return DefaultInstallTimeout
}

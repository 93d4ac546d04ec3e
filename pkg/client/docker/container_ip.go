package docker

import (
	"context"
	"errors"
	"fmt"

	"github.com/docker/docker/api/types/container"
)

// Errors for container IP resolution.
var (
	// ErrNoNetworkSettings is returned when a container has no network configuration.
	ErrNoNetworkSettings = errors.New("container has no network settings")
	// ErrNotConnectedToNetwork is returned when a container is not attached to the specified network.
	ErrNotConnectedToNetwork = errors.New("container is not connected to network")
	// ErrNoIPAddress is returned when a container has no IP address on the specified network.
	ErrNoIPAddress = errors.New("container has no IP address on network")
)

// ContainerInspector is the subset of the Docker API used for IP resolution.
type ContainerInspector interface {
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
}

// ResolveContainerIPOnNetwork inspects a Docker container and returns its IP
// address on the specified network. The manager cluster's Kueue controller
// reaches worker API servers by container IP, since Docker DNS names are not
// resolvable from inside the cluster network namespace.
func ResolveContainerIPOnNetwork(
	ctx context.Context,
	inspector ContainerInspector,
	containerName string,
	networkName string,
) (string, error) {
	inspect, err := inspector.ContainerInspect(ctx, containerName)
	if err != nil {
		return "", fmt.Errorf("inspect container %s: %w", containerName, err)
	}

	if inspect.NetworkSettings == nil || inspect.NetworkSettings.Networks == nil {
		return "", fmt.Errorf("%w: %s", ErrNoNetworkSettings, containerName)
	}

	network, ok := inspect.NetworkSettings.Networks[networkName]
	if !ok {
		return "", fmt.Errorf(
			"%w: container %s, network %s", ErrNotConnectedToNetwork, containerName, networkName,
		)
	}

	ipAddress := network.IPAddress
	if ipAddress == "" {
		return "", fmt.Errorf(
			"%w: container %s, network %s", ErrNoIPAddress, containerName, networkName,
		)
	}

	return ipAddress, nil
}

// Package docker wraps the Docker engine API for sandbox infrastructure checks.
package docker

import (
	"context"
	"errors"
	"fmt"

	"github.com/docker/docker/client"
)

// ErrEngineUnreachable is returned when the Docker daemon does not answer a ping.
var ErrEngineUnreachable = errors.New("docker engine is unreachable")

// GetDockerClient creates a Docker client using environment configuration.
func GetDockerClient() (client.APIClient, error) {
	dockerClient, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return dockerClient, nil
}

// CheckReady pings the Docker daemon. Sandbox clusters run as Docker
// containers, so an unreachable daemon (no Docker Desktop, no colima VM)
// fails every later stage; checking up front gives a clear error instead.
func CheckReady(ctx context.Context, apiClient client.APIClient) error {
	_, err := apiClient.Ping(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w (is your container runtime running?)", ErrEngineUnreachable, err)
	}

	return nil
}

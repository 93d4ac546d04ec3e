package multikueue

import (
	"context"
	"fmt"

	v1alpha1 "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/client/docker"
	clusterprovisioner "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster"
)

// WorkerServerURL resolves the URL under which a worker's API server is
// reachable from inside the manager cluster: the worker container's IP on the
// Docker network the sandbox clusters share.
func WorkerServerURL(
	ctx context.Context,
	inspector docker.ContainerInspector,
	distribution v1alpha1.Distribution,
	clusterName string,
) (string, error) {
	endpoint, err := clusterprovisioner.APIServerEndpoint(distribution, clusterName)
	if err != nil {
		return "", err
	}

	ipAddress, err := docker.ResolveContainerIPOnNetwork(
		ctx, inspector, endpoint.ContainerName, endpoint.NetworkName,
	)
	if err != nil {
		return "", fmt.Errorf("resolve worker %s endpoint: %w", clusterName, err)
	}

	return fmt.Sprintf("https://%s:%d", ipAddress, endpoint.Port), nil
}

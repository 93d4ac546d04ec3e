package clusterprovisioner

import (
	"fmt"

	v1alpha1 "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
	k3dprovisioner "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster/k3d"
	kindprovisioner "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster/kind"
)

// Factory creates distribution-specific cluster provisioners.
type Factory interface {
	Create(distribution v1alpha1.Distribution, kubeconfigPath string) (Provisioner, error)
}

// DefaultFactory selects the provisioner implementation for a distribution.
type DefaultFactory struct{}

// Create returns the provisioner for the distribution.
func (DefaultFactory) Create(
	distribution v1alpha1.Distribution,
	kubeconfigPath string,
) (Provisioner, error) {
	switch distribution {
	case v1alpha1.DistributionKind:
		return kindprovisioner.NewKindClusterProvisioner(kubeconfigPath), nil
	case v1alpha1.DistributionK3d:
		return k3dprovisioner.NewK3dClusterProvisioner(), nil
	default:
		return nil, fmt.Errorf("%w: %s", v1alpha1.ErrUnsupportedDistribution, distribution)
	}
}

// KubeconfigEntries names the kubeconfig context, cluster, and user entries a
// distribution writes for a cluster.
type KubeconfigEntries struct {
	Context  string
	Cluster  string
	AuthInfo string
}

// KubeContext returns the kubeconfig context for a cluster of the
// distribution.
func KubeContext(distribution v1alpha1.Distribution, clusterName string) (string, error) {
	entries, err := KubeconfigEntriesFor(distribution, clusterName)
	if err != nil {
		return "", err
	}

	return entries.Context, nil
}

// KubeconfigEntriesFor returns the kubeconfig entry names for a cluster of
// the distribution, used to clean up the kubeconfig on teardown.
func KubeconfigEntriesFor(
	distribution v1alpha1.Distribution,
	clusterName string,
) (KubeconfigEntries, error) {
	switch distribution {
	case v1alpha1.DistributionKind:
		name := kindprovisioner.ContextName(clusterName)

		return KubeconfigEntries{Context: name, Cluster: name, AuthInfo: name}, nil
	case v1alpha1.DistributionK3d:
		name := k3dprovisioner.ContextName(clusterName)

		return KubeconfigEntries{
			Context:  name,
			Cluster:  name,
			AuthInfo: k3dprovisioner.AuthInfoName(clusterName),
		}, nil
	default:
		return KubeconfigEntries{}, fmt.Errorf("%w: %s", v1alpha1.ErrUnsupportedDistribution, distribution)
	}
}

// Endpoint describes where a cluster's API server is reachable on the Docker
// network shared by the sandbox clusters.
type Endpoint struct {
	// ContainerName is the Docker container running the API server.
	ContainerName string
	// NetworkName is the Docker network the container is attached to.
	NetworkName string
	// Port is the in-network API server port.
	Port int
}

// APIServerEndpoint returns the Docker-network endpoint of a cluster's API
// server for the distribution. Both kind and k3d serve the Kubernetes API on
// 6443 inside the container network.
func APIServerEndpoint(
	distribution v1alpha1.Distribution,
	clusterName string,
) (Endpoint, error) {
	const apiServerPort = 6443

	switch distribution {
	case v1alpha1.DistributionKind:
		return Endpoint{
			ContainerName: kindprovisioner.NodeContainerName(clusterName),
			NetworkName:   kindprovisioner.NetworkName,
			Port:          apiServerPort,
		}, nil
	case v1alpha1.DistributionK3d:
		return Endpoint{
			ContainerName: k3dprovisioner.ServerContainerName(clusterName),
			NetworkName:   k3dprovisioner.NetworkName,
			Port:          apiServerPort,
		}, nil
	default:
		return Endpoint{}, fmt.Errorf("%w: %s", v1alpha1.ErrUnsupportedDistribution, distribution)
	}
}

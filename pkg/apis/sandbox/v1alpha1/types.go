package v1alpha1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

const (
	// Group is the API group for sandbox configuration files.
	Group = "sandbox.dev"
	// Version is the API version for sandbox configuration files.
	Version = "v1alpha1"
	// Kind is the kind for sandbox configuration files.
	Kind = "Sandbox"
	// APIVersion is the full API version for sandbox configuration files.
	APIVersion = Group + "/" + Version
)

// Distribution identifies the Kubernetes-in-Docker tool used for sandbox clusters.
type Distribution string

const (
	// DistributionKind provisions clusters with kind.
	DistributionKind Distribution = "Kind"
	// DistributionK3d provisions clusters with k3d.
	DistributionK3d Distribution = "K3d"
)

// InstallMode selects how Kueue is installed on sandbox clusters.
type InstallMode string

const (
	// InstallModeHelm installs Kueue from the upstream OCI Helm chart.
	InstallModeHelm InstallMode = "Helm"
	// InstallModeManifests installs Kueue by applying the upstream release manifests.
	InstallModeManifests InstallMode = "Manifests"
)

// Sandbox is the declarative description of a throwaway MultiKueue
// demonstration environment: one manager cluster and one or more worker
// clusters running in Docker, with Kueue installed on each and MultiKueue
// wired between them.
type Sandbox struct {
	metav1.TypeMeta `json:",inline" mapstructure:",squash"`

	Spec Spec `json:"spec,omitempty" mapstructure:"spec,omitempty"`
}

// Spec defines the desired sandbox topology.
type Spec struct {
	Distribution Distribution `json:"distribution,omitempty" mapstructure:"distribution,omitempty"`
	Manager      ClusterRef   `json:"manager,omitempty"      mapstructure:"manager,omitempty"`
	Workers      []ClusterRef `json:"workers,omitempty"      mapstructure:"workers,omitempty"`
	Kueue        KueueSpec    `json:"kueue,omitempty"        mapstructure:"kueue,omitempty"`
	Queue        QueueSpec    `json:"queue,omitempty"        mapstructure:"queue,omitempty"`
	Connection   Connection   `json:"connection,omitempty"   mapstructure:"connection,omitempty"`
}

// ClusterRef names a single sandbox cluster.
type ClusterRef struct {
	Name string `json:"name,omitempty" mapstructure:"name,omitempty"`
}

// KueueSpec pins the external Kueue release installed on every cluster.
type KueueSpec struct {
	Version     string      `json:"version,omitempty"     mapstructure:"version,omitempty"`
	Namespace   string      `json:"namespace,omitempty"   mapstructure:"namespace,omitempty"`
	InstallMode InstallMode `json:"installMode,omitempty" mapstructure:"installMode,omitempty"`
}

// QueueSpec defines the queueing resources created on the manager and
// mirrored on every worker.
type QueueSpec struct {
	Namespace      string `json:"namespace,omitempty"      mapstructure:"namespace,omitempty"`
	ClusterQueue   string `json:"clusterQueue,omitempty"   mapstructure:"clusterQueue,omitempty"`
	LocalQueue     string `json:"localQueue,omitempty"     mapstructure:"localQueue,omitempty"`
	ResourceFlavor string `json:"resourceFlavor,omitempty" mapstructure:"resourceFlavor,omitempty"`
	CPUQuota       string `json:"cpuQuota,omitempty"       mapstructure:"cpuQuota,omitempty"`
	MemoryQuota    string `json:"memoryQuota,omitempty"    mapstructure:"memoryQuota,omitempty"`
}

// Connection defines how the sandbox reaches its clusters and where
// generated credentials are written.
type Connection struct {
	Kubeconfig    string          `json:"kubeconfig,omitempty"    mapstructure:"kubeconfig,omitempty"`
	KubeconfigDir string          `json:"kubeconfigDir,omitempty" mapstructure:"kubeconfigDir,omitempty"`
	Timeout       metav1.Duration `json:"timeout,omitempty"       mapstructure:"timeout,omitempty"`
}

// ClusterNames returns the manager name followed by all worker names.
func (s *Spec) ClusterNames() []string {
	names := make([]string, 0, len(s.Workers)+1)
	names = append(names, s.Manager.Name)

	for _, worker := range s.Workers {
		names = append(names, worker.Name)
	}

	return names
}

// WorkerNames returns the names of all worker clusters.
func (s *Spec) WorkerNames() []string {
	names := make([]string, 0, len(s.Workers))
	for _, worker := range s.Workers {
		names = append(names, worker.Name)
	}

	return names
}

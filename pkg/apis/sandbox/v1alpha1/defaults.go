package v1alpha1

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// DefaultManagerName is the default name of the manager cluster.
	DefaultManagerName = "manager"
	// DefaultKueueVersion is the pinned Kueue release installed on sandbox clusters.
	DefaultKueueVersion = "0.13.2"
	// DefaultKueueNamespace is the namespace Kueue installs into.
	DefaultKueueNamespace = "kueue-system"
	// DefaultQueueNamespace is the namespace jobs are submitted to.
	DefaultQueueNamespace = "team-a"
	// DefaultClusterQueue is the default ClusterQueue name.
	DefaultClusterQueue = "cluster-queue"
	// DefaultLocalQueue is the default LocalQueue name.
	DefaultLocalQueue = "user-queue"
	// DefaultResourceFlavor is the default ResourceFlavor name.
	DefaultResourceFlavor = "default-flavor"
	// DefaultCPUQuota is the default ClusterQueue CPU quota.
	DefaultCPUQuota = "8"
	// DefaultMemoryQuota is the default ClusterQueue memory quota.
	DefaultMemoryQuota = "16Gi"
	// DefaultKubeconfigPath is the default path to the kubeconfig file.
	DefaultKubeconfigPath = "~/.kube/config"
	// DefaultKubeconfigDir is where generated worker kubeconfigs are written.
	DefaultKubeconfigDir = ".mksandbox/kubeconfigs"
	// DefaultTimeout bounds readiness polling per stage.
	DefaultTimeout = 5 * time.Minute
)

// DefaultWorkerNames returns the default worker cluster names.
func DefaultWorkerNames() []string {
	return []string{"worker1", "worker2"}
}

// NewSandbox returns a Sandbox with TypeMeta populated and all defaults applied.
func NewSandbox() *Sandbox {
	sandbox := &Sandbox{
		TypeMeta: metav1.TypeMeta{
			APIVersion: APIVersion,
			Kind:       Kind,
		},
	}
	sandbox.Spec.SetDefaults()

	return sandbox
}

// SetDefaults fills unset fields with their default values.
func (s *Spec) SetDefaults() {
	if s.Distribution == "" {
		s.Distribution = DistributionKind
	}

	if s.Manager.Name == "" {
		s.Manager.Name = DefaultManagerName
	}

	if len(s.Workers) == 0 {
		for _, name := range DefaultWorkerNames() {
			s.Workers = append(s.Workers, ClusterRef{Name: name})
		}
	}

	if s.Kueue.Version == "" {
		s.Kueue.Version = DefaultKueueVersion
	}

	if s.Kueue.Namespace == "" {
		s.Kueue.Namespace = DefaultKueueNamespace
	}

	if s.Kueue.InstallMode == "" {
		s.Kueue.InstallMode = InstallModeHelm
	}

	if s.Queue.Namespace == "" {
		s.Queue.Namespace = DefaultQueueNamespace
	}

	if s.Queue.ClusterQueue == "" {
		s.Queue.ClusterQueue = DefaultClusterQueue
	}

	if s.Queue.LocalQueue == "" {
		s.Queue.LocalQueue = DefaultLocalQueue
	}

	if s.Queue.ResourceFlavor == "" {
		s.Queue.ResourceFlavor = DefaultResourceFlavor
	}

	if s.Queue.CPUQuota == "" {
		s.Queue.CPUQuota = DefaultCPUQuota
	}

	if s.Queue.MemoryQuota == "" {
		s.Queue.MemoryQuota = DefaultMemoryQuota
	}

	if s.Connection.Kubeconfig == "" {
		s.Connection.Kubeconfig = DefaultKubeconfigPath
	}

	if s.Connection.KubeconfigDir == "" {
		s.Connection.KubeconfigDir = DefaultKubeconfigDir
	}

	if s.Connection.Timeout.Duration == 0 {
		s.Connection.Timeout = metav1.Duration{Duration: DefaultTimeout}
	}
}

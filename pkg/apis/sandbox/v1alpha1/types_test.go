package v1alpha1_test

import (
	"testing"

	v1alpha1 "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSandboxPopulatesTypeMetaAndDefaults(t *testing.T) {
	t.Parallel()

	sandbox := v1alpha1.NewSandbox()

	assert.Equal(t, "sandbox.dev/v1alpha1", sandbox.APIVersion)
	assert.Equal(t, "Sandbox", sandbox.Kind)
	assert.Equal(t, v1alpha1.DistributionKind, sandbox.Spec.Distribution)
	assert.Equal(t, "manager", sandbox.Spec.Manager.Name)
	assert.Len(t, sandbox.Spec.Workers, 2)
	assert.Equal(t, v1alpha1.InstallModeHelm, sandbox.Spec.Kueue.InstallMode)
	assert.Equal(t, "kueue-system", sandbox.Spec.Kueue.Namespace)
	assert.Equal(t, v1alpha1.DefaultTimeout, sandbox.Spec.Connection.Timeout.Duration)
}

func TestSetDefaultsKeepsExplicitValues(t *testing.T) {
	t.Parallel()

	spec := v1alpha1.Spec{
		Distribution: v1alpha1.DistributionK3d,
		Manager:      v1alpha1.ClusterRef{Name: "hub"},
		Workers:      []v1alpha1.ClusterRef{{Name: "spoke"}},
	}
	spec.SetDefaults()

	assert.Equal(t, v1alpha1.DistributionK3d, spec.Distribution)
	assert.Equal(t, "hub", spec.Manager.Name)
	require.Len(t, spec.Workers, 1)
	assert.Equal(t, "spoke", spec.Workers[0].Name)
}

func TestClusterNamesOrdersManagerFirst(t *testing.T) {
	t.Parallel()

	spec := v1alpha1.Spec{
		Manager: v1alpha1.ClusterRef{Name: "manager"},
		Workers: []v1alpha1.ClusterRef{{Name: "worker1"}, {Name: "worker2"}},
	}

	assert.Equal(t, []string{"manager", "worker1", "worker2"}, spec.ClusterNames())
	assert.Equal(t, []string{"worker1", "worker2"}, spec.WorkerNames())
}

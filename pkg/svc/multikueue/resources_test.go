package multikueue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
	ctrlfake "sigs.k8s.io/controller-runtime/pkg/client/fake"
	kueue "sigs.k8s.io/kueue/apis/kueue/v1beta1"

	v1alpha1 "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/multikueue"
)

func newFakeClusterClient(t *testing.T, objects ...ctrlclient.Object) ctrlclient.Client {
	t.Helper()

	scheme, err := multikueue.NewScheme()
	require.NoError(t, err)

	return ctrlfake.NewClientBuilder().
		WithScheme(scheme).
		WithObjects(objects...).
		Build()
}

func testQueueSpec() v1alpha1.QueueSpec {
	return v1alpha1.QueueSpec{
		Namespace:      "team-a",
		ClusterQueue:   "cluster-queue",
		LocalQueue:     "user-queue",
		ResourceFlavor: "default-flavor",
		CPUQuota:       "8",
		MemoryQuota:    "16Gi",
	}
}

func activeCondition(conditionType string) metav1.Condition {
	return metav1.Condition{
		Type:               conditionType,
		Status:             metav1.ConditionTrue,
		Reason:             "Active",
		Message:            "Connected",
		LastTransitionTime: metav1.Now(),
	}
}

func TestWireManagerCreatesResourceChain(t *testing.T) {
	t.Parallel()

	manager := newFakeClusterClient(t)
	wirer := multikueue.NewWirer(manager, "kueue-system", testQueueSpec())

	workers := []multikueue.WorkerRef{
		{Name: "worker1", Kubeconfig: []byte("kubeconfig-1")},
		{Name: "worker2", Kubeconfig: []byte("kubeconfig-2")},
	}

	err := wirer.WireManager(context.Background(), workers)
	require.NoError(t, err)

	ctx := context.Background()

	secret := &corev1.Secret{}
	require.NoError(t, manager.Get(
		ctx, types.NamespacedName{Namespace: "kueue-system", Name: "worker1-kubeconfig"}, secret,
	))
	assert.Equal(t, []byte("kubeconfig-1"), secret.Data[kueue.MultiKueueConfigSecretKey])

	cluster := &kueue.MultiKueueCluster{}
	require.NoError(t, manager.Get(ctx, types.NamespacedName{Name: "worker1"}, cluster))
	assert.Equal(t, kueue.SecretLocationType, cluster.Spec.KubeConfig.LocationType)
	assert.Equal(t, "worker1-kubeconfig", cluster.Spec.KubeConfig.Location)

	config := &kueue.MultiKueueConfig{}
	require.NoError(t, manager.Get(
		ctx, types.NamespacedName{Name: multikueue.MultiKueueConfigName}, config,
	))
	assert.Equal(t, []string{"worker1", "worker2"}, config.Spec.Clusters)

	check := &kueue.AdmissionCheck{}
	require.NoError(t, manager.Get(
		ctx, types.NamespacedName{Name: multikueue.AdmissionCheckName}, check,
	))
	assert.Equal(t, kueue.MultiKueueControllerName, check.Spec.ControllerName)
	require.NotNil(t, check.Spec.Parameters)
	assert.Equal(t, "MultiKueueConfig", check.Spec.Parameters.Kind)
	assert.Equal(t, multikueue.MultiKueueConfigName, check.Spec.Parameters.Name)

	clusterQueue := &kueue.ClusterQueue{}
	require.NoError(t, manager.Get(ctx, types.NamespacedName{Name: "cluster-queue"}, clusterQueue))
	require.Len(t, clusterQueue.Spec.ResourceGroups, 1)
	assert.Equal(
		t,
		[]kueue.AdmissionCheckReference{multikueue.AdmissionCheckName},
		clusterQueue.Spec.AdmissionChecks,
	)

	quotas := clusterQueue.Spec.ResourceGroups[0].Flavors[0].Resources
	assert.Equal(t, "8", quotas[0].NominalQuota.String())
	assert.Equal(t, "16Gi", quotas[1].NominalQuota.String())

	localQueue := &kueue.LocalQueue{}
	require.NoError(t, manager.Get(
		ctx, types.NamespacedName{Namespace: "team-a", Name: "user-queue"}, localQueue,
	))
	assert.Equal(t, kueue.ClusterQueueReference("cluster-queue"), localQueue.Spec.ClusterQueue)
}

func TestWireManagerIsIdempotent(t *testing.T) {
	t.Parallel()

	manager := newFakeClusterClient(t)
	wirer := multikueue.NewWirer(manager, "kueue-system", testQueueSpec())
	workers := []multikueue.WorkerRef{{Name: "worker1", Kubeconfig: []byte("kubeconfig")}}

	require.NoError(t, wirer.WireManager(context.Background(), workers))
	require.NoError(t, wirer.WireManager(context.Background(), workers))
}

func TestWireWorkerQueuesOmitsAdmissionCheck(t *testing.T) {
	t.Parallel()

	worker := newFakeClusterClient(t)
	wirer := multikueue.NewWirer(newFakeClusterClient(t), "kueue-system", testQueueSpec())

	err := wirer.WireWorkerQueues(context.Background(), worker)
	require.NoError(t, err)

	clusterQueue := &kueue.ClusterQueue{}
	require.NoError(t, worker.Get(
		context.Background(), types.NamespacedName{Name: "cluster-queue"}, clusterQueue,
	))
	assert.Empty(t, clusterQueue.Spec.AdmissionChecks)

	flavor := &kueue.ResourceFlavor{}
	require.NoError(t, worker.Get(
		context.Background(), types.NamespacedName{Name: "default-flavor"}, flavor,
	))
}

func TestWaitForActiveSucceeds(t *testing.T) {
	t.Parallel()

	check := &kueue.AdmissionCheck{
		ObjectMeta: metav1.ObjectMeta{Name: multikueue.AdmissionCheckName},
		Status: kueue.AdmissionCheckStatus{
			Conditions: []metav1.Condition{activeCondition(kueue.AdmissionCheckActive)},
		},
	}
	cluster := &kueue.MultiKueueCluster{
		ObjectMeta: metav1.ObjectMeta{Name: "worker1"},
		Status: kueue.MultiKueueClusterStatus{
			Conditions: []metav1.Condition{activeCondition(kueue.MultiKueueClusterActive)},
		},
	}

	manager := newFakeClusterClient(t, check, cluster)
	wirer := multikueue.NewWirer(manager, "kueue-system", testQueueSpec())

	err := wirer.WaitForActive(context.Background(), []string{"worker1"}, time.Second)
	require.NoError(t, err)
}

func TestWaitForActiveSurfacesConditionMessage(t *testing.T) {
	t.Parallel()

	check := &kueue.AdmissionCheck{
		ObjectMeta: metav1.ObjectMeta{Name: multikueue.AdmissionCheckName},
		Status: kueue.AdmissionCheckStatus{
			Conditions: []metav1.Condition{{
				Type:               kueue.AdmissionCheckActive,
				Status:             metav1.ConditionFalse,
				Reason:             "Inactive",
				Message:            "secret not found",
				LastTransitionTime: metav1.Now(),
			}},
		},
	}

	manager := newFakeClusterClient(t, check)
	wirer := multikueue.NewWirer(manager, "kueue-system", testQueueSpec())

	err := wirer.WaitForActive(context.Background(), []string{"worker1"}, 10*time.Millisecond)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret not found")
}

package multikueue

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	kueue "sigs.k8s.io/kueue/apis/kueue/v1beta1"

	v1alpha1 "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/k8s/readiness"
)

const (
	// MultiKueueConfigName is the manager-side MultiKueueConfig resource name.
	MultiKueueConfigName = "multikueue-config"
	// AdmissionCheckName is the manager-side AdmissionCheck resource name.
	AdmissionCheckName = "multikueue"
)

// WorkerRef pairs a worker cluster name with the kubeconfig the manager's
// Kueue controller uses to reach it.
type WorkerRef struct {
	Name       string
	Kubeconfig []byte
}

// KubeconfigSecretName returns the manager-side Secret name holding a
// worker's dispatch kubeconfig.
func KubeconfigSecretName(workerName string) string {
	return workerName + "-kubeconfig"
}

// Wirer creates and updates the Kueue resources that connect a sandbox.
// Every ensure operation is idempotent so wiring can be re-run.
type Wirer struct {
	manager        ctrlclient.Client
	kueueNamespace string
	queue          v1alpha1.QueueSpec
}

// NewWirer creates a Wirer operating through the manager cluster client.
func NewWirer(manager ctrlclient.Client, kueueNamespace string, queue v1alpha1.QueueSpec) *Wirer {
	return &Wirer{manager: manager, kueueNamespace: kueueNamespace, queue: queue}
}

// WireManager sets up the manager side: per-worker kubeconfig Secrets and
// MultiKueueClusters, the MultiKueueConfig, the AdmissionCheck, and the queue
// chain jobs are submitted to.
func (w *Wirer) WireManager(ctx context.Context, workers []WorkerRef) error {
	clusterNames := make([]string, 0, len(workers))

	for _, worker := range workers {
		err := w.ensureWorkerSecret(ctx, worker)
		if err != nil {
			return err
		}

		err = w.ensureMultiKueueCluster(ctx, worker.Name)
		if err != nil {
			return err
		}

		clusterNames = append(clusterNames, worker.Name)
	}

	err := w.ensureMultiKueueConfig(ctx, clusterNames)
	if err != nil {
		return err
	}

	err = w.ensureAdmissionCheck(ctx)
	if err != nil {
		return err
	}

	return w.ensureQueueChain(ctx, w.manager, true)
}

// WireWorkerQueues mirrors the queue chain onto a worker cluster so
// dispatched workloads find matching quota there.
func (w *Wirer) WireWorkerQueues(ctx context.Context, worker ctrlclient.Client) error {
	return w.ensureQueueChain(ctx, worker, false)
}

// WaitForActive polls until the AdmissionCheck and every MultiKueueCluster
// report Active=True. The most recent condition message is surfaced when the
// deadline passes.
func (w *Wirer) WaitForActive(
	ctx context.Context,
	clusterNames []string,
	timeout time.Duration,
) error {
	lastMessage := ""

	err := readiness.PollForReadiness(ctx, timeout, func(ctx context.Context) (bool, error) {
		check := &kueue.AdmissionCheck{}

		getErr := w.manager.Get(ctx, types.NamespacedName{Name: AdmissionCheckName}, check)
		if getErr != nil {
			lastMessage = getErr.Error()

			return false, nil //nolint:nilerr // keep polling until the resource appears
		}

		if !apimeta.IsStatusConditionTrue(check.Status.Conditions, kueue.AdmissionCheckActive) {
			lastMessage = conditionMessage(check.Status.Conditions, kueue.AdmissionCheckActive)

			return false, nil
		}

		for _, name := range clusterNames {
			cluster := &kueue.MultiKueueCluster{}

			getErr = w.manager.Get(ctx, types.NamespacedName{Name: name}, cluster)
			if getErr != nil {
				lastMessage = getErr.Error()

				return false, nil //nolint:nilerr // keep polling until the resource appears
			}

			active := apimeta.IsStatusConditionTrue(
				cluster.Status.Conditions, kueue.MultiKueueClusterActive,
			)
			if !active {
				lastMessage = fmt.Sprintf(
					"cluster %s: %s",
					name,
					conditionMessage(cluster.Status.Conditions, kueue.MultiKueueClusterActive),
				)

				return false, nil
			}
		}

		return true, nil
	})
	if err != nil {
		if lastMessage != "" {
			return fmt.Errorf("multikueue not active: %w: %s", err, lastMessage)
		}

		return fmt.Errorf("multikueue not active: %w", err)
	}

	return nil
}

func (w *Wirer) ensureWorkerSecret(ctx context.Context, worker WorkerRef) error {
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      KubeconfigSecretName(worker.Name),
			Namespace: w.kueueNamespace,
		},
	}

	_, err := controllerutil.CreateOrUpdate(ctx, w.manager, secret, func() error {
		secret.Data = map[string][]byte{
			kueue.MultiKueueConfigSecretKey: worker.Kubeconfig,
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("ensure kubeconfig secret for %s: %w", worker.Name, err)
	}

	return nil
}

func (w *Wirer) ensureMultiKueueCluster(ctx context.Context, workerName string) error {
	cluster := &kueue.MultiKueueCluster{
		ObjectMeta: metav1.ObjectMeta{Name: workerName},
	}

	_, err := controllerutil.CreateOrUpdate(ctx, w.manager, cluster, func() error {
		cluster.Spec.KubeConfig = kueue.KubeConfig{
			Location:     KubeconfigSecretName(workerName),
			LocationType: kueue.SecretLocationType,
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("ensure multikueue cluster %s: %w", workerName, err)
	}

	return nil
}

func (w *Wirer) ensureMultiKueueConfig(ctx context.Context, clusterNames []string) error {
	config := &kueue.MultiKueueConfig{
		ObjectMeta: metav1.ObjectMeta{Name: MultiKueueConfigName},
	}

	_, err := controllerutil.CreateOrUpdate(ctx, w.manager, config, func() error {
		config.Spec.Clusters = clusterNames

		return nil
	})
	if err != nil {
		return fmt.Errorf("ensure multikueue config: %w", err)
	}

	return nil
}

func (w *Wirer) ensureAdmissionCheck(ctx context.Context) error {
	check := &kueue.AdmissionCheck{
		ObjectMeta: metav1.ObjectMeta{Name: AdmissionCheckName},
	}

	_, err := controllerutil.CreateOrUpdate(ctx, w.manager, check, func() error {
		check.Spec.ControllerName = kueue.MultiKueueControllerName
		check.Spec.Parameters = &kueue.AdmissionCheckParametersReference{
			APIGroup: kueue.GroupVersion.Group,
			Kind:     "MultiKueueConfig",
			Name:     MultiKueueConfigName,
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("ensure admission check: %w", err)
	}

	return nil
}

// ensureQueueChain creates the namespace, ResourceFlavor, ClusterQueue, and
// LocalQueue on a cluster. The manager's ClusterQueue additionally carries
// the MultiKueue admission check.
func (w *Wirer) ensureQueueChain(
	ctx context.Context,
	cluster ctrlclient.Client,
	withAdmissionCheck bool,
) error {
	err := w.ensureNamespace(ctx, cluster)
	if err != nil {
		return err
	}

	err = w.ensureResourceFlavor(ctx, cluster)
	if err != nil {
		return err
	}

	err = w.ensureClusterQueue(ctx, cluster, withAdmissionCheck)
	if err != nil {
		return err
	}

	return w.ensureLocalQueue(ctx, cluster)
}

func (w *Wirer) ensureNamespace(ctx context.Context, cluster ctrlclient.Client) error {
	namespace := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: w.queue.Namespace},
	}

	_, err := controllerutil.CreateOrUpdate(ctx, cluster, namespace, func() error {
		return nil
	})
	if err != nil {
		return fmt.Errorf("ensure namespace %s: %w", w.queue.Namespace, err)
	}

	return nil
}

func (w *Wirer) ensureResourceFlavor(ctx context.Context, cluster ctrlclient.Client) error {
	flavor := &kueue.ResourceFlavor{
		ObjectMeta: metav1.ObjectMeta{Name: w.queue.ResourceFlavor},
	}

	_, err := controllerutil.CreateOrUpdate(ctx, cluster, flavor, func() error {
		return nil
	})
	if err != nil {
		return fmt.Errorf("ensure resource flavor %s: %w", w.queue.ResourceFlavor, err)
	}

	return nil
}

func (w *Wirer) ensureClusterQueue(
	ctx context.Context,
	cluster ctrlclient.Client,
	withAdmissionCheck bool,
) error {
	cpuQuota, err := resource.ParseQuantity(w.queue.CPUQuota)
	if err != nil {
		return fmt.Errorf("%w: cpu %q: %w", v1alpha1.ErrInvalidQuota, w.queue.CPUQuota, err)
	}

	memoryQuota, err := resource.ParseQuantity(w.queue.MemoryQuota)
	if err != nil {
		return fmt.Errorf("%w: memory %q: %w", v1alpha1.ErrInvalidQuota, w.queue.MemoryQuota, err)
	}

	clusterQueue := &kueue.ClusterQueue{
		ObjectMeta: metav1.ObjectMeta{Name: w.queue.ClusterQueue},
	}

	_, err = controllerutil.CreateOrUpdate(ctx, cluster, clusterQueue, func() error {
		clusterQueue.Spec.NamespaceSelector = &metav1.LabelSelector{}
		clusterQueue.Spec.ResourceGroups = []kueue.ResourceGroup{{
			CoveredResources: []corev1.ResourceName{corev1.ResourceCPU, corev1.ResourceMemory},
			Flavors: []kueue.FlavorQuotas{{
				Name: kueue.ResourceFlavorReference(w.queue.ResourceFlavor),
				Resources: []kueue.ResourceQuota{
					{Name: corev1.ResourceCPU, NominalQuota: cpuQuota},
					{Name: corev1.ResourceMemory, NominalQuota: memoryQuota},
				},
			}},
		}}

		if withAdmissionCheck {
			clusterQueue.Spec.AdmissionChecks = []kueue.AdmissionCheckReference{
				AdmissionCheckName,
			}
		} else {
			clusterQueue.Spec.AdmissionChecks = nil
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("ensure cluster queue %s: %w", w.queue.ClusterQueue, err)
	}

	return nil
}

func (w *Wirer) ensureLocalQueue(ctx context.Context, cluster ctrlclient.Client) error {
	localQueue := &kueue.LocalQueue{
		ObjectMeta: metav1.ObjectMeta{
			Name:      w.queue.LocalQueue,
			Namespace: w.queue.Namespace,
		},
	}

	_, err := controllerutil.CreateOrUpdate(ctx, cluster, localQueue, func() error {
		localQueue.Spec.ClusterQueue = kueue.ClusterQueueReference(w.queue.ClusterQueue)

		return nil
	})
	if err != nil {
		return fmt.Errorf("ensure local queue %s: %w", w.queue.LocalQueue, err)
	}

	return nil
}

func conditionMessage(conditions []metav1.Condition, conditionType string) string {
	condition := apimeta.FindStatusCondition(conditions, conditionType)
	if condition == nil {
		return "condition " + conditionType + " not reported yet"
	}

	return condition.Message
}

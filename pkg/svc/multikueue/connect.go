package multikueue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"

	v1alpha1 "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/client/docker"
)

const kubeconfigDirMode = 0o700

// WorkerAccess bundles the clients the connector needs for one worker.
type WorkerAccess struct {
	// Clientset issues the ServiceAccount and token requests.
	Clientset kubernetes.Interface
	// RESTConfig supplies the worker's CA bundle.
	RESTConfig *rest.Config
	// Client wires the Kueue queue resources on the worker.
	Client ctrlclient.Client
}

// Connector performs the full MultiKueue wiring of a sandbox: worker access
// kubeconfigs, manager resources, worker queues, and the Active wait.
type Connector struct {
	sandbox   *v1alpha1.Sandbox
	inspector docker.ContainerInspector
	manager   ctrlclient.Client
	workers   map[string]WorkerAccess
}

// NewConnector creates a Connector. The workers map is keyed by worker
// cluster name.
func NewConnector(
	sandbox *v1alpha1.Sandbox,
	inspector docker.ContainerInspector,
	manager ctrlclient.Client,
	workers map[string]WorkerAccess,
) *Connector {
	return &Connector{
		sandbox:   sandbox,
		inspector: inspector,
		manager:   manager,
		workers:   workers,
	}
}

// Connect wires the sandbox end to end and blocks until the admission check
// and every worker cluster report Active.
func (c *Connector) Connect(ctx context.Context) error {
	workerRefs := make([]WorkerRef, 0, len(c.sandbox.Spec.Workers))
	clusterNames := make([]string, 0, len(c.sandbox.Spec.Workers))

	for _, workerName := range c.sandbox.Spec.WorkerNames() {
		ref, err := c.generateWorkerAccess(ctx, workerName)
		if err != nil {
			return err
		}

		workerRefs = append(workerRefs, ref)
		clusterNames = append(clusterNames, workerName)
	}

	wirer := NewWirer(c.manager, c.sandbox.Spec.Kueue.Namespace, c.sandbox.Spec.Queue)

	err := wirer.WireManager(ctx, workerRefs)
	if err != nil {
		return err
	}

	for _, workerName := range c.sandbox.Spec.WorkerNames() {
		err = wirer.WireWorkerQueues(ctx, c.workers[workerName].Client)
		if err != nil {
			return fmt.Errorf("wire queues on %s: %w", workerName, err)
		}
	}

	return wirer.WaitForActive(ctx, clusterNames, c.sandbox.Spec.Connection.Timeout.Duration)
}

// generateWorkerAccess provisions dispatch access on one worker and writes
// its standalone kubeconfig under the configured kubeconfig directory.
func (c *Connector) generateWorkerAccess(
	ctx context.Context,
	workerName string,
) (WorkerRef, error) {
	access, ok := c.workers[workerName]
	if !ok {
		return WorkerRef{}, fmt.Errorf("%w: %s", ErrUnknownWorker, workerName)
	}

	generator := NewAccessGenerator(access.Clientset, c.sandbox.Spec.Kueue.Namespace)

	err := generator.EnsureAccess(ctx)
	if err != nil {
		return WorkerRef{}, fmt.Errorf("ensure access on %s: %w", workerName, err)
	}

	token, err := generator.RequestToken(ctx)
	if err != nil {
		return WorkerRef{}, fmt.Errorf("request token on %s: %w", workerName, err)
	}

	server, err := WorkerServerURL(ctx, c.inspector, c.sandbox.Spec.Distribution, workerName)
	if err != nil {
		return WorkerRef{}, err
	}

	caData, err := ClusterCAData(access.RESTConfig)
	if err != nil {
		return WorkerRef{}, fmt.Errorf("read CA for %s: %w", workerName, err)
	}

	kubeconfig, err := BuildRemoteKubeconfig(workerName, server, caData, token)
	if err != nil {
		return WorkerRef{}, err
	}

	err = c.writeWorkerKubeconfig(workerName, kubeconfig)
	if err != nil {
		return WorkerRef{}, err
	}

	return WorkerRef{Name: workerName, Kubeconfig: kubeconfig}, nil
}

func (c *Connector) writeWorkerKubeconfig(workerName string, kubeconfig []byte) error {
	dir := c.sandbox.Spec.Connection.KubeconfigDir

	err := os.MkdirAll(dir, kubeconfigDirMode)
	if err != nil {
		return fmt.Errorf("create kubeconfig directory: %w", err)
	}

	path := filepath.Join(dir, workerName+".kubeconfig")

	err = os.WriteFile(path, kubeconfig, 0o600)
	if err != nil {
		return fmt.Errorf("write kubeconfig for %s: %w", workerName, err)
	}

	return nil
}

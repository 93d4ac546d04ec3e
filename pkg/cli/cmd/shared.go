package cmd

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"k8s.io/client-go/kubernetes"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"

	v1alpha1 "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/client/docker"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/client/helm"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/configmanager"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/notify"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/timer"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/fsutil"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/k8s"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/k8s/readiness"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/installer"
	kueueinstaller "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/installer/kueue"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/multikueue"
	clusterprovisioner "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/provisioner/cluster"
)

// applyFieldManager identifies mksandbox as the server-side apply owner of
// installed manifests.
const applyFieldManager = "mksandbox"

// clusterFactoryOverride lets tests substitute the provisioner factory.
//
//nolint:gochecknoglobals // Test injection point, guarded by mutex.
var (
	clusterFactoryMu       sync.RWMutex
	clusterFactoryOverride clusterprovisioner.Factory
)

func setClusterFactoryOverride(factory clusterprovisioner.Factory) {
	clusterFactoryMu.Lock()
	defer clusterFactoryMu.Unlock()

	clusterFactoryOverride = factory
}

func clusterFactory() clusterprovisioner.Factory {
	clusterFactoryMu.RLock()
	defer clusterFactoryMu.RUnlock()

	if clusterFactoryOverride != nil {
		return clusterFactoryOverride
	}

	return clusterprovisioner.DefaultFactory{}
}

// sandboxEnv bundles the loaded configuration with the expanded kubeconfig
// path every command stage needs.
type sandboxEnv struct {
	sandbox    *v1alpha1.Sandbox
	kubeconfig string
}

func loadSandbox(cmd *cobra.Command, tmr timer.Timer) (*sandboxEnv, error) {
	cfgManager := configmanager.NewConfigManager(cmd.OutOrStdout())

	sandbox, err := cfgManager.LoadConfig(tmr)
	if err != nil {
		return nil, err
	}

	kubeconfig, err := fsutil.ExpandHomePath(sandbox.Spec.Connection.Kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to expand kubeconfig path: %w", err)
	}

	return &sandboxEnv{sandbox: sandbox, kubeconfig: kubeconfig}, nil
}

func (e *sandboxEnv) kubeContext(clusterName string) (string, error) {
	context, err := clusterprovisioner.KubeContext(e.sandbox.Spec.Distribution, clusterName)
	if err != nil {
		return "", fmt.Errorf("resolve kube context for %s: %w", clusterName, err)
	}

	return context, nil
}

func (e *sandboxEnv) newManagerClient() (ctrlclient.Client, error) {
	context, err := e.kubeContext(e.sandbox.Spec.Manager.Name)
	if err != nil {
		return nil, err
	}

	return multikueue.NewClusterClient(e.kubeconfig, context)
}

func (e *sandboxEnv) newWorkerAccess(workerName string) (multikueue.WorkerAccess, error) {
	context, err := e.kubeContext(workerName)
	if err != nil {
		return multikueue.WorkerAccess{}, err
	}

	restConfig, err := k8s.BuildRESTConfig(e.kubeconfig, context)
	if err != nil {
		return multikueue.WorkerAccess{}, fmt.Errorf("build rest config for %s: %w", workerName, err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return multikueue.WorkerAccess{}, fmt.Errorf("create clientset for %s: %w", workerName, err)
	}

	client, err := multikueue.NewClusterClient(e.kubeconfig, context)
	if err != nil {
		return multikueue.WorkerAccess{}, err
	}

	return multikueue.WorkerAccess{
		Clientset:  clientset,
		RESTConfig: restConfig,
		Client:     client,
	}, nil
}

func (e *sandboxEnv) workerAccessMap() (map[string]multikueue.WorkerAccess, error) {
	workers := make(map[string]multikueue.WorkerAccess, len(e.sandbox.Spec.Workers))

	for _, workerName := range e.sandbox.Spec.WorkerNames() {
		access, err := e.newWorkerAccess(workerName)
		if err != nil {
			return nil, err
		}

		workers[workerName] = access
	}

	return workers, nil
}

func (e *sandboxEnv) workerClientMap() (map[string]ctrlclient.Client, error) {
	workers := make(map[string]ctrlclient.Client, len(e.sandbox.Spec.Workers))

	for _, workerName := range e.sandbox.Spec.WorkerNames() {
		context, err := e.kubeContext(workerName)
		if err != nil {
			return nil, err
		}

		client, err := multikueue.NewClusterClient(e.kubeconfig, context)
		if err != nil {
			return nil, err
		}

		workers[workerName] = client
	}

	return workers, nil
}

// installKueue installs Kueue on one sandbox cluster and waits for its
// controller manager to become ready.
func (e *sandboxEnv) installKueue(cmd *cobra.Command, clusterName string) error {
	context, err := e.kubeContext(clusterName)
	if err != nil {
		return err
	}

	clientset, err := k8s.NewClientset(e.kubeconfig, context)
	if err != nil {
		return fmt.Errorf("create clientset for %s: %w", clusterName, err)
	}

	err = readiness.WaitForAPIServerReady(cmd.Context(), clientset, installer.GetInstallTimeout(e.sandbox))
	if err != nil {
		return fmt.Errorf("api server not ready on %s: %w", clusterName, err)
	}

	var (
		helmClient helm.Interface
		applier    k8s.ManifestApplier
	)

	switch e.sandbox.Spec.Kueue.InstallMode {
	case v1alpha1.InstallModeHelm:
		helmClient, err = helm.NewClient(e.kubeconfig, context)
		if err != nil {
			return fmt.Errorf("create helm client for %s: %w", clusterName, err)
		}
	case v1alpha1.InstallModeManifests:
		dynamicClient, dynErr := k8s.NewDynamicClient(e.kubeconfig, context)
		if dynErr != nil {
			return fmt.Errorf("create dynamic client for %s: %w", clusterName, dynErr)
		}

		mapper, mapErr := k8s.NewRESTMapper(e.kubeconfig, context)
		if mapErr != nil {
			return fmt.Errorf("create rest mapper for %s: %w", clusterName, mapErr)
		}

		applier = k8s.NewDynamicApplier(dynamicClient, mapper, applyFieldManager)
	default:
		return fmt.Errorf("%w: %s", v1alpha1.ErrUnsupportedInstallMode, e.sandbox.Spec.Kueue.InstallMode)
	}

	kueueInstaller := kueueinstaller.NewKueueInstaller(
		e.sandbox.Spec.Kueue,
		installer.GetInstallTimeout(e.sandbox),
		helmClient,
		applier,
		clientset,
	)

	err = kueueInstaller.Install(cmd.Context())
	if err != nil {
		return fmt.Errorf("install kueue on %s: %w", clusterName, err)
	}

	return nil
}

// runConnect wires MultiKueue between the manager and every worker and waits
// until the admission check reports Active.
func runConnect(cmd *cobra.Command, env *sandboxEnv, tmr timer.Timer) error {
	out := cmd.OutOrStdout()

	dockerClient, err := docker.GetDockerClient()
	if err != nil {
		return err
	}

	manager, err := env.newManagerClient()
	if err != nil {
		return err
	}

	workers, err := env.workerAccessMap()
	if err != nil {
		return err
	}

	notify.Activityf(out, "wiring multikueue across %d worker(s)", len(workers))

	connector := multikueue.NewConnector(env.sandbox, dockerClient, manager, workers)

	err = connector.Connect(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to connect multikueue: %w", err)
	}

	notify.SuccessWithTimerf(out, tmr, "multikueue active")

	return nil
}

// Package multikueue wires a manager cluster and its workers together
// through Kueue's MultiKueue resources: worker access kubeconfigs, the
// manager-side admission check chain, mirrored queues on every worker, and a
// dispatch verification run.
package multikueue

import (
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
	kueuev1beta1 "sigs.k8s.io/kueue/apis/kueue/v1beta1"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/k8s"
)

// NewScheme returns a runtime scheme covering the core Kubernetes types and
// the Kueue v1beta1 API.
func NewScheme() (*runtime.Scheme, error) {
	scheme := runtime.NewScheme()

	err := clientgoscheme.AddToScheme(scheme)
	if err != nil {
		return nil, fmt.Errorf("failed to register client-go scheme: %w", err)
	}

	err = kueuev1beta1.AddToScheme(scheme)
	if err != nil {
		return nil, fmt.Errorf("failed to register kueue scheme: %w", err)
	}

	return scheme, nil
}

// NewClusterClient creates a controller-runtime client for a cluster context
// with the Kueue types registered.
func NewClusterClient(kubeconfig, context string) (ctrlclient.Client, error) {
	restConfig, err := k8s.BuildRESTConfig(kubeconfig, context)
	if err != nil {
		return nil, fmt.Errorf("failed to build rest config: %w", err)
	}

	scheme, err := NewScheme()
	if err != nil {
		return nil, err
	}

	client, err := ctrlclient.New(restConfig, ctrlclient.Options{Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster client: %w", err)
	}

	return client, nil
}

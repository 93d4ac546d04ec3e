package k8s_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/k8s"
)

const kueueManifest = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: kueue-controller-manager
  namespace: kueue-system
---
apiVersion: v1
kind: Namespace
metadata:
  name: kueue-system
`

func newTestMapper() meta.RESTMapper {
	mapper := meta.NewDefaultRESTMapper(nil)
	mapper.Add(
		schema.GroupVersionKind{Version: "v1", Kind: "Namespace"},
		meta.RESTScopeRoot,
	)
	mapper.Add(
		schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"},
		meta.RESTScopeNamespace,
	)

	return mapper
}

func newTestScheme(t *testing.T) *runtime.Scheme {
	t.Helper()

	scheme := runtime.NewScheme()
	require.NoError(t, corev1.AddToScheme(scheme))
	require.NoError(t, appsv1.AddToScheme(scheme))

	return scheme
}

func TestDeleteRemovesManifestResources(t *testing.T) {
	t.Parallel()

	scheme := newTestScheme(t)
	client := dynamicfake.NewSimpleDynamicClient(scheme,
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "kueue-system"}},
		&appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{
			Name:      "kueue-controller-manager",
			Namespace: "kueue-system",
		}},
	)

	applier := k8s.NewDynamicApplier(client, newTestMapper(), "mksandbox")

	err := applier.Delete(context.Background(), strings.NewReader(kueueManifest))
	require.NoError(t, err)

	namespaceResource := schema.GroupVersionResource{Version: "v1", Resource: "namespaces"}

	_, getErr := client.Resource(namespaceResource).
		Get(context.Background(), "kueue-system", metav1.GetOptions{})
	require.True(t, apierrors.IsNotFound(getErr))
}

func TestDeleteIgnoresMissingResources(t *testing.T) {
	t.Parallel()

	client := dynamicfake.NewSimpleDynamicClient(newTestScheme(t))
	applier := k8s.NewDynamicApplier(client, newTestMapper(), "mksandbox")

	err := applier.Delete(context.Background(), strings.NewReader(kueueManifest))
	require.NoError(t, err)
}

func TestDeleteFailsOnUnknownKind(t *testing.T) {
	t.Parallel()

	manifest := "apiVersion: example.com/v1\nkind: Widget\nmetadata:\n  name: w\n"
	client := dynamicfake.NewSimpleDynamicClient(newTestScheme(t))
	applier := k8s.NewDynamicApplier(client, newTestMapper(), "mksandbox")

	err := applier.Delete(context.Background(), strings.NewReader(manifest))
	require.Error(t, err)
}

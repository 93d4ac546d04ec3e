package k8s

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	yamlutil "k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/dynamic"
)

const manifestDecodeBufferSize = 4096

// ErrEmptyManifest is returned when a manifest stream contains no resources.
var ErrEmptyManifest = errors.New("manifest contains no resources")

// ManifestApplier applies and removes multi-document YAML manifest streams.
type ManifestApplier interface {
	Apply(ctx context.Context, manifests io.Reader) error
	Delete(ctx context.Context, manifests io.Reader) error
}

// DynamicApplier applies manifests through the dynamic client using
// server-side apply, so repeated installs converge instead of conflicting.
type DynamicApplier struct {
	client       dynamic.Interface
	mapper       meta.RESTMapper
	fieldManager string
}

var _ ManifestApplier = (*DynamicApplier)(nil)

// NewDynamicApplier creates a manifest applier. The field manager identifies
// this tool as the owner of the applied fields.
func NewDynamicApplier(
	client dynamic.Interface,
	mapper meta.RESTMapper,
	fieldManager string,
) *DynamicApplier {
	return &DynamicApplier{client: client, mapper: mapper, fieldManager: fieldManager}
}

// Apply server-side applies every document in the manifest stream.
func (a *DynamicApplier) Apply(ctx context.Context, manifests io.Reader) error {
	objects, err := decodeManifests(manifests)
	if err != nil {
		return err
	}

	for _, obj := range objects {
		applyErr := a.applyObject(ctx, obj)
		if applyErr != nil {
			return applyErr
		}
	}

	return nil
}

// Delete removes every document in the manifest stream. Resources that are
// already gone are skipped.
func (a *DynamicApplier) Delete(ctx context.Context, manifests io.Reader) error {
	objects, err := decodeManifests(manifests)
	if err != nil {
		return err
	}

	// Delete in reverse so dependents go before the resources they rely on.
	for i := len(objects) - 1; i >= 0; i-- {
		obj := objects[i]

		resource, resourceErr := a.resourceFor(obj)
		if resourceErr != nil {
			return resourceErr
		}

		deleteErr := resource.Delete(ctx, obj.GetName(), metav1.DeleteOptions{})
		if deleteErr != nil && !apierrors.IsNotFound(deleteErr) {
			return fmt.Errorf(
				"delete %s %q: %w",
				obj.GetKind(), obj.GetName(), deleteErr,
			)
		}
	}

	return nil
}

func (a *DynamicApplier) applyObject(ctx context.Context, obj *unstructured.Unstructured) error {
	resource, err := a.resourceFor(obj)
	if err != nil {
		return err
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal %s %q: %w", obj.GetKind(), obj.GetName(), err)
	}

	force := true

	_, err = resource.Patch(ctx, obj.GetName(), types.ApplyPatchType, data, metav1.PatchOptions{
		FieldManager: a.fieldManager,
		Force:        &force,
	})
	if err != nil {
		return fmt.Errorf("apply %s %q: %w", obj.GetKind(), obj.GetName(), err)
	}

	return nil
}

func (a *DynamicApplier) resourceFor(
	obj *unstructured.Unstructured,
) (dynamic.ResourceInterface, error) {
	gvk := obj.GroupVersionKind()

	mapping, err := a.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return nil, fmt.Errorf("resolve resource for %s: %w", gvk, err)
	}

	if mapping.Scope.Name() == meta.RESTScopeNameNamespace {
		return a.client.Resource(mapping.Resource).Namespace(obj.GetNamespace()), nil
	}

	return a.client.Resource(mapping.Resource), nil
}

func decodeManifests(manifests io.Reader) ([]*unstructured.Unstructured, error) {
	decoder := yamlutil.NewYAMLOrJSONDecoder(manifests, manifestDecodeBufferSize)

	var objects []*unstructured.Unstructured

	for {
		obj := &unstructured.Unstructured{}

		err := decoder.Decode(obj)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("decode manifest document: %w", err)
		}

		// Blank documents between separators decode to empty objects.
		if len(obj.Object) == 0 {
			continue
		}

		objects = append(objects, obj)
	}

	if len(objects) == 0 {
		return nil, ErrEmptyManifest
	}

	return objects, nil
}

// Package v1alpha1 defines the sandbox configuration file schema.
//
// A Sandbox describes a complete MultiKueue demonstration environment: the
// manager and worker clusters, the pinned Kueue release, the queueing
// resources to create, and connection settings. The schema follows the
// Kubernetes convention of TypeMeta plus a Spec so configuration files are
// self-describing and versionable.
package v1alpha1

package k8s

import "errors"

// ErrKubeconfigPathEmpty is returned when an empty kubeconfig path is provided.
var ErrKubeconfigPathEmpty = errors.New("kubeconfig path is empty")

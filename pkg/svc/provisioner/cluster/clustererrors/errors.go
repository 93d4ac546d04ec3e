// Package clustererrors provides common error types for cluster provisioners.
//
// Sentinel errors shared across the Kind and K3d provisioner implementations
// so command handlers can treat them uniformly.
package clustererrors

import "errors"

// ErrClusterNotFound is returned when a cluster operation is attempted on a
// non-existent cluster.
var ErrClusterNotFound = errors.New("cluster not found")

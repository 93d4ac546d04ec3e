package v1alpha1

import "errors"

var (
	// ErrClusterNameInvalid is returned when a cluster name is not DNS-1123 compliant.
	ErrClusterNameInvalid = errors.New("invalid cluster name")
	// ErrClusterNameTooLong is returned when a cluster name exceeds the maximum length.
	ErrClusterNameTooLong = errors.New("cluster name too long")
	// ErrClusterNameDuplicate is returned when two sandbox clusters share a name.
	ErrClusterNameDuplicate = errors.New("duplicate cluster name")
	// ErrNoWorkers is returned when the sandbox defines no worker clusters.
	ErrNoWorkers = errors.New("at least one worker cluster is required")
	// ErrUnsupportedDistribution is returned for unknown distribution values.
	ErrUnsupportedDistribution = errors.New("unsupported distribution")
	// ErrUnsupportedInstallMode is returned for unknown Kueue install modes.
	ErrUnsupportedInstallMode = errors.New("unsupported kueue install mode")
	// ErrInvalidQuota is returned when a queue quota cannot be parsed as a quantity.
	ErrInvalidQuota = errors.New("invalid queue quota")
)

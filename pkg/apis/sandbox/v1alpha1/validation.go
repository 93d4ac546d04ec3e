package v1alpha1

import (
	"fmt"
	"regexp"

	"k8s.io/apimachinery/pkg/api/resource"
)

// clusterNameRegex matches DNS-1123 subdomain names: lowercase alphanumeric with
// optional hyphens. Cluster names end up in Docker container names and kube
// contexts, which require this shape.
var clusterNameRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

// ClusterNameMaxLength is the maximum length for a cluster name.
const ClusterNameMaxLength = 63

// ValidDistributions returns supported distribution values.
func ValidDistributions() []Distribution {
	return []Distribution{DistributionKind, DistributionK3d}
}

// ValidInstallModes returns supported Kueue install modes.
func ValidInstallModes() []InstallMode {
	return []InstallMode{InstallModeHelm, InstallModeManifests}
}

// ValidateClusterName validates that a cluster name is DNS-1123 compliant.
func ValidateClusterName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrClusterNameInvalid)
	}

	if len(name) > ClusterNameMaxLength {
		return fmt.Errorf(
			"%w: %q exceeds max %d characters (got %d)",
			ErrClusterNameTooLong, name, ClusterNameMaxLength, len(name),
		)
	}

	if !clusterNameRegex.MatchString(name) {
		return fmt.Errorf(
			"%w: %q must be DNS-1123 compliant "+
				"(lowercase letters, numbers, and hyphens; must start with a letter; "+
				"must not end with a hyphen)",
			ErrClusterNameInvalid, name,
		)
	}

	return nil
}

// Validate checks the spec for configuration errors. Defaults are expected to
// have been applied first.
func (s *Spec) Validate() error {
	err := s.validateDistribution()
	if err != nil {
		return err
	}

	err = s.validateClusterNames()
	if err != nil {
		return err
	}

	err = s.validateInstallMode()
	if err != nil {
		return err
	}

	return s.validateQuotas()
}

func (s *Spec) validateDistribution() error {
	for _, valid := range ValidDistributions() {
		if s.Distribution == valid {
			return nil
		}
	}

	return fmt.Errorf(
		"%w: %q (valid: %v)", ErrUnsupportedDistribution, s.Distribution, ValidDistributions(),
	)
}

func (s *Spec) validateClusterNames() error {
	if len(s.Workers) == 0 {
		return ErrNoWorkers
	}

	seen := make(map[string]struct{}, len(s.Workers)+1)

	for _, name := range s.ClusterNames() {
		err := ValidateClusterName(name)
		if err != nil {
			return err
		}

		_, duplicate := seen[name]
		if duplicate {
			return fmt.Errorf("%w: %q", ErrClusterNameDuplicate, name)
		}

		seen[name] = struct{}{}
	}

	return nil
}

func (s *Spec) validateInstallMode() error {
	for _, valid := range ValidInstallModes() {
		if s.Kueue.InstallMode == valid {
			return nil
		}
	}

	return fmt.Errorf(
		"%w: %q (valid: %v)", ErrUnsupportedInstallMode, s.Kueue.InstallMode, ValidInstallModes(),
	)
}

func (s *Spec) validateQuotas() error {
	quotas := map[string]string{
		"cpuQuota":    s.Queue.CPUQuota,
		"memoryQuota": s.Queue.MemoryQuota,
	}

	for field, value := range quotas {
		_, err := resource.ParseQuantity(value)
		if err != nil {
			return fmt.Errorf("%w: %s %q: %w", ErrInvalidQuota, field, value, err)
		}
	}

	return nil
}

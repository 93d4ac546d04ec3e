package kueueinstaller

import (
	"fmt"
	"strings"
)

const (
	releaseName    = "kueue"
	chartRef       = "oci://registry.k8s.io/kueue/charts/kueue"
	deploymentName = "kueue-controller-manager"

	manifestsURLTemplate = "https://github.com/kubernetes-sigs/kueue/releases/download/%s/manifests.yaml"
)

// releaseVersion normalizes a Kueue version to the v-prefixed form used by
// both the release artifacts and the OCI chart tags.
func releaseVersion(version string) string {
	return "v" + strings.TrimPrefix(version, "v")
}

// manifestsURL returns the upstream release manifest location for a version.
func manifestsURL(version string) string {
	return fmt.Sprintf(manifestsURLTemplate, releaseVersion(version))
}

package kueueinstaller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReleaseVersionAddsPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "v0.13.2", releaseVersion("0.13.2"))
	assert.Equal(t, "v0.13.2", releaseVersion("v0.13.2"))
}

func TestManifestsURL(t *testing.T) {
	t.Parallel()

	assert.Equal(
		t,
		"https://github.com/kubernetes-sigs/kueue/releases/download/v0.13.2/manifests.yaml",
		manifestsURL("0.13.2"),
	)
}

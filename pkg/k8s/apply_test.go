package k8s

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deploymentManifest = `apiVersion: apps/v1
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

func TestDecodeManifestsSplitsDocuments(t *testing.T) {
	t.Parallel()

	objects, err := decodeManifests(strings.NewReader(deploymentManifest))

	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "Deployment", objects[0].GetKind())
	assert.Equal(t, "kueue-controller-manager", objects[0].GetName())
	assert.Equal(t, "Namespace", objects[1].GetKind())
}

func TestDecodeManifestsSkipsBlankDocuments(t *testing.T) {
	t.Parallel()

	manifest := "---\n\n---\napiVersion: v1\nkind: Namespace\nmetadata:\n  name: team-a\n---\n"

	objects, err := decodeManifests(strings.NewReader(manifest))

	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "team-a", objects[0].GetName())
}

func TestDecodeManifestsEmptyStream(t *testing.T) {
	t.Parallel()

	_, err := decodeManifests(strings.NewReader("---\n"))

	require.ErrorIs(t, err, ErrEmptyManifest)
}

func TestDecodeManifestsMalformedDocument(t *testing.T) {
	t.Parallel()

	_, err := decodeManifests(strings.NewReader("{invalid"))

	require.Error(t, err)
}

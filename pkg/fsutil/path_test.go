package fsutil_test

import (
	"os/user"
	"path/filepath"
	"testing"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHomePathTilde(t *testing.T) {
	t.Parallel()

	usr, err := user.Current()
	require.NoError(t, err)

	expanded, err := fsutil.ExpandHomePath("~/.kube/config")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(usr.HomeDir, ".kube", "config"), expanded)
}

func TestExpandHomePathAbsoluteUnchanged(t *testing.T) {
	t.Parallel()

	expanded, err := fsutil.ExpandHomePath("/tmp/kubeconfig")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/kubeconfig", expanded)
}

func TestExpandHomePathRelativeBecomesAbsolute(t *testing.T) {
	t.Parallel()

	expanded, err := fsutil.ExpandHomePath("kubeconfigs/worker1.yaml")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(expanded))
}

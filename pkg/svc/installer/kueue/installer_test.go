package kueueinstaller_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/utils/ptr"

	v1alpha1 "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/client/helm"
	kueueinstaller "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/svc/installer/kueue"
)

type fakeHelmClient struct {
	installSpec    *helm.ChartSpec
	installErr     error
	uninstalled    []string
	uninstallErr   error
	uninstalledNS  string
	installInvoked bool
}

func (f *fakeHelmClient) InstallChart(
	_ context.Context, spec *helm.ChartSpec,
) (*helm.ReleaseInfo, error) {
	return f.record(spec)
}

func (f *fakeHelmClient) InstallOrUpgradeChart(
	_ context.Context, spec *helm.ChartSpec,
) (*helm.ReleaseInfo, error) {
	return f.record(spec)
}

func (f *fakeHelmClient) record(spec *helm.ChartSpec) (*helm.ReleaseInfo, error) {
	f.installInvoked = true
	f.installSpec = spec

	if f.installErr != nil {
		return nil, f.installErr
	}

	return &helm.ReleaseInfo{Name: spec.ReleaseName, Namespace: spec.Namespace}, nil
}

func (f *fakeHelmClient) UninstallRelease(_ context.Context, name, namespace string) error {
	f.uninstalled = append(f.uninstalled, name)
	f.uninstalledNS = namespace

	return f.uninstallErr
}

type fakeApplier struct {
	applied   []string
	deleted   []string
	applyErr  error
	deleteErr error
}

func (f *fakeApplier) Apply(_ context.Context, manifests io.Reader) error {
	data, _ := io.ReadAll(manifests)
	f.applied = append(f.applied, string(data))

	return f.applyErr
}

func (f *fakeApplier) Delete(_ context.Context, manifests io.Reader) error {
	data, _ := io.ReadAll(manifests)
	f.deleted = append(f.deleted, string(data))

	return f.deleteErr
}

func readyKueueClientset() kubernetes.Interface {
	return fake.NewClientset(&appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "kueue-controller-manager",
			Namespace: "kueue-system",
		},
		Spec: appsv1.DeploymentSpec{Replicas: ptr.To(int32(1))},
		Status: appsv1.DeploymentStatus{
			AvailableReplicas: 1,
			UpdatedReplicas:   1,
		},
	})
}

func kueueSpec(mode v1alpha1.InstallMode) v1alpha1.KueueSpec {
	return v1alpha1.KueueSpec{
		Version:     "0.13.2",
		Namespace:   "kueue-system",
		InstallMode: mode,
	}
}

func staticFetcher(body string) kueueinstaller.ManifestFetcher {
	return func(_ context.Context, _ string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(body)), nil
	}
}

func TestInstallViaHelmChart(t *testing.T) {
	t.Parallel()

	helmClient := &fakeHelmClient{}
	installer := kueueinstaller.NewKueueInstaller(
		kueueSpec(v1alpha1.InstallModeHelm),
		5*time.Second,
		helmClient,
		nil,
		readyKueueClientset(),
	)

	err := installer.Install(context.Background())

	require.NoError(t, err)
	require.NotNil(t, helmClient.installSpec)
	assert.Equal(t, "kueue", helmClient.installSpec.ReleaseName)
	assert.Equal(t, "oci://registry.k8s.io/kueue/charts/kueue", helmClient.installSpec.ChartName)
	assert.Equal(t, "kueue-system", helmClient.installSpec.Namespace)
	assert.Equal(t, "v0.13.2", helmClient.installSpec.Version)
	assert.True(t, helmClient.installSpec.CreateNamespace)
	assert.True(t, helmClient.installSpec.Wait)
	assert.True(t, helmClient.installSpec.UpgradeCRDs)
}

func TestInstallViaHelmChartError(t *testing.T) {
	t.Parallel()

	helmClient := &fakeHelmClient{installErr: assert.AnError}
	installer := kueueinstaller.NewKueueInstaller(
		kueueSpec(v1alpha1.InstallModeHelm),
		5*time.Second,
		helmClient,
		nil,
		readyKueueClientset(),
	)

	err := installer.Install(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to install kueue chart")
}

func TestInstallViaManifests(t *testing.T) {
	t.Parallel()

	applier := &fakeApplier{}
	installer := kueueinstaller.NewKueueInstallerWithFetcher(
		kueueSpec(v1alpha1.InstallModeManifests),
		5*time.Second,
		nil,
		applier,
		readyKueueClientset(),
		staticFetcher("apiVersion: v1\nkind: Namespace\nmetadata:\n  name: kueue-system\n"),
	)

	err := installer.Install(context.Background())

	require.NoError(t, err)
	require.Len(t, applier.applied, 1)
	assert.Contains(t, applier.applied[0], "kind: Namespace")
}

func TestInstallManifestFetchError(t *testing.T) {
	t.Parallel()

	installer := kueueinstaller.NewKueueInstallerWithFetcher(
		kueueSpec(v1alpha1.InstallModeManifests),
		5*time.Second,
		nil,
		&fakeApplier{},
		readyKueueClientset(),
		func(_ context.Context, _ string) (io.ReadCloser, error) {
			return nil, assert.AnError
		},
	)

	err := installer.Install(context.Background())

	require.ErrorIs(t, err, kueueinstaller.ErrManifestFetchFailed)
}

func TestInstallRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	installer := kueueinstaller.NewKueueInstaller(
		kueueSpec(v1alpha1.InstallMode("Kustomize")),
		time.Second,
		&fakeHelmClient{},
		&fakeApplier{},
		readyKueueClientset(),
	)

	err := installer.Install(context.Background())

	require.ErrorIs(t, err, v1alpha1.ErrUnsupportedInstallMode)
}

func TestUninstallViaHelm(t *testing.T) {
	t.Parallel()

	helmClient := &fakeHelmClient{}
	installer := kueueinstaller.NewKueueInstaller(
		kueueSpec(v1alpha1.InstallModeHelm),
		time.Second,
		helmClient,
		nil,
		readyKueueClientset(),
	)

	err := installer.Uninstall(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"kueue"}, helmClient.uninstalled)
	assert.Equal(t, "kueue-system", helmClient.uninstalledNS)
}

func TestUninstallViaManifests(t *testing.T) {
	t.Parallel()

	applier := &fakeApplier{}
	installer := kueueinstaller.NewKueueInstallerWithFetcher(
		kueueSpec(v1alpha1.InstallModeManifests),
		time.Second,
		nil,
		applier,
		readyKueueClientset(),
		staticFetcher("apiVersion: v1\nkind: Namespace\nmetadata:\n  name: kueue-system\n"),
	)

	err := installer.Uninstall(context.Background())

	require.NoError(t, err)
	require.Len(t, applier.deleted, 1)
}

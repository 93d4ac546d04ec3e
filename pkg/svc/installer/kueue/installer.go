// Package kueueinstaller installs Kueue into a sandbox cluster, either via
// the upstream Helm OCI chart or by applying the upstream release manifests.
package kueueinstaller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"k8s.io/client-go/kubernetes"

	v1alpha1 "github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/client/helm"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/k8s"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/k8s/readiness"
)

// ErrManifestFetchFailed is returned when the release manifests cannot be downloaded.
var ErrManifestFetchFailed = errors.New("failed to fetch kueue release manifests")

// ManifestFetcher retrieves a manifest stream from a URL. The caller closes
// the returned reader.
type ManifestFetcher func(ctx context.Context, url string) (io.ReadCloser, error)

// KueueInstaller installs or removes Kueue in a single cluster.
type KueueInstaller struct {
	spec       v1alpha1.KueueSpec
	timeout    time.Duration
	helmClient helm.Interface
	applier    k8s.ManifestApplier
	clientset  kubernetes.Interface
	fetch      ManifestFetcher
}

// NewKueueInstaller creates an installer for the configured install mode.
// helmClient is used in Helm mode, applier in Manifests mode; the unused one
// may be nil.
func NewKueueInstaller(
	spec v1alpha1.KueueSpec,
	timeout time.Duration,
	helmClient helm.Interface,
	applier k8s.ManifestApplier,
	clientset kubernetes.Interface,
) *KueueInstaller {
	return NewKueueInstallerWithFetcher(
		spec, timeout, helmClient, applier, clientset, fetchOverHTTP,
	)
}

// NewKueueInstallerWithFetcher creates an installer with a custom manifest
// fetcher, primarily for testing.
func NewKueueInstallerWithFetcher(
	spec v1alpha1.KueueSpec,
	timeout time.Duration,
	helmClient helm.Interface,
	applier k8s.ManifestApplier,
	clientset kubernetes.Interface,
	fetch ManifestFetcher,
) *KueueInstaller {
	return &KueueInstaller{
		spec:       spec,
		timeout:    timeout,
		helmClient: helmClient,
		applier:    applier,
		clientset:  clientset,
		fetch:      fetch,
	}
}

// Install installs Kueue and waits for its controller manager to become ready.
func (k *KueueInstaller) Install(ctx context.Context) error {
	var err error

	switch k.spec.InstallMode {
	case v1alpha1.InstallModeHelm:
		err = k.installChart(ctx)
	case v1alpha1.InstallModeManifests:
		err = k.applyManifests(ctx)
	default:
		return fmt.Errorf("%w: %s", v1alpha1.ErrUnsupportedInstallMode, k.spec.InstallMode)
	}

	if err != nil {
		return err
	}

	err = readiness.WaitForDeploymentReady(
		ctx, k.clientset, k.spec.Namespace, deploymentName, k.timeout,
	)
	if err != nil {
		return fmt.Errorf("kueue controller manager not ready: %w", err)
	}

	return nil
}

// Uninstall removes Kueue from the cluster.
func (k *KueueInstaller) Uninstall(ctx context.Context) error {
	switch k.spec.InstallMode {
	case v1alpha1.InstallModeHelm:
		err := k.helmClient.UninstallRelease(ctx, releaseName, k.spec.Namespace)
		if err != nil {
			return fmt.Errorf("failed to uninstall kueue release: %w", err)
		}

		return nil
	case v1alpha1.InstallModeManifests:
		return k.deleteManifests(ctx)
	default:
		return fmt.Errorf("%w: %s", v1alpha1.ErrUnsupportedInstallMode, k.spec.InstallMode)
	}
}

func (k *KueueInstaller) installChart(ctx context.Context) error {
	chartSpec := &helm.ChartSpec{
		ReleaseName:     releaseName,
		ChartName:       chartRef,
		Namespace:       k.spec.Namespace,
		Version:         releaseVersion(k.spec.Version),
		CreateNamespace: true,
		Wait:            true,
		UpgradeCRDs:     true,
		Timeout:         k.timeout,
	}

	// Give Helm's own wait room to finish before the outer context expires.
	installCtx, cancel := context.WithTimeout(ctx, k.timeout+time.Minute)
	defer cancel()

	_, err := k.helmClient.InstallOrUpgradeChart(installCtx, chartSpec)
	if err != nil {
		return fmt.Errorf("failed to install kueue chart: %w", err)
	}

	return nil
}

func (k *KueueInstaller) applyManifests(ctx context.Context) error {
	manifests, err := k.fetch(ctx, manifestsURL(k.spec.Version))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrManifestFetchFailed, err)
	}
	defer func() { _ = manifests.Close() }()

	applyErr := k.applier.Apply(ctx, manifests)
	if applyErr != nil {
		return fmt.Errorf("failed to apply kueue manifests: %w", applyErr)
	}

	return nil
}

func (k *KueueInstaller) deleteManifests(ctx context.Context) error {
	manifests, err := k.fetch(ctx, manifestsURL(k.spec.Version))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrManifestFetchFailed, err)
	}
	defer func() { _ = manifests.Close() }()

	deleteErr := k.applier.Delete(ctx, manifests)
	if deleteErr != nil {
		return fmt.Errorf("failed to delete kueue manifests: %w", deleteErr)
	}

	return nil
}

func fetchOverHTTP(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build manifest request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()

		return nil, fmt.Errorf("request %s: unexpected status %s", url, resp.Status) //nolint:err113 // status carries the context
	}

	return resp.Body, nil
}

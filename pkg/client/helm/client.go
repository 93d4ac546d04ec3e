// Package helm wraps the Helm v4 action API behind the small surface the
// sandbox needs: install-or-upgrade a chart (including OCI charts) and
// uninstall a release.
package helm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	helmv4action "helm.sh/helm/v4/pkg/action"
	helmv4loader "helm.sh/helm/v4/pkg/chart/loader"
	chartv2 "helm.sh/helm/v4/pkg/chart/v2"
	helmv4cli "helm.sh/helm/v4/pkg/cli"
	helmv4getter "helm.sh/helm/v4/pkg/getter"
	helmv4kube "helm.sh/helm/v4/pkg/kube"
	helmv4registry "helm.sh/helm/v4/pkg/registry"
	v1 "helm.sh/helm/v4/pkg/release/v1"
	repov1 "helm.sh/helm/v4/pkg/repo/v1"
	helmv4strvals "helm.sh/helm/v4/pkg/strvals"
	sigsyaml "sigs.k8s.io/yaml"
)

// DefaultTimeout is the fallback timeout for chart operations.
const DefaultTimeout = 5 * time.Minute

var (
	// ErrChartSpecRequired is returned when a chart operation receives a nil spec.
	ErrChartSpecRequired = errors.New("helm: chart spec is required")
	// ErrReleaseNameRequired is returned when a release operation receives an empty name.
	ErrReleaseNameRequired = errors.New("helm: release name is required")
)

// ChartSpec describes a chart to install or upgrade. ChartName accepts a
// local path, an oci:// reference, or a bare chart name combined with RepoURL.
type ChartSpec struct {
	ReleaseName string
	ChartName   string
	Namespace   string
	Version     string
	RepoURL     string

	CreateNamespace bool
	Wait            bool
	WaitForJobs     bool
	UpgradeCRDs     bool
	Timeout         time.Duration

	// ValuesYaml is a YAML document merged below SetValues.
	ValuesYaml string
	// SetValues are --set style overrides applied on top of ValuesYaml.
	SetValues map[string]string
}

// ReleaseInfo captures metadata about a Helm release after an operation.
type ReleaseInfo struct {
	Name       string
	Namespace  string
	Revision   int
	Status     string
	Chart      string
	AppVersion string
	Updated    time.Time
}

// Interface defines the Helm functionality the sandbox depends on.
type Interface interface {
	InstallChart(ctx context.Context, spec *ChartSpec) (*ReleaseInfo, error)
	InstallOrUpgradeChart(ctx context.Context, spec *ChartSpec) (*ReleaseInfo, error)
	UninstallRelease(ctx context.Context, releaseName, namespace string) error
}

// Client is the default Helm v4 backed implementation.
type Client struct {
	actionConfig *helmv4action.Configuration
	settings     *helmv4cli.EnvSettings
}

var _ Interface = (*Client)(nil)

// NewClient creates a Helm client bound to the given kubeconfig and context.
func NewClient(kubeConfig, kubeContext string) (*Client, error) {
	settings := helmv4cli.New()
	if kubeConfig != "" {
		settings.KubeConfig = kubeConfig
	}

	if kubeContext != "" {
		settings.KubeContext = kubeContext
	}

	actionConfig := new(helmv4action.Configuration)

	initErr := actionConfig.Init(
		settings.RESTClientGetter(),
		settings.Namespace(),
		os.Getenv("HELM_DRIVER"),
	)
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize helm action config: %w", initErr)
	}

	registryClient, registryErr := helmv4registry.NewClient()
	if registryErr != nil {
		return nil, fmt.Errorf("failed to create helm registry client: %w", registryErr)
	}

	actionConfig.RegistryClient = registryClient

	return &Client{actionConfig: actionConfig, settings: settings}, nil
}

// InstallChart installs a Helm chart using the provided specification.
func (c *Client) InstallChart(ctx context.Context, spec *ChartSpec) (*ReleaseInfo, error) {
	return c.installRelease(ctx, spec, false)
}

// InstallOrUpgradeChart upgrades a release when it exists and installs it otherwise.
func (c *Client) InstallOrUpgradeChart(
	ctx context.Context,
	spec *ChartSpec,
) (*ReleaseInfo, error) {
	return c.installRelease(ctx, spec, true)
}

// UninstallRelease removes a Helm release by name within the provided namespace.
func (c *Client) UninstallRelease(ctx context.Context, releaseName, namespace string) error {
	if releaseName == "" {
		return ErrReleaseNameRequired
	}

	ctxErr := ctx.Err()
	if ctxErr != nil {
		return fmt.Errorf("uninstall release context cancelled: %w", ctxErr)
	}

	cleanup, err := c.switchNamespace(namespace)
	if err != nil {
		return err
	}
	defer cleanup()

	client := helmv4action.NewUninstall(c.actionConfig)
	client.KeepHistory = false

	_, uninstallErr := client.Run(releaseName)
	if uninstallErr != nil {
		return fmt.Errorf("uninstall release %q: %w", releaseName, uninstallErr)
	}

	return nil
}

func (c *Client) installRelease(
	ctx context.Context,
	spec *ChartSpec,
	upgrade bool,
) (*ReleaseInfo, error) {
	err := validateChartSpec(ctx, spec)
	if err != nil {
		return nil, err
	}

	cleanup, err := c.switchNamespace(spec.Namespace)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var rel *v1.Release

	if upgrade && c.releaseExists(spec.ReleaseName) {
		rel, err = c.upgradeRelease(ctx, spec)
	} else {
		rel, err = c.performInstall(ctx, spec)
	}

	if err != nil {
		return nil, err
	}

	return releaseToInfo(rel), nil
}

func validateChartSpec(ctx context.Context, spec *ChartSpec) error {
	if spec == nil {
		return ErrChartSpecRequired
	}

	if spec.ReleaseName == "" {
		return ErrReleaseNameRequired
	}

	ctxErr := ctx.Err()
	if ctxErr != nil {
		return fmt.Errorf("chart operation context cancelled: %w", ctxErr)
	}

	return nil
}

func (c *Client) releaseExists(releaseName string) bool {
	histClient := helmv4action.NewHistory(c.actionConfig)
	histClient.Max = 1

	releases, err := histClient.Run(releaseName)

	return err == nil && len(releases) > 0
}

func (c *Client) performInstall(ctx context.Context, spec *ChartSpec) (*v1.Release, error) {
	client := helmv4action.NewInstall(c.actionConfig)
	client.ReleaseName = spec.ReleaseName
	client.Namespace = spec.Namespace
	client.CreateNamespace = spec.CreateNamespace
	client.WaitForJobs = spec.WaitForJobs
	client.Version = spec.Version
	client.ChartPathOptions.RepoURL = spec.RepoURL

	if spec.Wait {
		client.WaitStrategy = helmv4kube.StatusWatcherStrategy
	}

	client.Timeout = spec.Timeout
	if client.Timeout == 0 {
		client.Timeout = DefaultTimeout
	}

	chart, err := c.locateAndLoadChart(spec)
	if err != nil {
		return nil, err
	}

	vals, err := mergeValues(spec)
	if err != nil {
		return nil, err
	}

	releaser, err := client.RunWithContext(ctx, chart, vals)
	if err != nil {
		return nil, fmt.Errorf("install chart %q: %w", spec.ChartName, err)
	}

	return assertRelease(releaser)
}

func (c *Client) upgradeRelease(ctx context.Context, spec *ChartSpec) (*v1.Release, error) {
	client := helmv4action.NewUpgrade(c.actionConfig)
	client.Namespace = spec.Namespace
	client.WaitForJobs = spec.WaitForJobs
	client.Version = spec.Version
	client.ChartPathOptions.RepoURL = spec.RepoURL
	// SkipCRDs is the inverted flag in the v4 upgrade action.
	client.SkipCRDs = !spec.UpgradeCRDs

	if spec.Wait {
		client.WaitStrategy = helmv4kube.StatusWatcherStrategy
	}

	client.Timeout = spec.Timeout
	if client.Timeout == 0 {
		client.Timeout = DefaultTimeout
	}

	chart, err := c.locateAndLoadChart(spec)
	if err != nil {
		return nil, err
	}

	vals, err := mergeValues(spec)
	if err != nil {
		return nil, err
	}

	releaser, err := client.RunWithContext(ctx, spec.ReleaseName, chart, vals)
	if err != nil {
		return nil, fmt.Errorf("upgrade release %q: %w", spec.ReleaseName, err)
	}

	return assertRelease(releaser)
}

func (c *Client) locateAndLoadChart(spec *ChartSpec) (*chartv2.Chart, error) {
	chartPath := spec.ChartName

	if spec.RepoURL != "" {
		options := []repov1.FindChartInRepoURLOption{
			repov1.WithChartVersion(spec.Version),
		}

		chartURL, err := repov1.FindChartInRepoURL(
			spec.RepoURL,
			spec.ChartName,
			helmv4getter.All(c.settings),
			options...,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to locate chart %q in repository %s: %w",
				spec.ChartName, spec.RepoURL, err,
			)
		}

		chartPath = chartURL
	}

	chartInterface, err := helmv4loader.Load(chartPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart %q: %w", chartPath, err)
	}

	chart, ok := chartInterface.(*chartv2.Chart)
	if !ok {
		return nil, fmt.Errorf("unexpected chart type: %T", chartInterface)
	}

	return chart, nil
}

func mergeValues(spec *ChartSpec) (map[string]any, error) {
	base := map[string]any{}

	if spec.ValuesYaml != "" {
		unmarshalErr := sigsyaml.Unmarshal([]byte(spec.ValuesYaml), &base)
		if unmarshalErr != nil {
			return nil, fmt.Errorf("failed to parse chart values: %w", unmarshalErr)
		}
	}

	for key, val := range spec.SetValues {
		parseErr := helmv4strvals.ParseInto(fmt.Sprintf("%s=%s", key, val), base)
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse set value %s=%s: %w", key, val, parseErr)
		}
	}

	return base, nil
}

func (c *Client) switchNamespace(namespace string) (func(), error) {
	if namespace == "" || c.settings.Namespace() == namespace {
		return func() {}, nil
	}

	previousNamespace := c.settings.Namespace()
	c.settings.SetNamespace(namespace)

	reinitErr := c.actionConfig.Init(
		c.settings.RESTClientGetter(),
		namespace,
		os.Getenv("HELM_DRIVER"),
	)
	if reinitErr != nil {
		c.settings.SetNamespace(previousNamespace)

		return nil, fmt.Errorf("failed to set helm namespace %q: %w", namespace, reinitErr)
	}

	return func() {
		c.settings.SetNamespace(previousNamespace)
		_ = c.actionConfig.Init(
			c.settings.RESTClientGetter(),
			previousNamespace,
			os.Getenv("HELM_DRIVER"),
		)
	}, nil
}

func assertRelease(releaser any) (*v1.Release, error) {
	rel, ok := releaser.(*v1.Release)
	if !ok {
		return nil, fmt.Errorf("unexpected release type: %T", releaser)
	}

	return rel, nil
}

func releaseToInfo(rel *v1.Release) *ReleaseInfo {
	if rel == nil {
		return nil
	}

	return &ReleaseInfo{
		Name:       rel.Name,
		Namespace:  rel.Namespace,
		Revision:   rel.Version,
		Status:     rel.Info.Status.String(),
		Chart:      rel.Chart.Metadata.Name,
		AppVersion: rel.Chart.Metadata.AppVersion,
		Updated:    rel.Info.LastDeployed,
	}
}

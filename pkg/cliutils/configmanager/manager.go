// Package configmanager loads the declarative sandbox configuration from
// mksandbox.yaml, environment variables and command flags.
//
// Configuration priority: defaults < config file < environment < flags.
package configmanager

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/notify"
	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/cliutils/timer"
)

const (
	// ConfigFileName is the sandbox configuration file looked up in the
	// working directory.
	ConfigFileName = "mksandbox.yaml"
	// EnvPrefix is the prefix for environment variable overrides, e.g.
	// MKSANDBOX_SPEC_DISTRIBUTION=K3d.
	EnvPrefix = "MKSANDBOX"

	configName = "mksandbox"
	configType = "yaml"
)

// ConfigManager reads, defaults and validates Sandbox configurations.
type ConfigManager struct {
	// Viper is the underlying viper instance, exposed for flag binding.
	Viper *viper.Viper
	// Config holds the loaded configuration after LoadConfig.
	Config *v1alpha1.Sandbox
	// Writer receives load notifications.
	Writer io.Writer

	configLoaded    bool
	configFileFound bool
}

// NewConfigManager creates a configuration manager with viper initialized
// for file discovery and environment overrides.
func NewConfigManager(writer io.Writer) *ConfigManager {
	return &ConfigManager{
		Viper:  initializeViper(),
		Config: v1alpha1.NewSandbox(),
		Writer: writer,
	}
}

func initializeViper() *viper.Viper {
	viperInstance := viper.New()
	viperInstance.SetConfigName(configName)
	viperInstance.SetConfigType(configType)
	viperInstance.AddConfigPath(".")
	viperInstance.SetEnvPrefix(EnvPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	registerDefaults(viperInstance)

	return viperInstance
}

// registerDefaults seeds viper with every scalar configuration key so that
// environment overrides are picked up even without a config file.
func registerDefaults(viperInstance *viper.Viper) {
	viperInstance.SetDefault("apiVersion", v1alpha1.APIVersion)
	viperInstance.SetDefault("kind", v1alpha1.Kind)
	viperInstance.SetDefault("spec.distribution", string(v1alpha1.DistributionKind))
	viperInstance.SetDefault("spec.manager.name", v1alpha1.DefaultManagerName)
	viperInstance.SetDefault("spec.kueue.version", v1alpha1.DefaultKueueVersion)
	viperInstance.SetDefault("spec.kueue.namespace", v1alpha1.DefaultKueueNamespace)
	viperInstance.SetDefault("spec.kueue.installMode", string(v1alpha1.InstallModeHelm))
	viperInstance.SetDefault("spec.queue.namespace", v1alpha1.DefaultQueueNamespace)
	viperInstance.SetDefault("spec.queue.clusterQueue", v1alpha1.DefaultClusterQueue)
	viperInstance.SetDefault("spec.queue.localQueue", v1alpha1.DefaultLocalQueue)
	viperInstance.SetDefault("spec.queue.resourceFlavor", v1alpha1.DefaultResourceFlavor)
	viperInstance.SetDefault("spec.queue.cpuQuota", v1alpha1.DefaultCPUQuota)
	viperInstance.SetDefault("spec.queue.memoryQuota", v1alpha1.DefaultMemoryQuota)
	viperInstance.SetDefault("spec.connection.kubeconfig", v1alpha1.DefaultKubeconfigPath)
	viperInstance.SetDefault("spec.connection.kubeconfigDir", v1alpha1.DefaultKubeconfigDir)
	viperInstance.SetDefault("spec.connection.timeout", v1alpha1.DefaultTimeout.String())
}

// BindFlag maps a configuration key to a command flag so that the flag value
// overrides the file and environment values.
func (m *ConfigManager) BindFlag(key string, flag *pflag.Flag) error {
	err := m.Viper.BindPFlag(key, flag)
	if err != nil {
		return fmt.Errorf("failed to bind flag %q: %w", flag.Name, err)
	}

	return nil
}

// LoadConfig loads the configuration from file, environment and bound flags.
// Returns the loaded config, either freshly loaded or previously cached.
// If timer is provided, timing information is included in the success
// notification.
func (m *ConfigManager) LoadConfig(tmr timer.Timer) (*v1alpha1.Sandbox, error) {
	return m.loadConfigWithOptions(tmr, false)
}

// LoadConfigSilent loads the configuration without emitting notifications.
func (m *ConfigManager) LoadConfigSilent() (*v1alpha1.Sandbox, error) {
	return m.loadConfigWithOptions(nil, true)
}

func (m *ConfigManager) loadConfigWithOptions(
	tmr timer.Timer,
	silent bool,
) (*v1alpha1.Sandbox, error) {
	if m.configLoaded {
		if !silent {
			notify.Successf(m.Writer, "config already loaded, reusing existing config")
		}

		return m.Config, nil
	}

	err := m.readConfig(silent)
	if err != nil {
		return nil, err
	}

	err = m.unmarshalAndApplyDefaults()
	if err != nil {
		return nil, err
	}

	err = m.Config.Spec.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if !silent {
		notify.SuccessWithTimerf(m.Writer, tmr, "config loaded")
	}

	m.configLoaded = true

	return m.Config, nil
}

func (m *ConfigManager) readConfig(silent bool) error {
	err := m.Viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config file: %w", err)
		}

		m.configFileFound = false
		if !silent {
			notify.Activityf(m.Writer, "using default config")
		}
	} else {
		m.configFileFound = true
		if !silent {
			notify.Activityf(m.Writer, "'%s' found", m.Viper.ConfigFileUsed())
		}
	}

	return nil
}

func (m *ConfigManager) unmarshalAndApplyDefaults() error {
	decoderConfig := func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			metav1DurationDecodeHook(),
		)
	}

	// Start from a clean slate so config-file values are not mixed with the
	// constructor defaults, then re-default whatever the file left unset.
	if m.configFileFound {
		m.Config.Spec = v1alpha1.Spec{}
	}

	err := m.Viper.Unmarshal(m.Config, decoderConfig)
	if err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	m.Config.Spec.SetDefaults()

	return nil
}

// metav1DurationDecodeHook decodes duration strings such as "5m" into
// metav1.Duration fields.
func metav1DurationDecodeHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, target reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || target != reflect.TypeOf(metav1.Duration{}) {
			return data, nil
		}

		raw, _ := data.(string)
		if raw == "" {
			return metav1.Duration{}, nil
		}

		duration, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse duration %q: %w", raw, err)
		}

		return metav1.Duration{Duration: duration}, nil
	}
}

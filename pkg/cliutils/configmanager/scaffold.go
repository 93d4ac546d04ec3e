package configmanager

import (
	"errors"
	"fmt"
	"os"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/k8s-sandbox-labs/multikueue-sandbox/pkg/apis/sandbox/v1alpha1"
)

const configFilePerm = 0o600

// ErrConfigExists is returned when scaffolding would overwrite an existing
// config file without force.
var ErrConfigExists = errors.New("config file already exists")

// Scaffold writes a fully defaulted Sandbox configuration to path. An
// existing file is preserved unless force is set.
func Scaffold(path string, force bool) error {
	if !force {
		_, err := os.Stat(path)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}

		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	sandbox := v1alpha1.NewSandbox()

	data, err := sigsyaml.Marshal(sandbox)
	if err != nil {
		return fmt.Errorf("failed to marshal sandbox config: %w", err)
	}

	err = os.WriteFile(path, data, configFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

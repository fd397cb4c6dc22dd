package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ferrous-lang/ferrous/internal/lower"
)

// Config is the lowering configuration loaded from ferrous.yaml.
type Config struct {
	// MinimalRuntime selects self-contained emission: no third-party
	// target crates, tagged-value arithmetic preferred.
	MinimalRuntime bool `yaml:"minimal_runtime"`

	// Backends selects stub vs. library emission per stdlib namespace.
	// Unset namespaces follow the runtime mode.
	Backends lower.Backends `yaml:"backends"`

	// Database is an optional SQLite path; when set, decision records
	// persist there after each lowering.
	Database string `yaml:"database"`
}

// DefaultConfig returns the configuration implied by the full runtime mode.
func DefaultConfig() Config {
	return Config{Backends: lower.DefaultBackends(false)}
}

// LoadConfig reads a YAML configuration file. A missing path yields the
// defaults; a present but unreadable or malformed file is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyMode()
	return cfg, nil
}

// applyMode fills unset backend selections from the runtime mode.
func (c *Config) applyMode() {
	defaults := lower.DefaultBackends(c.MinimalRuntime)
	if c.Backends.Regex == "" {
		c.Backends.Regex = defaults.Regex
	}
	if c.Backends.Codec == "" {
		c.Backends.Codec = defaults.Codec
	}
	if c.Backends.JSON == "" {
		c.Backends.JSON = defaults.JSON
	}
	if c.Backends.Random == "" {
		c.Backends.Random = defaults.Random
	}
	if c.Backends.Time == "" {
		c.Backends.Time = defaults.Time
	}
}

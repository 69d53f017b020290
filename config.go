package reactor

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golobby/cast"
	"gopkg.in/yaml.v3"
)

// EnvironmentConfig holds the tunables that shape an Environment at
// construction time: how long a shutdown instant may take to drain,
// and where the assembled dependency graph should be exported. It is
// normally loaded from a YAML file and then overridden field-by-field
// from environment variables, mirroring how ambient configuration is
// layered elsewhere in this ecosystem.
type EnvironmentConfig struct {
	Name                string        `yaml:"name"`
	ShutdownTimeout     time.Duration `yaml:"shutdown_timeout"`
	DependencyGraphPath string        `yaml:"dependency_graph_path"`
	LogLevel            string        `yaml:"log_level"`
}

// DefaultEnvironmentConfig returns the configuration used when no file
// or overrides are supplied.
func DefaultEnvironmentConfig() EnvironmentConfig {
	return EnvironmentConfig{
		Name:            "reactor",
		ShutdownTimeout: 5 * time.Second,
		LogLevel:        "info",
	}
}

// LoadEnvironmentConfig reads a YAML file at path into a
// DefaultEnvironmentConfig, then applies environment-variable overrides
// with ApplyEnvOverrides. A missing file is not an error: the defaults,
// plus any overrides, are returned as-is.
func LoadEnvironmentConfig(path string) (EnvironmentConfig, error) {
	cfg := DefaultEnvironmentConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := ApplyEnvOverrides(&cfg, "REACTOR"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnvOverrides reads the environment variables <prefix>_NAME,
// <prefix>_LOG_LEVEL, <prefix>_DEPENDENCY_GRAPH_PATH and
// <prefix>_SHUTDOWN_TIMEOUT and, when set and non-empty, writes them onto
// the matching field of cfg. The timeout accepts Go duration syntax
// (REACTOR_SHUTDOWN_TIMEOUT=10s) or, coerced with golobby/cast, a bare
// integer count of milliseconds.
func ApplyEnvOverrides(cfg *EnvironmentConfig, prefix string) error {
	if v, ok := lookupEnv(prefix, "NAME"); ok {
		cfg.Name = v
	}
	if v, ok := lookupEnv(prefix, "LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := lookupEnv(prefix, "DEPENDENCY_GRAPH_PATH"); ok {
		cfg.DependencyGraphPath = v
	}
	if v, ok := lookupEnv(prefix, "SHUTDOWN_TIMEOUT"); ok {
		d, err := castDuration(v)
		if err != nil {
			return fmt.Errorf("%s_SHUTDOWN_TIMEOUT: %w", prefix, err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

func lookupEnv(prefix, field string) (string, bool) {
	key := strings.ToUpper(prefix) + "_" + field
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func castDuration(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	parsed, err := cast.FromString(v, cast.Int64)
	if err != nil {
		return 0, fmt.Errorf("not a duration or integer millisecond count: %w", err)
	}
	return time.Duration(parsed.(int64)) * time.Millisecond, nil
}

package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/vectra-ai-research/halberd/internal/types"
)

// ConfigLoader handles loading configuration from files.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// viperConfigLoader implements ConfigLoader using Viper.
type viperConfigLoader struct {
	validator ConfigValidator
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader(validator ConfigValidator) ConfigLoader {
	return &viperConfigLoader{
		validator: validator,
	}
}

// Load loads configuration from the specified file path. Returns an
// error if the file doesn't exist or cannot be parsed.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to unmarshal config", err)
	}

	interpolatePaths(&cfg)

	if err := l.validator.Validate(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_VALIDATION_FAILED, "configuration validation failed", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := l.validator.Validate(cfg); err != nil {
			return nil, types.WrapError(types.CONFIG_VALIDATION_FAILED, "default configuration validation failed", err)
		}
		return cfg, nil
	}

	return l.Load(path)
}

// interpolatePaths applies ${VAR} environment interpolation to every
// string field that names a filesystem location.
func interpolatePaths(cfg *Config) {
	cfg.Core.HomeDir = interpolateString(cfg.Core.HomeDir)
	cfg.Playbooks.Dir = interpolateString(cfg.Playbooks.Dir)
	cfg.Playbooks.ExportDir = interpolateString(cfg.Playbooks.ExportDir)
	cfg.Reports.OutputDir = interpolateString(cfg.Reports.OutputDir)
	cfg.Schedules.Path = interpolateString(cfg.Schedules.Path)
	cfg.Database.Path = interpolateString(cfg.Database.Path)
	cfg.Logging.Level = interpolateString(cfg.Logging.Level)
	cfg.Logging.Format = interpolateString(cfg.Logging.Format)
}

// interpolateString replaces ${VAR_NAME} with environment variable values.
func interpolateString(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if envValue := os.Getenv(varName); envValue != "" {
			return envValue
		}
		// Unknown variables are left as written.
		return match
	})
}

// Package config defines the Halberd configuration model and its
// loading and validation pipeline.
package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Core      CoreConfig      `yaml:"core" mapstructure:"core"`
	Playbooks PlaybooksConfig `yaml:"playbooks" mapstructure:"playbooks"`
	Reports   ReportsConfig   `yaml:"reports" mapstructure:"reports"`
	Schedules SchedulesConfig `yaml:"schedules" mapstructure:"schedules"`
	Database  DBConfig        `yaml:"database" mapstructure:"database"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// CoreConfig holds core application settings.
type CoreConfig struct {
	// HomeDir is the Halberd home directory; every other path defaults
	// to a location under it.
	HomeDir string `yaml:"home_dir" mapstructure:"home_dir" validate:"required"`

	// Debug enables verbose diagnostics.
	Debug bool `yaml:"debug" mapstructure:"debug"`
}

// PlaybooksConfig holds playbook storage settings.
type PlaybooksConfig struct {
	// Dir is where playbook files live.
	Dir string `yaml:"dir" mapstructure:"dir" validate:"required"`

	// ExportDir is where masked and full playbook exports are written.
	ExportDir string `yaml:"export_dir" mapstructure:"export_dir" validate:"required"`
}

// ReportsConfig holds execution artifact settings.
type ReportsConfig struct {
	// OutputDir is where per-run report folders are created.
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir" validate:"required"`
}

// SchedulesConfig holds scheduler settings.
type SchedulesConfig struct {
	// Path is the schedules file.
	Path string `yaml:"path" mapstructure:"path" validate:"required"`

	// PollInterval is the evaluator's polling granularity.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval" validate:"required,min=1s,max=1h"`
}

// DBConfig holds run-history database settings.
type DBConfig struct {
	// Path is the SQLite database file.
	Path string `yaml:"path" mapstructure:"path" validate:"required"`

	// MaxConnections bounds the connection pool.
	MaxConnections int `yaml:"max_connections" mapstructure:"max_connections" validate:"min=1,max=100"`

	// BusyTimeout is how long SQLite waits on a locked database.
	BusyTimeout time.Duration `yaml:"busy_timeout" mapstructure:"busy_timeout" validate:"required,min=1s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"required,oneof=json text"`
}

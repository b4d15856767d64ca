package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	homeDir := getDefaultHomeDir()

	return &Config{
		Core: CoreConfig{
			HomeDir: homeDir,
			Debug:   false,
		},
		Playbooks: PlaybooksConfig{
			Dir:       filepath.Join(homeDir, "playbooks"),
			ExportDir: filepath.Join(homeDir, "exports"),
		},
		Reports: ReportsConfig{
			OutputDir: filepath.Join(homeDir, "outputs"),
		},
		Schedules: SchedulesConfig{
			Path:         filepath.Join(homeDir, "Schedules.yml"),
			PollInterval: time.Minute,
		},
		Database: DBConfig{
			Path:           filepath.Join(homeDir, "halberd.db"),
			MaxConnections: 10,
			BusyTimeout:    5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(getDefaultHomeDir(), "config.yaml")
}

// getDefaultHomeDir returns the default Halberd home directory,
// falling back to a temporary directory if user home cannot be
// determined.
func getDefaultHomeDir() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".halberd")
	}
	return filepath.Join(userHome, ".halberd")
}

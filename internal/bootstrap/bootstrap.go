// Package bootstrap initializes a Halberd home directory: the folder
// layout, a default configuration file, and the run-history database.
// Initialization is idempotent; rerunning it on an existing home is a
// no-op apart from filling in whatever is missing.
package bootstrap

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vectra-ai-research/halberd/internal/config"
	"github.com/vectra-ai-research/halberd/internal/database"
	"github.com/vectra-ai-research/halberd/internal/types"
)

// Options configures the initialization process.
type Options struct {
	// HomeDir is the root directory for the Halberd installation. If
	// empty, the configured default is used.
	HomeDir string

	// Force rewrites the config file even if it already exists.
	Force bool
}

// Result reports what initialization actually did.
type Result struct {
	HomeDir         string
	DirsCreated     []string
	ConfigCreated   bool
	DatabaseCreated bool
	Warnings        []string
}

// Initializer sets up a Halberd home directory.
type Initializer struct {
	loader   config.ConfigLoader
	dbOpener func(path string) (*database.DB, error)
}

// NewInitializer creates an Initializer with standard dependencies.
func NewInitializer() *Initializer {
	return &Initializer{
		loader:   config.NewConfigLoader(config.NewValidator()),
		dbOpener: database.Open,
	}
}

// Initialize creates the home directory layout, configuration file,
// and database schema.
func (i *Initializer) Initialize(ctx context.Context, opts Options) (*Result, error) {
	homeDir := opts.HomeDir
	if homeDir == "" {
		homeDir = config.DefaultConfig().Core.HomeDir
	}
	result := &Result{HomeDir: homeDir}

	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return nil, types.WrapError(types.INIT_DIRS_FAILED,
			"failed to create home directory "+homeDir, err)
	}

	dirCfg := DefaultDirectories(homeDir)
	missing, err := MissingDirectories(dirCfg)
	if err != nil {
		return nil, err
	}
	if err := CreateDirectories(dirCfg); err != nil {
		return nil, err
	}
	result.DirsCreated = missing

	cfg, err := i.initializeConfig(homeDir, result, opts.Force)
	if err != nil {
		return nil, err
	}

	if err := i.initializeDatabase(cfg.Database.Path, result); err != nil {
		return nil, err
	}

	return result, nil
}

// initializeConfig writes the default config file scoped to homeDir,
// or loads the existing one.
func (i *Initializer) initializeConfig(homeDir string, result *Result, force bool) (*config.Config, error) {
	configPath := filepath.Join(homeDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil && !force {
		cfg, err := i.loader.Load(configPath)
		if err != nil {
			return nil, types.WrapError(types.INIT_CONFIG_FAILED,
				"existing config is invalid: "+configPath, err)
		}
		return cfg, nil
	}

	cfg := homedConfig(homeDir)
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, types.WrapError(types.INIT_CONFIG_FAILED, "failed to encode config", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return nil, types.WrapError(types.INIT_CONFIG_FAILED,
			"failed to write config file "+configPath, err)
	}

	result.ConfigCreated = true
	return cfg, nil
}

// initializeDatabase opens the database and applies the schema.
func (i *Initializer) initializeDatabase(dbPath string, result *Result) error {
	existed := false
	if _, err := os.Stat(dbPath); err == nil {
		existed = true
	}

	db, err := i.dbOpener(dbPath)
	if err != nil {
		return types.WrapError(types.INIT_DB_FAILED, "failed to open database "+dbPath, err)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		return types.WrapError(types.INIT_DB_FAILED, "failed to initialize database schema", err)
	}

	result.DatabaseCreated = !existed
	return nil
}

// Validate checks an existing home directory, returning human-readable
// problem descriptions. An empty slice means the setup is usable.
func (i *Initializer) Validate(ctx context.Context, homeDir string) ([]string, error) {
	var problems []string

	if _, err := os.Stat(homeDir); os.IsNotExist(err) {
		return []string{"home directory does not exist: " + homeDir}, nil
	}

	missing, err := MissingDirectories(DefaultDirectories(homeDir))
	if err != nil {
		return nil, err
	}
	for _, dir := range missing {
		problems = append(problems, "missing directory: "+dir)
	}

	configPath := filepath.Join(homeDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		problems = append(problems, "missing config file: "+configPath)
	} else if _, err := i.loader.Load(configPath); err != nil {
		problems = append(problems, "invalid config file: "+err.Error())
	}

	return problems, nil
}

// homedConfig returns the default config with every path rebased onto
// the given home directory.
func homedConfig(homeDir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Core.HomeDir = homeDir
	cfg.Playbooks.Dir = filepath.Join(homeDir, "playbooks")
	cfg.Playbooks.ExportDir = filepath.Join(homeDir, "exports")
	cfg.Reports.OutputDir = filepath.Join(homeDir, "outputs")
	cfg.Schedules.Path = filepath.Join(homeDir, "Schedules.yml")
	cfg.Database.Path = filepath.Join(homeDir, "halberd.db")
	return cfg
}

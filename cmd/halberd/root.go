package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vectra-ai-research/halberd/cmd/halberd/internal"
	"github.com/vectra-ai-research/halberd/internal/attack"
	"github.com/vectra-ai-research/halberd/internal/config"
	"github.com/vectra-ai-research/halberd/internal/database"
	"github.com/vectra-ai-research/halberd/internal/engine"
	"github.com/vectra-ai-research/halberd/internal/playbook"
	"github.com/vectra-ai-research/halberd/internal/report"
	"github.com/vectra-ai-research/halberd/internal/schedule"
	"github.com/vectra-ai-research/halberd/internal/technique"
)

var rootCmd = &cobra.Command{
	Use:   "halberd",
	Short: "Halberd - Multi-Cloud Attack Emulation",
	Long: `Halberd executes attack technique playbooks against cloud
environments (Entra ID, Azure, AWS, M365, GCP) for security testing.

Playbooks are ordered sequences of techniques with parameters and
inter-step delays; every run leaves a durable execution report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(playbookCmd)
	rootCmd.AddCommand(techniqueCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
}

// app bundles the wired application components behind a command.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *technique.Registry
	playbooks *playbook.Store
	schedules *schedule.Store
	tracker   *report.Tracker
	db        *database.DB
	history   *database.HistoryStore
	engine    *engine.Engine
}

// newApp loads configuration and wires every component a command may
// need. The caller must Close the returned app.
func newApp(cmd *cobra.Command) (*app, error) {
	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return nil, internal.WrapError(internal.ExitError, "invalid flags", err)
	}

	configFile := flags.ConfigFile
	if configFile == "" {
		if home := resolveHomeDir(flags); home != "" {
			configFile = home + "/config.yaml"
		} else {
			configFile = config.DefaultConfigPath()
		}
	}

	loader := config.NewConfigLoader(config.NewValidator())
	cfg, err := loader.LoadWithDefaults(configFile)
	if err != nil {
		return nil, err
	}

	logger := config.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if flags.IsQuiet() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}

	registry := technique.NewRegistry()
	if err := attack.RegisterAll(registry); err != nil {
		return nil, internal.WrapError(internal.ExitError, "failed to register techniques", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, err
	}
	history := database.NewHistoryStore(db)

	return &app{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		playbooks: playbook.NewStore(cfg.Playbooks.Dir, cfg.Playbooks.ExportDir, logger),
		schedules: schedule.NewStore(cfg.Schedules.Path),
		tracker:   report.NewTracker(cfg.Reports.OutputDir),
		db:        db,
		history:   history,
		engine: engine.New(registry, cfg.Reports.OutputDir,
			engine.WithLogger(logger), engine.WithHistory(history)),
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

// resolveHomeDir picks the home directory from flags or environment.
func resolveHomeDir(flags *GlobalFlags) string {
	if flags.HomeDir != "" {
		return flags.HomeDir
	}
	return os.Getenv("HALBERD_HOME")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stride/internal/config"
	"stride/internal/logger"
	"stride/internal/report"
	"stride/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// app holds everything a command needs once configuration is loaded
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	backend  *backend
	runs     *service.RunService
	query    *service.QueryService
	rewards  *service.RewardsService
	renderer *report.Renderer
}

var (
	ownerFlag   string
	backendFlag string
)

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "stride",
		Short:         "Run log with period statistics, personal records and achievements",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["skipSetup"] == "true" {
				return nil
			}
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ownerFlag, "owner", "", "owner id (default from config)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "store backend: sqlite, rest or mongo (default from config)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newAddCmd(a))
	rootCmd.AddCommand(newImportTrackCmd(a))
	rootCmd.AddCommand(newDeleteCmd(a))
	rootCmd.AddCommand(newRunsCmd(a))
	rootCmd.AddCommand(newStatsCmd(a))
	rootCmd.AddCommand(newTrendCmd(a))
	rootCmd.AddCommand(newRecordsCmd(a))
	rootCmd.AddCommand(newAchievementsCmd(a))
	rootCmd.AddCommand(newNotificationsCmd(a))
	rootCmd.AddCommand(newReadCmd(a))
	rootCmd.AddCommand(newEvaluateCmd(a))

	return rootCmd
}

func (a *app) setup(ctx context.Context) error {
	// Load configuration; a missing file still yields defaults and env overrides
	cfg, err := config.Load()
	if err != nil && !errors.Is(err, config.ErrNoConfig) {
		return fmt.Errorf("loading config: %w", err)
	}
	if ownerFlag != "" {
		cfg.Owner = ownerFlag
	}
	if backendFlag != "" {
		cfg.Store.Backend = backendFlag
	}

	// Validate config
	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		return fmt.Errorf("config validation failed: %w (edit %s/config.json or run `stride config`)", err, configDir)
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}

	// Create services
	a.cfg = cfg
	a.log = log
	a.backend = b
	a.rewards = service.NewRewardsService(b.store, b.store, log)
	a.runs = service.NewRunService(b.store, a.rewards, log)
	a.query = service.NewQueryService(b.store)
	a.renderer = report.NewRenderer(report.NewUnits(cfg.Display), time.Now)
	return nil
}

func (a *app) close() error {
	if a.log != nil {
		a.log.Sync()
	}
	if a.backend == nil {
		return nil
	}
	return a.backend.Close()
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "config",
		Short:       "Create an example config file if none exists",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipSetup": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.CreateExample(); err != nil {
				return fmt.Errorf("creating example config: %w", err)
			}
			configDir, _ := config.GetConfigDir()
			fmt.Fprintf(cmd.OutOrStdout(), "Config file:\n  %s/config.json\n", configDir)
			return nil
		},
	}
}

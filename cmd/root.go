// Package cmd implements the complaint-priority command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	infralogger "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug forces debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "complaint-priority",
		Short: "Complaint priority classification service",
		Long: `Trains a TF-IDF and Naive Bayes model on labeled complaints and serves
priority predictions over HTTP.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
)

// Execute runs the root command. With no subcommand it starts the server.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $CONFIG_PATH or ./config.yml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		serveCommand(),
		trainCommand(),
		predictCommand(),
		statsCommand(),
		checkCommand(),
		versionCommand(),
	)
}

// loadDeps loads configuration and builds a logger. CLI commands other
// than serve log to the console.
func loadDeps(console bool) (*config.Config, infralogger.Logger, error) {
	cfg, err := bootstrap.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if debug {
		cfg.Service.Debug = true
		cfg.Logging.Level = "debug"
	}
	if console {
		cfg.Logging.Format = infralogger.FormatConsole
	}
	log, err := bootstrap.CreateLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

// withApp runs fn against a fully wired app and releases it afterwards.
func withApp(ctx context.Context, fn func(*bootstrap.App) error) error {
	cfg, log, err := loadDeps(true)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	app, err := bootstrap.NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

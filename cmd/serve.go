package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/complaint-priority/internal/bootstrap"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  `Load the saved model, training it first when no model file exists, and serve the HTTP API.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, log, err := loadDeps(false)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	return bootstrap.RunServer(ctx, cfg, log)
}

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/complaint-priority/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/service"
)

func predictCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "predict <text>",
		Short: "Predict the priority of a complaint",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				if _, err := app.Service.Initialize(cmd.Context()); err != nil {
					return err
				}
				pred, err := app.Service.Predict(cmd.Context(), service.PredictRequest{
					Text: strings.Join(args, " "),
				})
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(pred, "", "  ")
				if err != nil {
					return fmt.Errorf("encode prediction: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/complaint-priority/internal/bootstrap"
)

func trainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train the model and print the evaluation report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				res, err := app.Service.Retrain(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Training samples: %d\n", res.Report.TrainSize)
				fmt.Fprintf(out, "Test samples:     %d\n", res.Report.TestSize)
				fmt.Fprintf(out, "Features:         %d\n\n", res.Report.NumFeatures)
				fmt.Fprintf(out, "Accuracy: %.4f\n\n", res.Report.Accuracy)
				fmt.Fprint(out, res.Report.String())
				fmt.Fprintf(out, "\nModel saved to %s\n", app.Config.Model.Path)
				return nil
			})
		},
	}
}

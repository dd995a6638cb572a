package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/complaint-priority/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/complaint-priority/internal/domain"
)

func statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print dataset statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(app *bootstrap.App) error {
				if _, err := app.Service.Initialize(cmd.Context()); err != nil {
					return err
				}
				stats, err := app.Service.Stats(cmd.Context())
				if err != nil {
					return err
				}
				renderStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
}

// renderStats prints the label distribution, largest class first.
func renderStats(w io.Writer, stats domain.DatasetStats) {
	labels := make([]string, 0, len(stats.PriorityDistribution))
	for l := range stats.PriorityDistribution {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		ci, cj := stats.PriorityDistribution[labels[i]], stats.PriorityDistribution[labels[j]]
		if ci != cj {
			return ci > cj
		}
		return labels[i] < labels[j]
	})

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(stats.ModelType)
	t.SetCaption(fmt.Sprintf("%d samples across %d classes", stats.TotalSamples, len(stats.Classes)))
	t.AppendHeader(table.Row{"Priority", "Samples", "Share"})
	for _, l := range labels {
		n := stats.PriorityDistribution[l]
		share := 0.0
		if stats.TotalSamples > 0 {
			share = 100 * float64(n) / float64(stats.TotalSamples)
		}
		t.AppendRow(table.Row{l, n, fmt.Sprintf("%.1f%%", share)})
	}
	t.AppendFooter(table.Row{"Total", stats.TotalSamples, ""})
	t.Render()
}

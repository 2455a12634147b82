package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cmlabs-hris/hris-performance-go/internal/bootstrap"
	"github.com/spf13/cobra"
)

var predictCmd = &cobra.Command{
	Use:   "predict <employee-id>...",
	Short: "Assign employees to a cluster with the stored model",
	Long: `Predict uses the most recently trained model. It never trains;
run "perfctl fit" first when no model exists.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := dateRange()
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			items, err := app.Performance.BatchPredict(ctx, args, period)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(stdout(cmd), items)
			}
			w := stdout(cmd)
			for _, item := range items {
				if item.Error != "" {
					fmt.Fprintf(w, "%-38s error: %s\n", item.EmployeeID, item.Error)
					continue
				}
				fmt.Fprintf(w, "%-38s %-20s score %6.2f\n", item.EmployeeID, item.Result.ClusterLabel, item.Result.PerformanceScore)
			}
			return nil
		})
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <employee-id>",
	Short: "Show strengths, weaknesses and recommendations for an employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := dateRange()
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			resp, err := app.Performance.Explain(ctx, args[0], period)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(stdout(cmd), resp)
			}
			w := stdout(cmd)
			fmt.Fprintf(w, "%s: %s (score %.2f)\n", resp.EmployeeID, resp.ClusterLabel, resp.PerformanceScore)
			writeList(w, "Strengths", resp.Strengths)
			writeList(w, "Areas for improvement", resp.AreasForImprovement)
			writeList(w, "Insights", resp.Insights)
			writeList(w, "Recommendations", resp.Recommendations)
			return nil
		})
	},
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func init() {
	rootCmd.AddCommand(predictCmd, explainCmd)
}

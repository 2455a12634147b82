package commands

import (
	"context"

	"github.com/cmlabs-hris/hris-performance-go/internal/bootstrap"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	performanceService "github.com/cmlabs-hris/hris-performance-go/internal/service/performance"
	"github.com/spf13/cobra"
)

var (
	fitClusters  int
	fitEmployees []string
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Train the model and cluster employees",
	Long: `Fit extracts features for the given employees (all active workers when
--employee is omitted), trains K-Means and stores the snapshot.

Example:
  perfctl fit --clusters 4 --from 2024-01-01 --to 2024-03-31
  perfctl fit --employee e-1 --employee e-2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := dateRange()
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			resp, err := app.Performance.FitAndCluster(ctx, performance.FitParams{
				EmployeeIDs: fitEmployees,
				Range:       period,
				NClusters:   resolveClusters(fitClusters, app.Config),
			})
			if err != nil {
				return err
			}
			return printClustering(cmd, resp)
		})
	},
}

func printClustering(cmd *cobra.Command, resp *performance.ClusteringResponse) error {
	if asJSON {
		return printJSON(stdout(cmd), resp)
	}
	return performanceService.WriteSummary(stdout(cmd), resp)
}

func init() {
	clustersFlag(fitCmd, &fitClusters)
	fitCmd.Flags().StringSliceVarP(&fitEmployees, "employee", "e", nil, "employee id to include (repeatable)")
	rootCmd.AddCommand(fitCmd)
}

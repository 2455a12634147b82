package commands

import (
	"context"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/bootstrap"
	"github.com/spf13/cobra"
)

var periodicClusters int

var monthlyCmd = &cobra.Command{
	Use:   "monthly <year> <month>",
	Short: "Fit over one calendar month",
	Example: `  perfctl monthly 2024 1
  perfctl monthly 2024 12 --clusters 4`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, month, err := parsePeriodArgs(args, 12)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			resp, err := app.Performance.MonthlyAnalysis(ctx, year, time.Month(month), resolveClusters(periodicClusters, app.Config))
			if err != nil {
				return err
			}
			return printClustering(cmd, resp)
		})
	},
}

var quarterlyCmd = &cobra.Command{
	Use:     "quarterly <year> <quarter>",
	Short:   "Fit over one calendar quarter",
	Example: `  perfctl quarterly 2024 2`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, quarter, err := parsePeriodArgs(args, 4)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			resp, err := app.Performance.QuarterlyAnalysis(ctx, year, quarter, resolveClusters(periodicClusters, app.Config))
			if err != nil {
				return err
			}
			return printClustering(cmd, resp)
		})
	},
}

// parsePeriodArgs parses "<year> <n>" with 1 <= n <= maxPeriod.
func parsePeriodArgs(args []string, maxPeriod int) (int, int, error) {
	year, err := strconv.Atoi(args[0])
	if err != nil || year < 1970 || year > 9999 {
		return 0, 0, errorf("invalid year %q", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 || n > maxPeriod {
		return 0, 0, errorf("invalid period %q: must be between 1 and %d", args[1], maxPeriod)
	}
	return year, n, nil
}

func init() {
	clustersFlag(monthlyCmd, &periodicClusters)
	clustersFlag(quarterlyCmd, &periodicClusters)
	rootCmd.AddCommand(monthlyCmd, quarterlyCmd)
}

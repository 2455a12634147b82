package commands

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-performance-go/internal/bootstrap"
	"github.com/spf13/cobra"
)

var resetClusters int

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete a stored model",
	Long: `Reset deletes the snapshot trained with --clusters. When it was the most
recently trained model, predict and explain report that no model exists until
the next fit.`,
	Example: `  perfctl reset --clusters 4`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			k := resolveClusters(resetClusters, app.Config)
			if err := app.Performance.ResetModel(ctx, k); err != nil {
				return err
			}
			if asJSON {
				return printJSON(stdout(cmd), map[string]int{"n_clusters": k})
			}
			_, err := fmt.Fprintf(stdout(cmd), "model with %d clusters reset\n", k)
			return err
		})
	},
}

func init() {
	clustersFlag(resetCmd, &resetClusters)
	rootCmd.AddCommand(resetCmd)
}

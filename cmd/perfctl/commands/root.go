package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/hris-performance-go/internal/bootstrap"
	"github.com/cmlabs-hris/hris-performance-go/internal/config"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile  string
	dateFrom string
	dateTo   string
	asJSON   bool
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "perfctl",
	Short: "Employee performance clustering from the command line",
	Long: `perfctl runs the performance clustering engine against the HRIS database.

Examples:
  perfctl fit --clusters 4 --from 2024-01-01 --to 2024-03-31
  perfctl monthly 2024 1
  perfctl quarterly 2024 2 --clusters 3
  perfctl predict <employee-id>
  perfctl explain <employee-id> --json
  perfctl reset --clusters 4`,
	SilenceUsage: true,
}

// Execute runs the root command; an interrupt cancels a running fit.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment from this file before reading config")
	rootCmd.PersistentFlags().StringVar(&dateFrom, "from", "", "start date (YYYY-MM-DD), open when empty")
	rootCmd.PersistentFlags().StringVar(&dateTo, "to", "", "end date (YYYY-MM-DD), open when empty")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// withApp loads config, wires the services and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	if envFile != "" {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if verbose {
		cfg.App.LogLevel = "debug"
	}
	bootstrap.SetupLogger(cfg.App)

	ctx := cmd.Context()
	app, err := bootstrap.New(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app)
}

func dateRange() (performance.DateRange, error) {
	r, err := performance.ParseDateRange(dateFrom, dateTo)
	if err != nil {
		return r, err
	}
	return r, r.Validate()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func stdout(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

func clustersFlag(cmd *cobra.Command, target *int) {
	cmd.Flags().IntVarP(target, "clusters", "k", 0, "number of clusters (default from DEFAULT_CLUSTERS)")
}

func resolveClusters(k int, cfg *config.Config) int {
	if k > 0 {
		return k
	}
	return cfg.Analytics.DefaultClusters
}

func errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/bootstrap"
	"github.com/cmlabs-hris/hris-performance-go/internal/config"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	appHTTP "github.com/cmlabs-hris/hris-performance-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/cron"
	performanceService "github.com/cmlabs-hris/hris-performance-go/internal/service/performance"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	bootstrap.SetupLogger(cfg.App)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, stop, cfg)
	stop()
	if err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is done. Everything it opens is closed before it returns.
func run(ctx context.Context, stop context.CancelFunc, cfg *config.Config) (err error) {
	app, err := bootstrap.New(ctx, cfg, true)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close application: %w", cerr))
		}
	}()

	if cfg.Scheduler.FitOnStartup {
		fitOnStartup(ctx, app.Performance, cfg.Analytics.DefaultClusters)
	}

	scheduler, err := startScheduler(app, cfg)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer scheduler.Stop()
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			AllowedOrigins:   cfg.App.AllowedOrigins,
			Env:              cfg.App.Env,
			Version:          version,
			MetricsPath:      metricsPath,
			RetrainPerMinute: cfg.RateLimit.RetrainPerMinute,
			RetrainBurst:     cfg.RateLimit.Burst,
		},
		app.JWT,
		appHTTP.NewPerformanceHandler(app.Performance, cfg.Analytics.DefaultClusters),
		appHTTP.NewAnalyticsHandler(app.Analytics, app.Performance),
		appHTTP.NewHealthHandler(app.DB, app.Performance),
		app.Metrics,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// fits can run up to the configured timeout
		WriteTimeout: cfg.Analytics.FitTimeout + 30*time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", "http://localhost"+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
		close(serveErr)
	}()

	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	if err := <-serveErr; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// startScheduler registers the retrain job and starts the scheduler. It
// returns nil when scheduling is disabled.
func startScheduler(app *bootstrap.App, cfg *config.Config) (*cron.Scheduler, error) {
	if !cfg.Scheduler.Enabled {
		return nil, nil
	}
	scheduler := cron.NewScheduler(app.Location)
	jobs := cron.NewPerformanceJobs(app.Performance, cfg.Analytics.DefaultClusters)
	if err := jobs.RegisterJobs(scheduler, cfg.Scheduler.RetrainCron); err != nil {
		return nil, fmt.Errorf("failed to register cron jobs: %w", err)
	}
	scheduler.Start()
	return scheduler, nil
}

// fitOnStartup trains the default model over all history so predictions work
// immediately. Failures are logged; the server still starts.
func fitOnStartup(ctx context.Context, svc performance.PerformanceService, k int) {
	resp, err := svc.FitAndCluster(ctx, performance.FitParams{NClusters: k})
	if err != nil {
		slog.Warn("Startup clustering skipped", "error", err)
		return
	}

	var summary strings.Builder
	if err := performanceService.WriteSummary(&summary, resp); err != nil {
		slog.Warn("Failed to render clustering summary", "error", err)
		return
	}
	slog.Info("Startup clustering complete", "snapshot_id", resp.SnapshotID, "summary", summary.String())
}

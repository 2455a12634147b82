// Package bootstrap wires configuration, storage and services into the
// object graph shared by the API server and the perfctl CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/config"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/analytics"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/kmeans"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/redis"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/storage"
	"github.com/cmlabs-hris/hris-performance-go/internal/repository/blob"
	"github.com/cmlabs-hris/hris-performance-go/internal/repository/postgresql"
	analyticsService "github.com/cmlabs-hris/hris-performance-go/internal/service/analytics"
	performanceService "github.com/cmlabs-hris/hris-performance-go/internal/service/performance"
)

type App struct {
	Config      *config.Config
	DB          *database.DB
	Metrics     *metrics.Metrics
	Cache       *redis.Client
	Store       storage.BlobStorage
	JWT         jwt.Service
	Performance performance.PerformanceService
	Analytics   analytics.AnalyticsService
	Location    *time.Location
}

// SetupLogger installs the default slog logger at the configured level.
func SetupLogger(cfg config.AppConfig) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler).With(slog.String("app", "hris-performance")))
}

// New connects to every backing service. On error, whatever was opened is closed.
func New(ctx context.Context, cfg *config.Config, collectProcessMetrics bool) (_ *App, err error) {
	app := &App{Config: cfg, JWT: jwt.NewJWTService(cfg.JWT.Secret)}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	if app.Location, err = time.LoadLocation(cfg.Analytics.Timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	if cfg.Metrics.Enabled {
		app.Metrics = metrics.New(collectProcessMetrics)
	}

	app.DB, err = database.NewPostgreSQLDB(cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: int32(cfg.Database.MaxConns),
		MinConns: int32(cfg.Database.MinConns),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	app.Cache, err = redis.New(ctx, redis.Options{
		Enabled:  cfg.Redis.Enabled,
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   "hris-performance",
		TTL:      cfg.Redis.TTL,
	})
	if err != nil {
		return nil, err
	}

	if app.Store, err = newBlobStorage(cfg.Storage); err != nil {
		return nil, err
	}

	snapshots, err := blob.NewSnapshotRepository(app.Store, app.Metrics)
	if err != nil {
		return nil, err
	}

	rules := performanceService.DefaultRules()
	if cfg.Analytics.RulesFile != "" {
		if rules, err = performanceService.LoadRules(cfg.Analytics.RulesFile); err != nil {
			return nil, err
		}
		slog.Info("Loaded insight rules", "path", cfg.Analytics.RulesFile, "rules", len(rules.Rules))
	}

	extractor, err := performanceService.NewFeatureExtractor(performanceService.ExtractorOptions{
		PunctualityThreshold: cfg.Analytics.PunctualityThreshold,
		PunctualityGrace:     cfg.Analytics.PunctualityGrace,
		TargetDailyHours:     cfg.Analytics.TargetDailyHours,
		Location:             app.Location,
	})
	if err != nil {
		return nil, err
	}

	employeeRepo := postgresql.NewEmployeeRepository(app.DB)
	attendanceRepo := postgresql.NewAttendanceRepository(app.DB)

	builder := performanceService.NewDatasetBuilder(
		employeeRepo,
		attendanceRepo,
		extractor,
		cfg.Analytics.ExtractionConcurrency,
		cfg.Analytics.WorkerRole,
	)
	scorer := performanceService.Scorer{TargetDailyHours: cfg.Analytics.TargetDailyHours}

	app.Performance = performanceService.NewPerformanceService(
		builder,
		snapshots,
		performanceService.NewModelCache(snapshots, app.Metrics),
		performanceService.NewInsightGenerator(rules, cfg.Analytics.TargetDailyHours),
		scorer,
		app.Metrics,
		performanceService.Options{
			DefaultClusters: cfg.Analytics.DefaultClusters,
			KMeans: kmeans.Config{
				NInit:      cfg.Analytics.NInit,
				MaxIter:    cfg.Analytics.MaxIterations,
				Tolerance:  cfg.Analytics.Tolerance,
				Seed:       cfg.Analytics.Seed,
				MaxRetries: cfg.Analytics.MaxFitRetries,
			},
			FitTimeout: cfg.Analytics.FitTimeout,
		},
	)

	app.Analytics = analyticsService.NewAnalyticsService(
		employeeRepo,
		attendanceRepo,
		postgresql.NewTransactor(app.DB),
		app.Cache,
		cfg.Analytics.WorkerRole,
	)

	return app, nil
}

func newBlobStorage(cfg config.StorageConfig) (storage.BlobStorage, error) {
	switch cfg.Type {
	case "local":
		s, err := storage.NewLocalStorage(cfg.BasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		return s, nil
	case "bolt":
		s, err := storage.NewBoltStorage(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt storage: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// Close releases every opened resource.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.DB != nil {
		a.DB.Close()
	}
	return errors.Join(errs...)
}

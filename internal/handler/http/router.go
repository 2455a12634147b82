package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-performance-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AllowedOrigins   []string
	Env              string
	Version          string
	MetricsPath      string // empty disables /metrics
	RetrainPerMinute int
	RetrainBurst     int
}

func NewRouter(
	cfg RouterConfig,
	JWTService jwt.Service,
	performanceHandler PerformanceHandler,
	analyticsHandler AnalyticsHandler,
	healthHandler *HealthHandler,
	m *metrics.Metrics,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-performance"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(m.Instrument)
	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Get("/health", healthHandler.Health)
	if cfg.MetricsPath != "" && m != nil {
		r.Handle(cfg.MetricsPath, m.Handler())
	}

	retrainLimiter := middleware.NewRateLimiter(cfg.RetrainPerMinute, cfg.RetrainBurst)

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService))

			r.Route("/ml", func(r chi.Router) {
				r.Route("/clustering", func(r chi.Router) {
					r.Get("/model-info", performanceHandler.ModelInfo)
					r.Get("/user/{user_id}/predict", performanceHandler.Predict)

					// Manager only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireManager)
						r.Post("/batch-predict", performanceHandler.BatchPredict)
						r.With(middleware.RequirePermission(user.PermissionPerformanceRetrain)).
							Delete("/model", performanceHandler.ResetModel)

						// Retraining is expensive
						r.Group(func(r chi.Router) {
							r.Use(retrainLimiter.Handler)
							r.Post("/analyze", performanceHandler.Analyze)
							r.Get("/quick-analysis", performanceHandler.QuickAnalysis)
							r.Post("/monthly", performanceHandler.MonthlyAnalysis)
							r.Post("/quarterly", performanceHandler.QuarterlyAnalysis)
						})
					})
				})

				r.Route("/performance/{user_id}", func(r chi.Router) {
					r.Get("/metrics", performanceHandler.Metrics)
					r.Get("/insights", performanceHandler.Insights)
				})
			})

			r.Route("/analytics", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionAnalyticsView))
				r.Get("/overview", analyticsHandler.Overview)
				r.Get("/team/performance", analyticsHandler.TeamPerformance)
				r.Get("/productivity/ranking", analyticsHandler.ProductivityRanking)
				r.Get("/trends/daily", analyticsHandler.DailyTrends)
			})
		})
	})
	return r
}

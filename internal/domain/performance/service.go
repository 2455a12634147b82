package performance

import (
	"context"
	"time"
)

// PerformanceService is the entry point of the analytics engine used by the
// HTTP layer, the CLI and scheduled jobs.
type PerformanceService interface {
	// FitAndCluster retrains the model for params.NClusters over the employees'
	// features and returns every assignment. The snapshot is replaced wholesale.
	FitAndCluster(ctx context.Context, params FitParams) (*ClusteringResponse, error)

	// MonthlyAnalysis fits over one calendar month.
	MonthlyAnalysis(ctx context.Context, year int, month time.Month, nClusters int) (*ClusteringResponse, error)

	// QuarterlyAnalysis fits over quarter 1..4 of a year.
	QuarterlyAnalysis(ctx context.Context, year, quarter, nClusters int) (*ClusteringResponse, error)

	// ResetModel deletes the snapshot trained with nClusters. When it was the
	// current model, predict-only operations report ErrModelNotFound until the
	// next fit.
	ResetModel(ctx context.Context, nClusters int) error

	// PredictOne assigns an employee using the most recently trained snapshot.
	PredictOne(ctx context.Context, employeeID string, period DateRange) (*ClusterAssignment, error)

	// BatchPredict predicts every employee; per-employee failures are reported inline.
	BatchPredict(ctx context.Context, employeeIDs []string, period DateRange) ([]BatchPredictItem, error)

	// Explain derives strengths, weaknesses and recommendations for an employee.
	Explain(ctx context.Context, employeeID string, period DateRange) (*InsightsResponse, error)

	// Metrics returns the raw feature vector without touching the model.
	Metrics(ctx context.Context, employeeID string, period DateRange) (*MetricsResponse, error)

	// ModelInfo describes the most recently trained snapshot.
	ModelInfo(ctx context.Context) (*ModelInfoResponse, error)

	// TeamPerformance lists active workers' features sorted by productivity.
	TeamPerformance(ctx context.Context, period DateRange) ([]TeamMemberPerformance, error)

	// ProductivityRanking returns the top limit workers by productivity with ranks.
	ProductivityRanking(ctx context.Context, period DateRange, limit int) ([]TeamMemberPerformance, error)
}

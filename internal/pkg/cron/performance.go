package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
)

type PerformanceJobs struct {
	service   performance.PerformanceService
	nClusters int
	now       func() time.Time
}

func NewPerformanceJobs(service performance.PerformanceService, nClusters int) *PerformanceJobs {
	return &PerformanceJobs{
		service:   service,
		nClusters: nClusters,
		now:       time.Now,
	}
}

func (j *PerformanceJobs) RegisterJobs(scheduler *Scheduler, retrainSpec string) error {
	return scheduler.AddJob("monthly_performance_retrain", retrainSpec, j.RetrainPreviousMonth)
}

// RetrainPreviousMonth refits the default model over the last complete calendar month.
func (j *PerformanceJobs) RetrainPreviousMonth(ctx context.Context) error {
	now := j.now()
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)

	slog.Info("Cron: retraining performance model", "year", prev.Year(), "month", prev.Month().String(), "clusters", j.nClusters)

	resp, err := j.service.MonthlyAnalysis(ctx, prev.Year(), prev.Month(), j.nClusters)
	if err != nil {
		return err
	}

	slog.Info("Cron: performance model retrained",
		"snapshot_id", resp.SnapshotID,
		"employees", resp.TotalUsers,
		"skipped", len(resp.Skipped),
		"silhouette", resp.ModelAccuracy,
	)
	return nil
}

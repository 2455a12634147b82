package analytics

import (
	"context"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
)

type AnalyticsService interface {
	Overview(ctx context.Context, period performance.DateRange) (*OverviewResponse, error)
	DailyTrends(ctx context.Context, period performance.DateRange) (*DailyTrendsResponse, error)
}

package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/analytics"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/redis"
)

const dateLayout = "2006-01-02"

// Transactor runs fn inside a read-only transaction so that several
// aggregate queries observe the same snapshot.
type Transactor interface {
	WithinReadTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AnalyticsServiceImpl struct {
	employees   employee.EmployeeRepository
	attendances attendance.AttendanceRepository
	tx          Transactor
	cache       *redis.Client
	workerRole  string
}

func NewAnalyticsService(
	employees employee.EmployeeRepository,
	attendances attendance.AttendanceRepository,
	tx Transactor,
	cache *redis.Client,
	workerRole string,
) analytics.AnalyticsService {
	return &AnalyticsServiceImpl{
		employees:   employees,
		attendances: attendances,
		tx:          tx,
		cache:       cache,
		workerRole:  workerRole,
	}
}

// Overview implements analytics.AnalyticsService.
func (s *AnalyticsServiceImpl) Overview(ctx context.Context, period performance.DateRange) (*analytics.OverviewResponse, error) {
	if err := period.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", performance.ErrInvalidConfiguration, err)
	}

	return redis.GetOrSet(ctx, s.cache, cacheKey("overview", period), func(ctx context.Context) (*analytics.OverviewResponse, error) {
		resp := &analytics.OverviewResponse{Period: period.Period()}
		var minutes int64

		err := s.tx.WithinReadTx(ctx, func(ctx context.Context) error {
			var err error
			if resp.TotalUsers, err = s.employees.CountActive(ctx, s.workerRole); err != nil {
				return err
			}
			if resp.TotalAttendances, resp.ActiveUsers, err = s.attendances.CountApproved(ctx, period.From, period.To); err != nil {
				return err
			}
			minutes, err = s.attendances.SumApprovedWorkMinutes(ctx, period.From, period.To)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build overview: %w", err)
		}

		resp.TotalWorkHours = round2(float64(minutes) / 60)
		if resp.TotalAttendances > 0 {
			resp.AverageHoursPerEntry = round2(resp.TotalWorkHours / float64(resp.TotalAttendances))
		}
		return resp, nil
	})
}

// DailyTrends implements analytics.AnalyticsService.
func (s *AnalyticsServiceImpl) DailyTrends(ctx context.Context, period performance.DateRange) (*analytics.DailyTrendsResponse, error) {
	if err := period.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", performance.ErrInvalidConfiguration, err)
	}

	return redis.GetOrSet(ctx, s.cache, cacheKey("trends", period), func(ctx context.Context) (*analytics.DailyTrendsResponse, error) {
		totals, err := s.attendances.DailyTotals(ctx, period.From, period.To)
		if err != nil {
			return nil, fmt.Errorf("failed to load daily totals: %w", err)
		}

		items := make([]analytics.DailyTrendItem, 0, len(totals))
		var sumUsers, sumHours float64
		for _, d := range totals {
			hours := float64(d.WorkMinutes) / 60
			item := analytics.DailyTrendItem{
				Date:          d.Date.Format(dateLayout),
				TotalHours:    round2(hours),
				OvertimeHours: round2(float64(d.OvertimeMinutes) / 60),
				UniqueUsers:   d.UniqueEmployees,
			}
			if d.UniqueEmployees > 0 {
				item.AverageHoursPerUser = round2(hours / float64(d.UniqueEmployees))
			}
			sumUsers += float64(d.UniqueEmployees)
			sumHours += hours
			items = append(items, item)
		}

		summary := analytics.TrendSummary{TotalDays: len(items)}
		if len(items) > 0 {
			summary.AverageDailyUsers = round2(sumUsers / float64(len(items)))
			summary.AverageDailyHours = round2(sumHours / float64(len(items)))
		}

		return &analytics.DailyTrendsResponse{
			DailyTrends: items,
			Summary:     summary,
			Period:      period.Period(),
		}, nil
	})
}

func cacheKey(kind string, period performance.DateRange) string {
	p := period.Period()
	return fmt.Sprintf("analytics:%s:%s:%s", kind, p.DateFrom, p.DateTo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package analytics

import "github.com/cmlabs-hris/hris-performance-go/internal/domain/performance"

// ========== OVERVIEW ==========

// OverviewResponse summarizes approved attendance for a window
type OverviewResponse struct {
	TotalUsers           int64              `json:"total_users"`
	ActiveUsers          int64              `json:"active_users"` // workers with at least one approved record
	TotalAttendances     int64              `json:"total_attendances"`
	TotalWorkHours       float64            `json:"total_work_hours"`
	AverageHoursPerEntry float64            `json:"average_hours_per_attendance"`
	Period               performance.Period `json:"period"`
}

// ========== DAILY TRENDS ==========

// DailyTrendItem is one bar of the daily trends chart
type DailyTrendItem struct {
	Date                string  `json:"date"` // Format: "YYYY-MM-DD"
	TotalHours          float64 `json:"total_hours"`
	OvertimeHours       float64 `json:"overtime_hours"`
	UniqueUsers         int64   `json:"unique_users"`
	AverageHoursPerUser float64 `json:"average_hours_per_user"`
}

// TrendSummary aggregates the daily items
type TrendSummary struct {
	TotalDays         int     `json:"total_days"`
	AverageDailyUsers float64 `json:"average_daily_users"`
	AverageDailyHours float64 `json:"average_daily_hours"`
}

// DailyTrendsResponse is the response for GET /analytics/trends/daily
type DailyTrendsResponse struct {
	DailyTrends []DailyTrendItem   `json:"daily_trends"`
	Summary     TrendSummary       `json:"summary"`
	Period      performance.Period `json:"period"`
}

package attendance

import (
	"context"
	"time"
)

// AttendanceRepository is the read side of the attendance record store used by
// analytics. A nil bound means the range is open on that side.
type AttendanceRepository interface {
	// ListApprovedByEmployee returns approved records of one employee with
	// from <= date <= to, ordered by date.
	ListApprovedByEmployee(ctx context.Context, employeeID string, from, to *time.Time) ([]Attendance, error)

	// CountApproved returns the number of approved records and distinct employees
	// with at least one approved record in range.
	CountApproved(ctx context.Context, from, to *time.Time) (records int64, employees int64, err error)

	// SumApprovedWorkMinutes returns the total worked minutes of approved records in range.
	SumApprovedWorkMinutes(ctx context.Context, from, to *time.Time) (int64, error)

	// DailyTotals returns per-date aggregates of approved records in range, ordered by date.
	DailyTotals(ctx context.Context, from, to *time.Time) ([]DailyTotal, error)
}

package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/database"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

// approvedInRange filters approved records with optional bounds $1 (from) and $2 (to).
const approvedInRange = `
	a.status = 'approved'
	AND ($1::date IS NULL OR a.date >= $1::date)
	AND ($2::date IS NULL OR a.date <= $2::date)`

// ListApprovedByEmployee implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListApprovedByEmployee(ctx context.Context, employeeID string, from, to *time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT a.id, a.employee_id, a.date, a.clock_in, a.clock_out,
			   a.work_hours_in_minutes, a.overtime_minutes, COALESCE(a.work_description, ''),
			   a.status, a.approved_at, a.created_at, a.updated_at
		FROM attendances a
		WHERE ` + approvedInRange + ` AND a.employee_id = $3
		ORDER BY a.date ASC, a.clock_in ASC
	`

	rows, err := q.Query(ctx, query, from, to, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance for employee %s: %w", employeeID, err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		var a attendance.Attendance
		err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.Date, &a.ClockIn, &a.ClockOut,
			&a.WorkHoursInMinutes, &a.OvertimeMinutes, &a.WorkDescription,
			&a.Status, &a.ApprovedAt, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, a)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// CountApproved implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) CountApproved(ctx context.Context, from, to *time.Time) (int64, int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COUNT(*), COUNT(DISTINCT a.employee_id)
		FROM attendances a
		WHERE ` + approvedInRange

	var records, employees int64
	if err := q.QueryRow(ctx, query, from, to).Scan(&records, &employees); err != nil {
		return 0, 0, fmt.Errorf("failed to count attendances: %w", err)
	}
	return records, employees, nil
}

// SumApprovedWorkMinutes implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) SumApprovedWorkMinutes(ctx context.Context, from, to *time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(a.work_hours_in_minutes), 0)
		FROM attendances a
		WHERE ` + approvedInRange

	var total int64
	if err := q.QueryRow(ctx, query, from, to).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum work minutes: %w", err)
	}
	return total, nil
}

// DailyTotals implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) DailyTotals(ctx context.Context, from, to *time.Time) ([]attendance.DailyTotal, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT a.date,
			   COALESCE(SUM(a.work_hours_in_minutes), 0),
			   COALESCE(SUM(a.overtime_minutes), 0),
			   COUNT(DISTINCT a.employee_id)
		FROM attendances a
		WHERE ` + approvedInRange + `
		GROUP BY a.date
		ORDER BY a.date ASC
	`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer rows.Close()

	var totals []attendance.DailyTotal
	for rows.Next() {
		var d attendance.DailyTotal
		if err := rows.Scan(&d.Date, &d.WorkMinutes, &d.OvertimeMinutes, &d.UniqueEmployees); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		totals = append(totals, d)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return totals, nil
}

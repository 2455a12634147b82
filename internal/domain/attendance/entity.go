package attendance

import (
	"time"
)

// Status values stored in attendances.status. Only approved records feed the
// performance pipeline.
const (
	StatusApproved        = "approved"
	StatusWaitingApproval = "waiting_approval"
	StatusRejected        = "rejected"
)

type Attendance struct {
	ID                 string
	EmployeeID         string
	Date               time.Time
	ClockIn            *time.Time
	ClockOut           *time.Time
	WorkHoursInMinutes *int
	OvertimeMinutes    *int
	WorkDescription    string
	Status             string
	ApprovedAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsApproved reports whether the record counts toward performance metrics.
func (a Attendance) IsApproved() bool {
	return a.Status == StatusApproved
}

// IsCompleted reports whether the record has a clock-out and a worked duration,
// i.e. it is no longer an open session.
func (a Attendance) IsCompleted() bool {
	return a.ClockOut != nil && a.WorkHoursInMinutes != nil
}

// WorkMinutes returns the worked minutes, treating a missing or negative value as zero.
func (a Attendance) WorkMinutes() int {
	if a.WorkHoursInMinutes == nil || *a.WorkHoursInMinutes < 0 {
		return 0
	}
	return *a.WorkHoursInMinutes
}

// Overtime returns the overtime minutes, treating a missing or negative value as zero.
func (a Attendance) Overtime() int {
	if a.OvertimeMinutes == nil || *a.OvertimeMinutes < 0 {
		return 0
	}
	return *a.OvertimeMinutes
}

// DailyTotal aggregates approved attendance for a single calendar date across
// all employees.
type DailyTotal struct {
	Date            time.Time
	WorkMinutes     int64
	OvertimeMinutes int64
	UniqueEmployees int64
}

package employee

import (
	"time"
)

// Employee is the identity slice of an employee record that analytics needs.
type Employee struct {
	ID               string
	EmployeeCode     string
	FullName         string
	Email            *string
	Role             string
	EmploymentStatus EmploymentStatus
	HireDate         time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// RoleWorker is the role of employees that are included in "all active workers".
const RoleWorker = "employee"

// IsActive reports whether the employee is currently employed.
func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}

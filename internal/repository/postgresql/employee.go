package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-performance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	e.id, e.employee_code, e.full_name, u.email, COALESCE(u.role::text, ''),
	e.employment_status, e.hire_date, e.created_at, e.updated_at`

const employeeFrom = `
	FROM employees e
	LEFT JOIN users u ON u.id = e.user_id`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.EmployeeCode, &emp.FullName, &emp.Email, &emp.Role,
		&emp.EmploymentStatus, &emp.HireDate, &emp.CreatedAt, &emp.UpdatedAt,
	)
	return emp, err
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + employeeFrom + `
		WHERE e.id = $1 AND e.deleted_at IS NULL
	`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, fmt.Errorf("employee with id %s: %w", id, employee.ErrEmployeeNotFound)
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee with id %s: %w", id, err)
	}
	return emp, nil
}

// GetByIDs implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByIDs(ctx context.Context, ids []string) ([]employee.Employee, error) {
	if len(ids) == 0 {
		return []employee.Employee{}, nil
	}
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + employeeFrom + `
		WHERE e.id::text = ANY($1) AND e.deleted_at IS NULL
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]employee.Employee, len(ids))
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		byID[emp.ID] = emp
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	// Preserve request order
	employees := make([]employee.Employee, 0, len(byID))
	for _, id := range ids {
		if emp, ok := byID[id]; ok {
			employees = append(employees, emp)
		}
	}
	return employees, nil
}

// ListActive implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActive(ctx context.Context, role string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + employeeFrom + `
		WHERE e.employment_status = $1 AND e.deleted_at IS NULL
			AND ($2::text = '' OR u.role::text = $2::text)
		ORDER BY e.full_name, e.id
	`

	rows, err := q.Query(ctx, query, employee.EmploymentStatusActive, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

// CountActive implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) CountActive(ctx context.Context, role string) (int64, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT COUNT(*)` + employeeFrom + `
		WHERE e.employment_status = $1 AND e.deleted_at IS NULL
			AND ($2::text = '' OR u.role::text = $2::text)
	`

	var total int64
	if err := q.QueryRow(ctx, query, employee.EmploymentStatusActive, role).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count active employees: %w", err)
	}
	return total, nil
}

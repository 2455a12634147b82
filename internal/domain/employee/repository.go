package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	// GetByIDs returns the employees that exist among ids, in the order of ids.
	// Unknown ids are silently absent from the result.
	GetByIDs(ctx context.Context, ids []string) ([]Employee, error)
	// ListActive returns active employees; an empty role means any role.
	ListActive(ctx context.Context, role string) ([]Employee, error)

	// CountActive counts active employees; an empty role means any role.
	CountActive(ctx context.Context, role string) (int64, error)
}

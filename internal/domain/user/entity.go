package user

// Role is the role claim carried by access tokens
type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Sees the whole team, may retrain
	RoleEmployee Role = "employee" // Sees only their own performance
	RolePending  Role = "pending"  // Still in onboarding
)

// Caller is the identity extracted from a verified access token.
type Caller struct {
	UserID     string
	EmployeeID string
	Role       Role
}

// IsManager reports whether the caller can act on other employees.
func (c Caller) IsManager() bool {
	return c.Role == RoleManager || c.Role == RoleOwner
}

// CanView reports whether the caller may read employeeID's analytics.
func (c Caller) CanView(employeeID string) bool {
	if HasPermission(c.Role, PermissionPerformanceViewAll) {
		return true
	}
	return HasPermission(c.Role, PermissionPerformanceViewOwn) && c.EmployeeID != "" && c.EmployeeID == employeeID
}

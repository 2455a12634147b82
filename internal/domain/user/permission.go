package user

import "slices"

type Permission string

const (
	// Performance
	PermissionPerformanceViewOwn Permission = "performance.view_own"
	PermissionPerformanceViewAll Permission = "performance.view_all"
	PermissionPerformanceRetrain Permission = "performance.retrain"

	// Team analytics
	PermissionAnalyticsView Permission = "analytics.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionPerformanceViewOwn,
		PermissionPerformanceViewAll,
		PermissionPerformanceRetrain,
		PermissionAnalyticsView,
	},
	RoleManager: {
		PermissionPerformanceViewOwn,
		PermissionPerformanceViewAll,
		PermissionPerformanceRetrain,
		PermissionAnalyticsView,
	},
	RoleEmployee: {
		PermissionPerformanceViewOwn,
	},
	RolePending: {
		// Pending role has no permissions
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	return slices.Contains(permissions, permission)
}

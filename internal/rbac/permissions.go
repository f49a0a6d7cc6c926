// AngelaMos | 2026
// permissions.go

package rbac

// PlatformAction names a platform-scoped operation guarded at the routing
// boundary. The table below is the single source of truth for which platform
// roles may perform each one; handlers never hardcode role strings.
type PlatformAction string

const (
	PlatformActionViewAuditLogs  PlatformAction = "audit_logs.view"
	PlatformActionViewAuditStats PlatformAction = "audit_logs.stats"
	PlatformActionViewSystemInfo PlatformAction = "system.view"
	PlatformActionManageUsers    PlatformAction = "users.manage"
)

var platformPermissions = map[PlatformAction]map[string]struct{}{
	PlatformActionViewAuditLogs: {
		PlatformRoleAdmin:      {},
		PlatformRoleSuperAdmin: {},
	},
	PlatformActionViewAuditStats: {
		PlatformRoleAdmin:      {},
		PlatformRoleSuperAdmin: {},
	},
	PlatformActionViewSystemInfo: {
		PlatformRoleAdmin:      {},
		PlatformRoleSuperAdmin: {},
	},
	PlatformActionManageUsers: {
		PlatformRoleSuperAdmin: {},
	},
}

// CanPerform consults the permission table for a platform-scoped action.
func CanPerform(platformRole string, action PlatformAction) bool {
	roles, ok := platformPermissions[action]
	if !ok {
		return false
	}

	_, ok = roles[platformRole]
	return ok
}

// AngelaMos | 2026
// roles.go

package rbac

// Platform-level roles carried on the identity itself.
const (
	PlatformRoleUser       = "USER"
	PlatformRoleAdmin      = "ADMIN"
	PlatformRoleSuperAdmin = "SUPER_ADMIN"
)

type TeamRole string

const (
	TeamRoleOwner  TeamRole = "OWNER"
	TeamRoleAdmin  TeamRole = "ADMIN"
	TeamRoleMember TeamRole = "MEMBER"
)

func (r TeamRole) Valid() bool {
	switch r {
	case TeamRoleOwner, TeamRoleAdmin, TeamRoleMember:
		return true
	}
	return false
}

type ProjectRole string

const (
	ProjectRoleAdmin  ProjectRole = "ADMIN"
	ProjectRoleEditor ProjectRole = "EDITOR"
	ProjectRoleMember ProjectRole = "MEMBER"
)

func (r ProjectRole) Valid() bool {
	switch r {
	case ProjectRoleAdmin, ProjectRoleEditor, ProjectRoleMember:
		return true
	}
	return false
}

// TeamMembership is the freshly loaded membership record a decision is made
// against. Decisions never operate on roles cached earlier in a request.
type TeamMembership struct {
	ID     string
	UserID string
	Role   TeamRole
}

type ProjectMembership struct {
	ID     string
	UserID string
	Role   ProjectRole
}

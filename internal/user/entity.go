// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/angelamos/teamstation/internal/rbac"
)

type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Name         string     `db:"name"`
	Role         string     `db:"role"`
	TokenVersion int        `db:"token_version"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsPlatformAdmin() bool {
	return u.Role == rbac.PlatformRoleAdmin ||
		u.Role == rbac.PlatformRoleSuperAdmin
}

func ValidRole(role string) bool {
	switch role {
	case rbac.PlatformRoleUser,
		rbac.PlatformRoleAdmin,
		rbac.PlatformRoleSuperAdmin:
		return true
	}
	return false
}

// AngelaMos | 2026
// entity.go

// Package project implements projects inside a team and their memberships.
// Project access is always a subset of team access: nobody holds a project
// membership without a membership on the owning team.
package project

import (
	"time"

	"github.com/angelamos/teamstation/internal/rbac"
)

type Project struct {
	ID          string     `db:"id"`
	TeamID      string     `db:"team_id"`
	Name        string     `db:"name"`
	Description string     `db:"description"`
	CreatedBy   string     `db:"created_by"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

type Member struct {
	ID        string           `db:"id"`
	ProjectID string           `db:"project_id"`
	UserID    string           `db:"user_id"`
	Role      rbac.ProjectRole `db:"role"`
	AddedBy   string           `db:"added_by"`
	CreatedAt time.Time        `db:"created_at"`
}

func (m *Member) Membership() *rbac.ProjectMembership {
	if m == nil {
		return nil
	}
	return &rbac.ProjectMembership{
		ID:     m.ID,
		UserID: m.UserID,
		Role:   m.Role,
	}
}

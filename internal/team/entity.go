// AngelaMos | 2026
// entity.go

// Package team implements the tenant boundary: teams, their memberships,
// and the cascading soft-delete that takes projects and documents down with
// the team in one transaction.
package team

import (
	"time"

	"github.com/angelamos/teamstation/internal/rbac"
)

type Team struct {
	ID          string     `db:"id"`
	Name        string     `db:"name"`
	Description string     `db:"description"`
	CreatedBy   string     `db:"created_by"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

type Member struct {
	ID        string        `db:"id"`
	TeamID    string        `db:"team_id"`
	UserID    string        `db:"user_id"`
	Role      rbac.TeamRole `db:"role"`
	AddedBy   string        `db:"added_by"`
	CreatedAt time.Time     `db:"created_at"`
}

// Membership projects the row into the form the authorization engine takes.
func (m *Member) Membership() *rbac.TeamMembership {
	if m == nil {
		return nil
	}
	return &rbac.TeamMembership{
		ID:     m.ID,
		UserID: m.UserID,
		Role:   m.Role,
	}
}

// TeamWithRole is the list-by-user projection: the team joined with the
// requesting user's own role in it.
type TeamWithRole struct {
	Team
	Role rbac.TeamRole `db:"role"`
}

// AngelaMos | 2026
// dto.go

package team

import (
	"time"

	"github.com/angelamos/teamstation/internal/rbac"
)

type CreateTeamRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type UpdateTeamRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role"    validate:"required,oneof=ADMIN MEMBER"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=OWNER ADMIN MEMBER"`
}

type TeamResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToTeamResponse(t *Team) TeamResponse {
	return TeamResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type TeamWithRoleResponse struct {
	TeamResponse
	Role rbac.TeamRole `json:"role"`
}

type MemberResponse struct {
	ID       string        `json:"id"`
	TeamID   string        `json:"team_id"`
	UserID   string        `json:"user_id"`
	Role     rbac.TeamRole `json:"role"`
	AddedBy  string        `json:"added_by"`
	JoinedAt time.Time     `json:"joined_at"`
}

func ToMemberResponse(m *Member) MemberResponse {
	return MemberResponse{
		ID:       m.ID,
		TeamID:   m.TeamID,
		UserID:   m.UserID,
		Role:     m.Role,
		AddedBy:  m.AddedBy,
		JoinedAt: m.CreatedAt,
	}
}

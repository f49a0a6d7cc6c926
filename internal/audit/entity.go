// AngelaMos | 2026
// entity.go

// Package audit records security-relevant and state-changing operations.
// Recording is fire-and-forget: a sink failure is logged and never fails
// the request that triggered it.
package audit

import (
	"time"
)

const (
	ActionUserRegister   = "user.register"
	ActionUserLogin      = "user.login"
	ActionUserLogout     = "user.logout"
	ActionUserLogoutAll  = "user.logout_all"
	ActionTokenRotate    = "token.rotate"
	ActionPasswordChange = "user.password_change"

	ActionTeamCreate     = "team.create"
	ActionTeamUpdate     = "team.update"
	ActionTeamDelete     = "team.delete"
	ActionMemberAdd      = "team.member_add"
	ActionMemberRemove   = "team.member_remove"
	ActionMemberRole     = "team.member_role_change"
	ActionOwnerTransfer  = "team.ownership_transfer"
	ActionProjectCreate  = "project.create"
	ActionProjectUpdate  = "project.update"
	ActionProjectDelete  = "project.delete"
	ActionProjMemberAdd  = "project.member_add"
	ActionProjMemberRm   = "project.member_remove"
	ActionProjMemberRole = "project.member_role_change"
	ActionDocumentCreate = "document.create"
	ActionDocumentUpdate = "document.update"
	ActionDocumentDelete = "document.delete"
)

type Entry struct {
	ID         string         `db:"id"          json:"id"`
	UserID     string         `db:"user_id"     json:"user_id"`
	Action     string         `db:"action"      json:"action"`
	EntityType string         `db:"entity_type" json:"entity_type,omitempty"`
	EntityID   string         `db:"entity_id"   json:"entity_id,omitempty"`
	IPAddress  string         `db:"ip_address"  json:"ip_address,omitempty"`
	Metadata   map[string]any `db:"-"           json:"metadata,omitempty"`
	CreatedAt  time.Time      `db:"created_at"  json:"created_at"`
}

// AngelaMos | 2026
// rbac_test.go

package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func owner() *TeamMembership {
	return &TeamMembership{ID: "m-owner", UserID: "u-owner", Role: TeamRoleOwner}
}

func admin() *TeamMembership {
	return &TeamMembership{ID: "m-admin", UserID: "u-admin", Role: TeamRoleAdmin}
}

func member() *TeamMembership {
	return &TeamMembership{ID: "m-member", UserID: "u-member", Role: TeamRoleMember}
}

func TestCanActOnTeamMember(t *testing.T) {
	tests := []struct {
		name     string
		actor    *TeamMembership
		target   *TeamMembership
		action   TeamMemberAction
		newRole  TeamRole
		allowed  bool
		wantRule Rule
	}{
		{
			name:     "missing actor denied first",
			actor:    nil,
			target:   member(),
			action:   TeamMemberActionChangeRole,
			newRole:  TeamRoleAdmin,
			wantRule: RuleActorNotMember,
		},
		{
			name:     "missing target",
			actor:    owner(),
			target:   nil,
			action:   TeamMemberActionChangeRole,
			newRole:  TeamRoleAdmin,
			wantRule: RuleTargetNotMember,
		},
		{
			name:     "cannot change own role",
			actor:    owner(),
			target:   owner(),
			action:   TeamMemberActionChangeRole,
			newRole:  TeamRoleMember,
			wantRule: RuleSelfAction,
		},
		{
			name:     "cannot remove self",
			actor:    member(),
			target:   member(),
			action:   TeamMemberActionRemove,
			wantRule: RuleSelfAction,
		},
		{
			name:     "member lacks role floor",
			actor:    member(),
			target:   &TeamMembership{ID: "m2", UserID: "u2", Role: TeamRoleMember},
			action:   TeamMemberActionRemove,
			wantRule: RuleInsufficientRole,
		},
		{
			name:     "owner membership is immutable",
			actor:    admin(),
			target:   owner(),
			action:   TeamMemberActionChangeRole,
			newRole:  TeamRoleMember,
			wantRule: RuleOwnerImmutable,
		},
		{
			name:     "owner cannot be removed",
			actor:    admin(),
			target:   owner(),
			action:   TeamMemberActionRemove,
			wantRule: RuleOwnerImmutable,
		},
		{
			name:     "admin cannot alter another admin",
			actor:    admin(),
			target:   &TeamMembership{ID: "m2", UserID: "u2", Role: TeamRoleAdmin},
			action:   TeamMemberActionChangeRole,
			newRole:  TeamRoleMember,
			wantRule: RuleAdminOnAdmin,
		},
		{
			name:     "admin cannot grant owner",
			actor:    admin(),
			target:   member(),
			action:   TeamMemberActionChangeRole,
			newRole:  TeamRoleOwner,
			wantRule: RuleOwnerGrantsOwner,
		},
		{
			name:     "admin cannot grant admin",
			actor:    admin(),
			target:   member(),
			action:   TeamMemberActionChangeRole,
			newRole:  TeamRoleAdmin,
			wantRule: RuleOwnerGrantsAdmin,
		},
		{
			name:    "owner promotes member to admin",
			actor:   owner(),
			target:  member(),
			action:  TeamMemberActionChangeRole,
			newRole: TeamRoleAdmin,
			allowed: true,
		},
		{
			name:    "owner transfers ownership",
			actor:   owner(),
			target:  member(),
			action:  TeamMemberActionChangeRole,
			newRole: TeamRoleOwner,
			allowed: true,
		},
		{
			name:    "admin removes member",
			actor:   admin(),
			target:  member(),
			action:  TeamMemberActionRemove,
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanActOnTeamMember(tt.actor, tt.target, tt.action, tt.newRole)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.Equal(t, tt.wantRule, d.Rule)
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

// TestDecisionOrderIsDeterministic replays an input that violates several
// rules at once and checks the first-failing rule never changes.
func TestDecisionOrderIsDeterministic(t *testing.T) {
	// Self-action by a plain member assigning OWNER violates self-action,
	// role floor, and the owner-grant rule. Self-action must win every time.
	m := member()
	for range 10 {
		d := CanActOnTeamMember(m, m, TeamMemberActionChangeRole, TeamRoleOwner)
		require.False(t, d.Allowed)
		require.Equal(t, RuleSelfAction, d.Rule)
	}
}

func TestCanAddTeamMember(t *testing.T) {
	t.Run("member cannot add", func(t *testing.T) {
		d := CanAddTeamMember(member(), TeamRoleMember)
		assert.False(t, d.Allowed)
		assert.Equal(t, RuleInsufficientRole, d.Rule)
	})

	t.Run("nobody adds an owner", func(t *testing.T) {
		d := CanAddTeamMember(owner(), TeamRoleOwner)
		assert.False(t, d.Allowed)
		assert.Equal(t, RuleOwnerAddForbidden, d.Rule)
	})

	t.Run("admin cannot add an admin", func(t *testing.T) {
		d := CanAddTeamMember(admin(), TeamRoleAdmin)
		assert.False(t, d.Allowed)
		assert.Equal(t, RuleOwnerGrantsAdmin, d.Rule)
	})

	t.Run("owner adds an admin", func(t *testing.T) {
		assert.True(t, CanAddTeamMember(owner(), TeamRoleAdmin).Allowed)
	})

	t.Run("admin adds a member", func(t *testing.T) {
		assert.True(t, CanAddTeamMember(admin(), TeamRoleMember).Allowed)
	})
}

// TestTeamScenario walks the full promotion scenario: A owns a team, adds B
// as MEMBER, B cannot add anyone, A promotes B to ADMIN, B can then add a
// MEMBER but still cannot grant ADMIN.
func TestTeamScenario(t *testing.T) {
	a := &TeamMembership{ID: "ma", UserID: "A", Role: TeamRoleOwner}
	b := &TeamMembership{ID: "mb", UserID: "B", Role: TeamRoleMember}

	require.True(t, CanAddTeamMember(a, TeamRoleMember).Allowed)

	d := CanAddTeamMember(b, TeamRoleMember)
	require.False(t, d.Allowed)
	require.Equal(t, RuleInsufficientRole, d.Rule)

	d = CanActOnTeamMember(a, b, TeamMemberActionChangeRole, TeamRoleAdmin)
	require.True(t, d.Allowed)
	b.Role = TeamRoleAdmin

	require.True(t, CanAddTeamMember(b, TeamRoleMember).Allowed)

	d = CanAddTeamMember(b, TeamRoleAdmin)
	require.False(t, d.Allowed)
	require.Equal(t, RuleOwnerGrantsAdmin, d.Rule)
}

func TestCanCreateProject(t *testing.T) {
	assert.True(t, CanCreateProject(owner()).Allowed)
	assert.True(t, CanCreateProject(admin()).Allowed)
	assert.False(t, CanCreateProject(member()).Allowed)
	assert.Equal(t, RuleActorNotMember, CanCreateProject(nil).Rule)
}

func TestCanDeleteTeam(t *testing.T) {
	assert.True(t, CanDeleteTeam(owner()).Allowed)
	assert.False(t, CanDeleteTeam(admin()).Allowed)
	assert.False(t, CanDeleteTeam(member()).Allowed)
}

func TestCanActOnProject(t *testing.T) {
	projAdmin := &ProjectMembership{ID: "p1", UserID: "u1", Role: ProjectRoleAdmin}
	editor := &ProjectMembership{ID: "p2", UserID: "u2", Role: ProjectRoleEditor}
	viewer := &ProjectMembership{ID: "p3", UserID: "u3", Role: ProjectRoleMember}

	t.Run("any member reads and creates documents", func(t *testing.T) {
		for _, m := range []*ProjectMembership{projAdmin, editor, viewer} {
			assert.True(t, CanActOnProject(m, ProjectActionRead).Allowed)
			assert.True(t, CanActOnProject(m, ProjectActionCreateDocument).Allowed)
		}
	})

	t.Run("editor updates but cannot delete documents", func(t *testing.T) {
		assert.True(t, CanActOnProject(editor, ProjectActionUpdateDocument).Allowed)
		d := CanActOnProject(editor, ProjectActionDeleteDocument)
		assert.False(t, d.Allowed)
		assert.Equal(t, RuleInsufficientRole, d.Rule)
	})

	t.Run("admin required for project mutation", func(t *testing.T) {
		for _, action := range []ProjectAction{
			ProjectActionUpdate,
			ProjectActionDelete,
			ProjectActionManageMembers,
			ProjectActionDeleteDocument,
		} {
			assert.True(t, CanActOnProject(projAdmin, action).Allowed)
			assert.False(t, CanActOnProject(viewer, action).Allowed)
		}
	})

	t.Run("non-member denied everything", func(t *testing.T) {
		d := CanActOnProject(nil, ProjectActionRead)
		assert.False(t, d.Allowed)
		assert.Equal(t, RuleActorNotMember, d.Rule)
	})
}

func TestPlatformPermissionTable(t *testing.T) {
	assert.True(t, CanPerform(PlatformRoleAdmin, PlatformActionViewAuditLogs))
	assert.True(t, CanPerform(PlatformRoleSuperAdmin, PlatformActionManageUsers))
	assert.False(t, CanPerform(PlatformRoleAdmin, PlatformActionManageUsers))
	assert.False(t, CanPerform(PlatformRoleUser, PlatformActionViewAuditLogs))
	assert.False(t, CanPerform(PlatformRoleSuperAdmin, PlatformAction("unknown")))
}

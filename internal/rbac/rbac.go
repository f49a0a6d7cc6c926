// AngelaMos | 2026
// rbac.go

// Package rbac holds the pure authorization decisions for team and project
// resources. Functions here never touch storage; callers load the current
// membership rows and pass them in.
package rbac

type TeamMemberAction string

const (
	TeamMemberActionChangeRole TeamMemberAction = "CHANGE_ROLE"
	TeamMemberActionRemove     TeamMemberAction = "REMOVE"
)

// CanActOnTeamMember decides whether actor may change the role of, or remove,
// target. newRole is only consulted for CHANGE_ROLE.
func CanActOnTeamMember(
	actor, target *TeamMembership,
	action TeamMemberAction,
	newRole TeamRole,
) Decision {
	if actor == nil {
		return deny(RuleActorNotMember, "you are not a member of the team")
	}

	if target == nil {
		return deny(RuleTargetNotMember, "team member not found")
	}

	if actor.ID == target.ID {
		if action == TeamMemberActionRemove {
			return deny(RuleSelfAction, "you cannot remove your own membership")
		}
		return deny(RuleSelfAction, "you cannot change your own role")
	}

	if actor.Role != TeamRoleOwner && actor.Role != TeamRoleAdmin {
		return deny(
			RuleInsufficientRole,
			"only the team owner or an admin can manage members",
		)
	}

	if target.Role == TeamRoleOwner {
		return deny(
			RuleOwnerImmutable,
			"the team owner's membership cannot be changed",
		)
	}

	if target.Role == TeamRoleAdmin && actor.Role == TeamRoleAdmin {
		if action == TeamMemberActionRemove {
			return deny(RuleAdminOnAdmin, "an admin cannot remove another admin")
		}
		return deny(
			RuleAdminOnAdmin,
			"an admin cannot change the role of another admin",
		)
	}

	if action == TeamMemberActionChangeRole {
		if newRole == TeamRoleOwner && actor.Role != TeamRoleOwner {
			return deny(
				RuleOwnerGrantsOwner,
				"only the team owner can transfer ownership",
			)
		}

		if newRole == TeamRoleAdmin && actor.Role != TeamRoleOwner {
			return deny(
				RuleOwnerGrantsAdmin,
				"only the team owner can grant the admin role",
			)
		}
	}

	return allow()
}

// CanAddTeamMember decides whether actor may add a new member with newRole.
func CanAddTeamMember(actor *TeamMembership, newRole TeamRole) Decision {
	if actor == nil {
		return deny(RuleActorNotMember, "you are not a member of the team")
	}

	if actor.Role != TeamRoleOwner && actor.Role != TeamRoleAdmin {
		return deny(
			RuleInsufficientRole,
			"only the team owner or an admin can add members",
		)
	}

	if newRole == TeamRoleOwner {
		return deny(
			RuleOwnerAddForbidden,
			"the owner role cannot be assigned when adding a member",
		)
	}

	if newRole == TeamRoleAdmin && actor.Role != TeamRoleOwner {
		return deny(
			RuleOwnerGrantsAdmin,
			"only the team owner can grant the admin role",
		)
	}

	return allow()
}

func CanCreateProject(actor *TeamMembership) Decision {
	if actor == nil {
		return deny(RuleActorNotMember, "you are not a member of the team")
	}

	if actor.Role != TeamRoleOwner && actor.Role != TeamRoleAdmin {
		return deny(
			RuleInsufficientRole,
			"only the team owner or an admin can create projects",
		)
	}

	return allow()
}

func CanUpdateTeam(actor *TeamMembership) Decision {
	if actor == nil {
		return deny(RuleActorNotMember, "you are not a member of the team")
	}

	if actor.Role != TeamRoleOwner && actor.Role != TeamRoleAdmin {
		return deny(
			RuleInsufficientRole,
			"only the team owner or an admin can update the team",
		)
	}

	return allow()
}

func CanDeleteTeam(actor *TeamMembership) Decision {
	if actor == nil {
		return deny(RuleActorNotMember, "you are not a member of the team")
	}

	if actor.Role != TeamRoleOwner {
		return deny(
			RuleInsufficientRole,
			"only the team owner can delete the team",
		)
	}

	return allow()
}

type ProjectAction string

const (
	ProjectActionRead           ProjectAction = "READ"
	ProjectActionUpdate         ProjectAction = "UPDATE"
	ProjectActionDelete         ProjectAction = "DELETE"
	ProjectActionManageMembers  ProjectAction = "MANAGE_MEMBERS"
	ProjectActionCreateDocument ProjectAction = "CREATE_DOCUMENT"
	ProjectActionUpdateDocument ProjectAction = "UPDATE_DOCUMENT"
	ProjectActionDeleteDocument ProjectAction = "DELETE_DOCUMENT"
)

// CanActOnProject decides whether a project member may perform action.
// Any active membership grants read and document creation; EDITOR adds
// document updates; ADMIN is required for everything else.
func CanActOnProject(member *ProjectMembership, action ProjectAction) Decision {
	if member == nil {
		return deny(RuleActorNotMember, "you are not a member of the project")
	}

	switch action {
	case ProjectActionRead, ProjectActionCreateDocument:
		return allow()

	case ProjectActionUpdateDocument:
		if member.Role == ProjectRoleAdmin || member.Role == ProjectRoleEditor {
			return allow()
		}
		return deny(
			RuleInsufficientRole,
			"only a project admin or editor can update documents",
		)

	case ProjectActionDeleteDocument:
		if member.Role == ProjectRoleAdmin {
			return allow()
		}
		return deny(
			RuleInsufficientRole,
			"only a project admin can delete documents",
		)

	case ProjectActionUpdate, ProjectActionDelete, ProjectActionManageMembers:
		if member.Role == ProjectRoleAdmin {
			return allow()
		}
		return deny(
			RuleInsufficientRole,
			"only a project admin can perform this action",
		)
	}

	return deny(RuleInsufficientRole, "unknown project action")
}

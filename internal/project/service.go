// AngelaMos | 2026
// service.go

package project

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/angelamos/teamstation/internal/audit"
	"github.com/angelamos/teamstation/internal/core"
	"github.com/angelamos/teamstation/internal/middleware"
	"github.com/angelamos/teamstation/internal/rbac"
	"github.com/angelamos/teamstation/internal/team"
)

// TeamDirectory is the slice of the team store this service needs: parent
// existence, the actor's team role, and the owner to seed as project admin.
// team.Repository satisfies it.
type TeamDirectory interface {
	GetByID(ctx context.Context, id string) (*team.Team, error)
	GetMemberByUser(
		ctx context.Context,
		teamID, userID string,
	) (*team.Member, error)
	GetOwner(ctx context.Context, teamID string) (*team.Member, error)
}

type Service struct {
	repo  Repository
	teams TeamDirectory
	audit audit.Sink
}

func NewService(
	repo Repository,
	teams TeamDirectory,
	sink audit.Sink,
) *Service {
	return &Service{
		repo:  repo,
		teams: teams,
		audit: sink,
	}
}

// CreateProject requires a team ADMIN or OWNER role and seeds the creator
// and, if distinct, the team owner as project ADMINs in the same transaction
// as the project row.
func (s *Service) CreateProject(
	ctx context.Context,
	actorID, teamID string,
	req CreateProjectRequest,
) (*ProjectResponse, error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return nil, err
	}

	actor, err := s.teamMembership(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}

	if d := rbac.CanCreateProject(actor.Membership()); !d.Allowed {
		return nil, core.ForbiddenError(d.Reason)
	}

	p := &Project{
		ID:          uuid.New().String(),
		TeamID:      teamID,
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   actorID,
	}

	members := []*Member{{
		ID:      uuid.New().String(),
		UserID:  actorID,
		Role:    rbac.ProjectRoleAdmin,
		AddedBy: actorID,
	}}

	owner, err := s.teams.GetOwner(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if owner.UserID != actorID {
		members = append(members, &Member{
			ID:      uuid.New().String(),
			UserID:  owner.UserID,
			Role:    rbac.ProjectRoleAdmin,
			AddedBy: actorID,
		})
	}

	if err := s.repo.CreateWithMembers(ctx, p, members); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("project name")
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     actorID,
		Action:     audit.ActionProjectCreate,
		EntityType: "project",
		EntityID:   p.ID,
		IPAddress:  middleware.GetClientIP(ctx),
		Metadata:   map[string]any{"team_id": teamID, "name": p.Name},
	})

	resp := ToProjectResponse(p)
	return &resp, nil
}

func (s *Service) GetProject(
	ctx context.Context,
	actorID, projectID string,
) (*ProjectResponse, error) {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	member, err := s.projectMembership(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}

	if d := rbac.CanActOnProject(
		member.Membership(),
		rbac.ProjectActionRead,
	); !d.Allowed {
		return nil, core.ForbiddenError(d.Reason)
	}

	resp := ToProjectResponse(p)
	return &resp, nil
}

// ListProjects is team-scoped: any team member sees the team's projects.
func (s *Service) ListProjects(
	ctx context.Context,
	actorID, teamID string,
	page core.PageQuery,
) (*core.Page[ProjectResponse], error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return nil, err
	}

	if _, err := s.teamMembership(ctx, teamID, actorID); err != nil {
		return nil, err
	}

	cursorID, err := page.CursorID()
	if err != nil {
		return nil, err
	}

	projects, err := s.repo.ListByTeam(ctx, teamID, cursorID, page.Limit+1)
	if err != nil {
		return nil, err
	}

	responses := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		responses = append(responses, ToProjectResponse(&projects[i]))
	}

	result := core.NewPage(
		responses,
		page.Limit,
		func(p ProjectResponse) string { return p.ID },
	)
	return &result, nil
}

func (s *Service) UpdateProject(
	ctx context.Context,
	actorID, projectID string,
	req UpdateProjectRequest,
) (*ProjectResponse, error) {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	member, err := s.projectMembership(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}

	if d := rbac.CanActOnProject(
		member.Membership(),
		rbac.ProjectActionUpdate,
	); !d.Allowed {
		return nil, core.ForbiddenError(d.Reason)
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("project name")
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     actorID,
		Action:     audit.ActionProjectUpdate,
		EntityType: "project",
		EntityID:   p.ID,
		IPAddress:  middleware.GetClientIP(ctx),
	})

	resp := ToProjectResponse(p)
	return &resp, nil
}

func (s *Service) DeleteProject(
	ctx context.Context,
	actorID, projectID string,
) error {
	if _, err := s.repo.GetByID(ctx, projectID); err != nil {
		return err
	}

	member, err := s.projectMembership(ctx, projectID, actorID)
	if err != nil {
		return err
	}

	if d := rbac.CanActOnProject(
		member.Membership(),
		rbac.ProjectActionDelete,
	); !d.Allowed {
		return core.ForbiddenError(d.Reason)
	}

	if err := s.repo.SoftDeleteCascade(ctx, projectID); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     actorID,
		Action:     audit.ActionProjectDelete,
		EntityType: "project",
		EntityID:   projectID,
		IPAddress:  middleware.GetClientIP(ctx),
	})

	return nil
}

// AddMember grants project access. The target must already hold a membership
// on the owning team: project access is a subset of team access.
func (s *Service) AddMember(
	ctx context.Context,
	actorID, projectID string,
	req AddMemberRequest,
) (*MemberResponse, error) {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	actor, err := s.projectMembership(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}

	if d := rbac.CanActOnProject(
		actor.Membership(),
		rbac.ProjectActionManageMembers,
	); !d.Allowed {
		return nil, core.ForbiddenError(d.Reason)
	}

	if _, err := s.teams.GetMemberByUser(
		ctx,
		p.TeamID,
		req.UserID,
	); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.BadRequestError(
				"user must be a member of the owning team",
			)
		}
		return nil, err
	}

	m := &Member{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		UserID:    req.UserID,
		Role:      rbac.ProjectRole(req.Role),
		AddedBy:   actorID,
	}

	if err := s.repo.AddMember(ctx, m); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("project membership")
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     actorID,
		Action:     audit.ActionProjMemberAdd,
		EntityType: "project_member",
		EntityID:   m.ID,
		IPAddress:  middleware.GetClientIP(ctx),
		Metadata: map[string]any{
			"project_id": projectID,
			"user_id":    req.UserID,
			"role":       req.Role,
		},
	})

	resp := ToMemberResponse(m)
	return &resp, nil
}

func (s *Service) ListMembers(
	ctx context.Context,
	actorID, projectID string,
	page core.PageQuery,
) (*core.Page[MemberResponse], error) {
	if _, err := s.repo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	member, err := s.projectMembership(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}

	if d := rbac.CanActOnProject(
		member.Membership(),
		rbac.ProjectActionRead,
	); !d.Allowed {
		return nil, core.ForbiddenError(d.Reason)
	}

	cursorID, err := page.CursorID()
	if err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, projectID, cursorID, page.Limit+1)
	if err != nil {
		return nil, err
	}

	responses := make([]MemberResponse, 0, len(members))
	for i := range members {
		responses = append(responses, ToMemberResponse(&members[i]))
	}

	result := core.NewPage(
		responses,
		page.Limit,
		func(m MemberResponse) string { return m.ID },
	)
	return &result, nil
}

func (s *Service) UpdateMemberRole(
	ctx context.Context,
	actorID, projectID, memberID string,
	req UpdateMemberRoleRequest,
) (*MemberResponse, error) {
	if _, err := s.repo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	actor, err := s.projectMembership(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}

	if d := rbac.CanActOnProject(
		actor.Membership(),
		rbac.ProjectActionManageMembers,
	); !d.Allowed {
		return nil, core.ForbiddenError(d.Reason)
	}

	target, err := s.memberInProject(ctx, projectID, memberID)
	if err != nil {
		return nil, err
	}

	newRole := rbac.ProjectRole(req.Role)
	if err := s.repo.UpdateMemberRole(ctx, target.ID, newRole); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     actorID,
		Action:     audit.ActionProjMemberRole,
		EntityType: "project_member",
		EntityID:   target.ID,
		IPAddress:  middleware.GetClientIP(ctx),
		Metadata: map[string]any{
			"project_id": projectID,
			"role":       req.Role,
		},
	})

	target.Role = newRole
	resp := ToMemberResponse(target)
	return &resp, nil
}

func (s *Service) RemoveMember(
	ctx context.Context,
	actorID, projectID, memberID string,
) error {
	if _, err := s.repo.GetByID(ctx, projectID); err != nil {
		return err
	}

	actor, err := s.projectMembership(ctx, projectID, actorID)
	if err != nil {
		return err
	}

	if d := rbac.CanActOnProject(
		actor.Membership(),
		rbac.ProjectActionManageMembers,
	); !d.Allowed {
		return core.ForbiddenError(d.Reason)
	}

	target, err := s.memberInProject(ctx, projectID, memberID)
	if err != nil {
		return err
	}

	if err := s.repo.RemoveMember(ctx, target.ID); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     actorID,
		Action:     audit.ActionProjMemberRm,
		EntityType: "project_member",
		EntityID:   target.ID,
		IPAddress:  middleware.GetClientIP(ctx),
		Metadata: map[string]any{
			"project_id": projectID,
			"user_id":    target.UserID,
		},
	})

	return nil
}

func (s *Service) teamMembership(
	ctx context.Context,
	teamID, userID string,
) (*team.Member, error) {
	m, err := s.teams.GetMemberByUser(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ForbiddenError("you are not a member of the team")
		}
		return nil, err
	}
	return m, nil
}

func (s *Service) projectMembership(
	ctx context.Context,
	projectID, userID string,
) (*Member, error) {
	m, err := s.repo.GetMemberByUser(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ForbiddenError(
				"you are not a member of the project",
			)
		}
		return nil, err
	}
	return m, nil
}

func (s *Service) memberInProject(
	ctx context.Context,
	projectID, memberID string,
) (*Member, error) {
	m, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m.ProjectID != projectID {
		return nil, core.NotFoundError("project member")
	}
	return m, nil
}

// AngelaMos | 2026
// service.go

package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelamos/teamstation/internal/audit"
	"github.com/angelamos/teamstation/internal/core"
	"github.com/angelamos/teamstation/internal/middleware"
	"github.com/angelamos/teamstation/internal/rbac"
)

// UserDirectory answers whether an identity exists; adding a member requires
// the target to be a real, active user.
type UserDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

type Service struct {
	repo  Repository
	users UserDirectory
	audit audit.Sink
}

func NewService(
	repo Repository,
	users UserDirectory,
	sink audit.Sink,
) *Service {
	return &Service{
		repo:  repo,
		users: users,
		audit: sink,
	}
}

func (s *Service) CreateTeam(
	ctx context.Context,
	actorID string,
	req CreateTeamRequest,
) (*TeamResponse, error) {
	exists, err := s.repo.ExistsByNameForCreator(ctx, actorID, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, core.DuplicateError("team name")
	}

	t := &Team{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   actorID,
	}
	owner := &Member{
		ID:      uuid.New().String(),
		UserID:  actorID,
		Role:    rbac.TeamRoleOwner,
		AddedBy: actorID,
	}

	if err := s.repo.CreateWithOwner(ctx, t, owner); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("team name")
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     actorID,
		Action:     audit.ActionTeamCreate,
		EntityType: "team",
		EntityID:   t.ID,
		IPAddress:  middleware.GetClientIP(ctx),
		Metadata:   map[string]any{"name": t.Name},
	})

	resp := ToTeamResponse(t)
	return &resp, nil
}

func (s *Service) GetTeam(
	ctx context.Context,
	actorID, teamID string,
) (*TeamResponse, error) {
	t, err := s.repo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetMemberByUser(ctx, teamID, actorID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ForbiddenError("you are not a member of the team")
		}
		return nil, err
	}

	resp := ToTeamResponse(t)
	return &resp, nil
}

func (s *Service) ListTeams(
	ctx context.Context,
	actorID string,
	page core.PageQuery,
) (*core.Page[TeamWithRoleResponse], error) {
	cursorID, err := page.CursorID()
	if err != nil {
		return nil, err
	}

	teams, err := s.repo.ListByUser(ctx, actorID, cursorID, page.Limit+1)
	if err != nil {
		return nil, err
	}

	responses := make([]TeamWithRoleResponse, 0, len(teams))
	for i := range teams {
		responses = append(responses, TeamWithRoleResponse{
			TeamResponse: ToTeamResponse(&teams[i].Team),
			Role:         teams[i].Role,
		})
	}

	result := core.NewPage(
		responses,
		page.Limit,
		func(t TeamWithRoleResponse) string { return t.ID },
	)
	return &result, nil
}

func (s *Service) UpdateTeam(
	ctx context.Context,
	actorID, teamID string,
	req UpdateTeamRequest,
) (*TeamResponse, error) {
	t, err := s.repo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	actor, err := s.freshMembership(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}

	if d := rbac.CanUpdateTeam(actor.Membership()); !d.Allowed {
		return nil, core.ForbiddenError(d.Reason)
	}

	if req.Name != nil && *req.Name != t.Name {
		exists, err := s.repo.ExistsByNameForCreator(
			ctx,
			t.CreatedBy,
			*req.Name,
		)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, core.DuplicateError("team name")
		}
		t.Name = *req.Name
	}
	if req.Description != nil {
		t.Description = *req.Description
	}

	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("team name")
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     actorID,
		Action:     audit.ActionTeamUpdate,
		EntityType: "team",
		EntityID:   t.ID,
		IPAddress:  middleware.GetClientIP(ctx),
	})

	resp := ToTeamResponse(t)
	return &resp, nil
}

func (s *Service) DeleteTeam(
	ctx context.Context,
	actorID, teamID string,
) error {
	if _, err := s.repo.GetByID(ctx, teamID); err != nil {
		return err
	}

	actor, err := s.freshMembership(ctx, teamID, actorID)
	if err != nil {
		return err
	}

	if d := rbac.CanDeleteTeam(actor.Membership()); !d.Allowed {
		return core.ForbiddenError(d.Reason)
	}

	if err := s.repo.SoftDeleteCascade(ctx, teamID); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     actorID,
		Action:     audit.ActionTeamDelete,
		EntityType: "team",
		EntityID:   teamID,
		IPAddress:  middleware.GetClientIP(ctx),
	})

	return nil
}

func (s *Service) AddMember(
	ctx context.Context,
	actorID, teamID string,
	req AddMemberRequest,
) (*MemberResponse, error) {
	if _, err := s.repo.GetByID(ctx, teamID); err != nil {
		return nil, err
	}

	actor, err := s.freshMembership(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}

	newRole := rbac.TeamRole(req.Role)
	if d := rbac.CanAddTeamMember(actor.Membership(), newRole); !d.Allowed {
		return nil, core.ForbiddenError(d.Reason)
	}

	exists, err := s.users.Exists(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, core.NotFoundError("user")
	}

	m := &Member{
		ID:      uuid.New().String(),
		TeamID:  teamID,
		UserID:  req.UserID,
		Role:    newRole,
		AddedBy: actorID,
	}

	if err := s.repo.AddMember(ctx, m); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("team membership")
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     actorID,
		Action:     audit.ActionMemberAdd,
		EntityType: "team_member",
		EntityID:   m.ID,
		IPAddress:  middleware.GetClientIP(ctx),
		Metadata: map[string]any{
			"team_id": teamID,
			"user_id": req.UserID,
			"role":    req.Role,
		},
	})

	resp := ToMemberResponse(m)
	return &resp, nil
}

func (s *Service) ListMembers(
	ctx context.Context,
	actorID, teamID string,
	page core.PageQuery,
) (*core.Page[MemberResponse], error) {
	if _, err := s.repo.GetByID(ctx, teamID); err != nil {
		return nil, err
	}

	if _, err := s.freshMembership(ctx, teamID, actorID); err != nil {
		return nil, err
	}

	cursorID, err := page.CursorID()
	if err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, teamID, cursorID, page.Limit+1)
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

// UpdateMemberRole re-roles a member. Assigning OWNER is an ownership
// transfer: the target becomes OWNER and the acting owner is demoted to
// ADMIN in the same transaction, so exactly one owner exists throughout.
func (s *Service) UpdateMemberRole(
	ctx context.Context,
	actorID, teamID, memberID string,
	req UpdateMemberRoleRequest,
) (*MemberResponse, error) {
	if _, err := s.repo.GetByID(ctx, teamID); err != nil {
		return nil, err
	}

	actor, err := s.freshMembership(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}

	target, err := s.memberInTeam(ctx, teamID, memberID)
	if err != nil {
		return nil, err
	}

	newRole := rbac.TeamRole(req.Role)
	d := rbac.CanActOnTeamMember(
		actor.Membership(),
		target.Membership(),
		rbac.TeamMemberActionChangeRole,
		newRole,
	)
	if !d.Allowed {
		return nil, core.ForbiddenError(d.Reason)
	}

	if newRole == rbac.TeamRoleOwner {
		if err := s.repo.TransferOwnership(ctx, actor.ID, target.ID); err != nil {
			return nil, err
		}

		s.audit.Record(ctx, audit.Entry{
			UserID:     actorID,
			Action:     audit.ActionOwnerTransfer,
			EntityType: "team",
			EntityID:   teamID,
			IPAddress:  middleware.GetClientIP(ctx),
			Metadata:   map[string]any{"new_owner": target.UserID},
		})
	} else {
		if err := s.repo.UpdateMemberRole(ctx, target.ID, newRole); err != nil {
			return nil, err
		}

		s.audit.Record(ctx, audit.Entry{
			UserID:     actorID,
			Action:     audit.ActionMemberRole,
			EntityType: "team_member",
			EntityID:   target.ID,
			IPAddress:  middleware.GetClientIP(ctx),
			Metadata: map[string]any{
				"team_id": teamID,
				"role":    req.Role,
			},
		})
	}

	target.Role = newRole
	resp := ToMemberResponse(target)
	return &resp, nil
}

func (s *Service) RemoveMember(
	ctx context.Context,
	actorID, teamID, memberID string,
) error {
	if _, err := s.repo.GetByID(ctx, teamID); err != nil {
		return err
	}

	actor, err := s.freshMembership(ctx, teamID, actorID)
	if err != nil {
		return err
	}

	target, err := s.memberInTeam(ctx, teamID, memberID)
	if err != nil {
		return err
	}

	d := rbac.CanActOnTeamMember(
		actor.Membership(),
		target.Membership(),
		rbac.TeamMemberActionRemove,
		"",
	)
	if !d.Allowed {
		return core.ForbiddenError(d.Reason)
	}

	if err := s.repo.RemoveMember(ctx, target.ID); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     actorID,
		Action:     audit.ActionMemberRemove,
		EntityType: "team_member",
		EntityID:   target.ID,
		IPAddress:  middleware.GetClientIP(ctx),
		Metadata: map[string]any{
			"team_id": teamID,
			"user_id": target.UserID,
		},
	})

	return nil
}

// freshMembership re-reads the actor's membership at decision time; a role
// cached from earlier in the request is never trusted.
func (s *Service) freshMembership(
	ctx context.Context,
	teamID, userID string,
) (*Member, error) {
	m, err := s.repo.GetMemberByUser(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ForbiddenError("you are not a member of the team")
		}
		return nil, err
	}
	return m, nil
}

func (s *Service) memberInTeam(
	ctx context.Context,
	teamID, memberID string,
) (*Member, error) {
	m, err := s.repo.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m.TeamID != teamID {
		return nil, fmt.Errorf("get team member: %w", core.ErrNotFound)
	}
	return m, nil
}

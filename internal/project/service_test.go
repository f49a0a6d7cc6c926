// AngelaMos | 2026
// service_test.go

package project

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/teamstation/internal/audit"
	"github.com/angelamos/teamstation/internal/core"
	"github.com/angelamos/teamstation/internal/rbac"
	"github.com/angelamos/teamstation/internal/team"
)

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*Project
	members  map[string]*Member
	clock    time.Time
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{
		projects: make(map[string]*Project),
		members:  make(map[string]*Member),
		clock:    time.Now().Add(-time.Hour),
	}
}

func (f *fakeProjectRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeProjectRepo) CreateWithMembers(
	_ context.Context,
	p *Project,
	members []*Member,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.projects {
		if existing.TeamID == p.TeamID &&
			existing.Name == p.Name &&
			existing.DeletedAt == nil {
			return fmt.Errorf("create project: %w", core.ErrDuplicateKey)
		}
	}

	now := f.tick()
	p.CreatedAt = now
	p.UpdatedAt = now
	stored := *p
	f.projects[p.ID] = &stored

	for _, m := range members {
		m.ProjectID = p.ID
		m.CreatedAt = now
		copied := *m
		f.members[m.ID] = &copied
	}
	return nil
}

func (f *fakeProjectRepo) GetByID(
	_ context.Context,
	id string,
) (*Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.projects[id]
	if !ok || p.DeletedAt != nil {
		return nil, fmt.Errorf("get project: %w", core.ErrNotFound)
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProjectRepo) ListByTeam(
	_ context.Context,
	teamID, cursorID string,
	limit int,
) ([]Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var rows []Project
	for _, p := range f.projects {
		if p.TeamID == teamID && p.DeletedAt == nil {
			rows = append(rows, *p)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID > rows[j].ID
	})

	if cursorID != "" {
		idx := -1
		for i, row := range rows {
			if row.ID == cursorID {
				idx = i
				break
			}
		}
		if idx >= 0 {
			rows = rows[idx+1:]
		}
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeProjectRepo) Update(_ context.Context, p *Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.projects[p.ID]
	if !ok || stored.DeletedAt != nil {
		return fmt.Errorf("update project: %w", core.ErrNotFound)
	}
	stored.Name = p.Name
	stored.Description = p.Description
	stored.UpdatedAt = f.tick()
	p.UpdatedAt = stored.UpdatedAt
	return nil
}

func (f *fakeProjectRepo) SoftDeleteCascade(
	_ context.Context,
	projectID string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.projects[projectID]
	if !ok || p.DeletedAt != nil {
		return fmt.Errorf("delete project: %w", core.ErrNotFound)
	}
	now := f.tick()
	p.DeletedAt = &now
	return nil
}

func (f *fakeProjectRepo) AddMember(_ context.Context, m *Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.members {
		if existing.ProjectID == m.ProjectID && existing.UserID == m.UserID {
			return fmt.Errorf("add project member: %w", core.ErrDuplicateKey)
		}
	}
	m.CreatedAt = f.tick()
	copied := *m
	f.members[m.ID] = &copied
	return nil
}

func (f *fakeProjectRepo) GetMemberByUser(
	_ context.Context,
	projectID, userID string,
) (*Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, m := range f.members {
		if m.ProjectID == projectID && m.UserID == userID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("get project member: %w", core.ErrNotFound)
}

func (f *fakeProjectRepo) GetMemberByID(
	_ context.Context,
	memberID string,
) (*Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.members[memberID]
	if !ok {
		return nil, fmt.Errorf("get project member: %w", core.ErrNotFound)
	}
	copied := *m
	return &copied, nil
}

func (f *fakeProjectRepo) ListMembers(
	_ context.Context,
	projectID, cursorID string,
	limit int,
) ([]Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var rows []Member
	for _, m := range f.members {
		if m.ProjectID == projectID {
			rows = append(rows, *m)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID > rows[j].ID
	})

	if cursorID != "" {
		idx := -1
		for i, row := range rows {
			if row.ID == cursorID {
				idx = i
				break
			}
		}
		if idx >= 0 {
			rows = rows[idx+1:]
		}
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeProjectRepo) UpdateMemberRole(
	_ context.Context,
	memberID string,
	role rbac.ProjectRole,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.members[memberID]
	if !ok {
		return fmt.Errorf("update project member role: %w", core.ErrNotFound)
	}
	m.Role = role
	return nil
}

func (f *fakeProjectRepo) RemoveMember(
	_ context.Context,
	memberID string,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.members[memberID]; !ok {
		return fmt.Errorf("remove project member: %w", core.ErrNotFound)
	}
	delete(f.members, memberID)
	return nil
}

// fakeTeamDirectory holds one team with a fixed member set.
type fakeTeamDirectory struct {
	team    *team.Team
	members map[string]rbac.TeamRole
}

func newFakeTeamDirectory(teamID, ownerID string) *fakeTeamDirectory {
	return &fakeTeamDirectory{
		team: &team.Team{
			ID:        teamID,
			Name:      "Acme",
			CreatedBy: ownerID,
			CreatedAt: time.Now(),
		},
		members: map[string]rbac.TeamRole{
			ownerID: rbac.TeamRoleOwner,
		},
	}
}

func (d *fakeTeamDirectory) GetByID(
	_ context.Context,
	id string,
) (*team.Team, error) {
	if d.team.ID != id {
		return nil, fmt.Errorf("get team: %w", core.ErrNotFound)
	}
	copied := *d.team
	return &copied, nil
}

func (d *fakeTeamDirectory) GetMemberByUser(
	_ context.Context,
	teamID, userID string,
) (*team.Member, error) {
	role, ok := d.members[userID]
	if teamID != d.team.ID || !ok {
		return nil, fmt.Errorf("get team member: %w", core.ErrNotFound)
	}
	return &team.Member{
		ID:     "tm-" + userID,
		TeamID: teamID,
		UserID: userID,
		Role:   role,
	}, nil
}

func (d *fakeTeamDirectory) GetOwner(
	_ context.Context,
	teamID string,
) (*team.Member, error) {
	for userID, role := range d.members {
		if role == rbac.TeamRoleOwner {
			return &team.Member{
				ID:     "tm-" + userID,
				TeamID: teamID,
				UserID: userID,
				Role:   role,
			}, nil
		}
	}
	return nil, fmt.Errorf("get team owner: %w", core.ErrNotFound)
}

const testTeamID = "team-1"

func newTestProjectService() (*Service, *fakeProjectRepo, *fakeTeamDirectory) {
	repo := newFakeProjectRepo()
	teams := newFakeTeamDirectory(testTeamID, "owner")
	return NewService(repo, teams, audit.NopSink{}), repo, teams
}

func requireForbidden(t *testing.T, err error) {
	t.Helper()
	appErr, ok := core.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
}

func TestCreateProjectSeedsAdmins(t *testing.T) {
	svc, repo, teams := newTestProjectService()
	ctx := context.Background()
	teams.members["alice"] = rbac.TeamRoleAdmin

	// a team admin who is not the owner creates: both become project ADMIN
	resp, err := svc.CreateProject(ctx, "alice", testTeamID, CreateProjectRequest{
		Name: "Launch",
	})
	require.NoError(t, err)

	creator, err := repo.GetMemberByUser(ctx, resp.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, rbac.ProjectRoleAdmin, creator.Role)

	owner, err := repo.GetMemberByUser(ctx, resp.ID, "owner")
	require.NoError(t, err)
	assert.Equal(t, rbac.ProjectRoleAdmin, owner.Role)

	// the owner creating alone seeds a single membership
	resp2, err := svc.CreateProject(ctx, "owner", testTeamID, CreateProjectRequest{
		Name: "Solo",
	})
	require.NoError(t, err)

	members, err := repo.ListMembers(ctx, resp2.ID, "", 100)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestCreateProjectRequiresTeamAdmin(t *testing.T) {
	svc, _, teams := newTestProjectService()
	ctx := context.Background()
	teams.members["bob"] = rbac.TeamRoleMember

	_, err := svc.CreateProject(ctx, "bob", testTeamID, CreateProjectRequest{
		Name: "Launch",
	})
	requireForbidden(t, err)

	_, err = svc.CreateProject(ctx, "stranger", testTeamID, CreateProjectRequest{
		Name: "Launch",
	})
	requireForbidden(t, err)

	_, err = svc.CreateProject(ctx, "owner", "no-such-team", CreateProjectRequest{
		Name: "Launch",
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCreateProjectDuplicateNamePerTeam(t *testing.T) {
	svc, _, _ := newTestProjectService()
	ctx := context.Background()

	_, err := svc.CreateProject(ctx, "owner", testTeamID, CreateProjectRequest{
		Name: "Launch",
	})
	require.NoError(t, err)

	_, err = svc.CreateProject(ctx, "owner", testTeamID, CreateProjectRequest{
		Name: "Launch",
	})
	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestAddMemberRequiresTeamMembership(t *testing.T) {
	svc, _, teams := newTestProjectService()
	ctx := context.Background()

	resp, err := svc.CreateProject(ctx, "owner", testTeamID, CreateProjectRequest{
		Name: "Launch",
	})
	require.NoError(t, err)

	// outsider is not on the team
	_, err = svc.AddMember(ctx, "owner", resp.ID, AddMemberRequest{
		UserID: "outsider",
		Role:   "EDITOR",
	})
	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)

	// once on the team, the add succeeds
	teams.members["outsider"] = rbac.TeamRoleMember
	_, err = svc.AddMember(ctx, "owner", resp.ID, AddMemberRequest{
		UserID: "outsider",
		Role:   "EDITOR",
	})
	require.NoError(t, err)

	// and a second add is a conflict
	_, err = svc.AddMember(ctx, "owner", resp.ID, AddMemberRequest{
		UserID: "outsider",
		Role:   "MEMBER",
	})
	appErr, ok = core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestProjectRoleGrid(t *testing.T) {
	svc, _, teams := newTestProjectService()
	ctx := context.Background()
	teams.members["editor"] = rbac.TeamRoleMember
	teams.members["viewer"] = rbac.TeamRoleMember

	resp, err := svc.CreateProject(ctx, "owner", testTeamID, CreateProjectRequest{
		Name: "Launch",
	})
	require.NoError(t, err)
	projectID := resp.ID

	_, err = svc.AddMember(ctx, "owner", projectID, AddMemberRequest{
		UserID: "editor",
		Role:   "EDITOR",
	})
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, "owner", projectID, AddMemberRequest{
		UserID: "viewer",
		Role:   "MEMBER",
	})
	require.NoError(t, err)

	// any member reads
	_, err = svc.GetProject(ctx, "viewer", projectID)
	assert.NoError(t, err)

	// non-members do not
	_, err = svc.GetProject(ctx, "stranger", projectID)
	requireForbidden(t, err)

	// only ADMIN mutates the project
	name := "Renamed"
	_, err = svc.UpdateProject(ctx, "editor", projectID, UpdateProjectRequest{
		Name: &name,
	})
	requireForbidden(t, err)

	_, err = svc.UpdateProject(ctx, "owner", projectID, UpdateProjectRequest{
		Name: &name,
	})
	assert.NoError(t, err)

	// only ADMIN manages membership
	_, err = svc.AddMember(ctx, "editor", projectID, AddMemberRequest{
		UserID: "viewer",
		Role:   "MEMBER",
	})
	requireForbidden(t, err)

	// only ADMIN deletes
	err = svc.DeleteProject(ctx, "viewer", projectID)
	requireForbidden(t, err)
	err = svc.DeleteProject(ctx, "owner", projectID)
	assert.NoError(t, err)

	_, err = svc.GetProject(ctx, "owner", projectID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListProjectsPagination(t *testing.T) {
	svc, _, _ := newTestProjectService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.CreateProject(ctx, "owner", testTeamID, CreateProjectRequest{
			Name: fmt.Sprintf("Project %d", i),
		})
		require.NoError(t, err)
	}

	page, err := svc.ListProjects(ctx, "owner", testTeamID, core.PageQuery{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page.Data, 3)
	require.True(t, page.PageInfo.HasNextPage)

	page, err = svc.ListProjects(ctx, "owner", testTeamID, core.PageQuery{
		Cursor: *page.PageInfo.EndCursor,
		Limit:  3,
	})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.False(t, page.PageInfo.HasNextPage)
}

func TestUpdateAndRemoveProjectMember(t *testing.T) {
	svc, repo, teams := newTestProjectService()
	ctx := context.Background()
	teams.members["bob"] = rbac.TeamRoleMember

	resp, err := svc.CreateProject(ctx, "owner", testTeamID, CreateProjectRequest{
		Name: "Launch",
	})
	require.NoError(t, err)

	added, err := svc.AddMember(ctx, "owner", resp.ID, AddMemberRequest{
		UserID: "bob",
		Role:   "MEMBER",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateMemberRole(
		ctx,
		"owner",
		resp.ID,
		added.ID,
		UpdateMemberRoleRequest{Role: "EDITOR"},
	)
	require.NoError(t, err)
	assert.Equal(t, rbac.ProjectRoleEditor, updated.Role)

	require.NoError(t, svc.RemoveMember(ctx, "owner", resp.ID, added.ID))

	_, err = repo.GetMemberByUser(ctx, resp.ID, "bob")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

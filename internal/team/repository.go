// AngelaMos | 2026
// repository.go

package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/angelamos/teamstation/internal/core"
	"github.com/angelamos/teamstation/internal/rbac"
)

type Repository interface {
	// CreateWithOwner inserts the team and its first OWNER membership in one
	// transaction; a team is never observable without an owner.
	CreateWithOwner(ctx context.Context, t *Team, owner *Member) error
	GetByID(ctx context.Context, id string) (*Team, error)
	ExistsByNameForCreator(
		ctx context.Context,
		createdBy, name string,
	) (bool, error)
	ListByUser(
		ctx context.Context,
		userID, cursorID string,
		limit int,
	) ([]TeamWithRole, error)
	Update(ctx context.Context, t *Team) error
	// SoftDeleteCascade marks the team, its projects, and their documents
	// deleted in one transaction so no reader observes a partial cascade.
	SoftDeleteCascade(ctx context.Context, teamID string) error

	AddMember(ctx context.Context, m *Member) error
	GetOwner(ctx context.Context, teamID string) (*Member, error)
	GetMemberByUser(ctx context.Context, teamID, userID string) (*Member, error)
	GetMemberByID(ctx context.Context, memberID string) (*Member, error)
	ListMembers(
		ctx context.Context,
		teamID, cursorID string,
		limit int,
	) ([]Member, error)
	UpdateMemberRole(
		ctx context.Context,
		memberID string,
		role rbac.TeamRole,
	) error
	// TransferOwnership promotes target to OWNER and demotes the current
	// owner to ADMIN in one transaction, preserving the single-owner
	// invariant at every observable instant.
	TransferOwnership(
		ctx context.Context,
		actorMemberID, targetMemberID string,
	) error
	RemoveMember(ctx context.Context, memberID string) error
}

type repository struct {
	db   core.DBTX
	pool *sqlx.DB
}

func NewRepository(pool *sqlx.DB) Repository {
	return &repository{db: pool, pool: pool}
}

const teamColumns = `id, name, description, created_by,
	created_at, updated_at, deleted_at`

func (r *repository) CreateWithOwner(
	ctx context.Context,
	t *Team,
	owner *Member,
) error {
	return core.InTx(ctx, r.pool, func(tx *sqlx.Tx) error {
		txRepo := &repository{db: tx}

		if err := txRepo.insertTeam(ctx, t); err != nil {
			return err
		}

		owner.TeamID = t.ID
		return txRepo.AddMember(ctx, owner)
	})
}

func (r *repository) insertTeam(ctx context.Context, t *Team) error {
	query := `
		INSERT INTO teams (id, name, description, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		t.ID,
		t.Name,
		t.Description,
		t.CreatedBy,
	)
	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create team: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create team: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Team, error) {
	query := `
		SELECT ` + teamColumns + `
		FROM teams
		WHERE id = $1 AND deleted_at IS NULL`

	var t Team
	err := r.db.GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get team: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}

	return &t, nil
}

func (r *repository) ExistsByNameForCreator(
	ctx context.Context,
	createdBy, name string,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM teams
			WHERE created_by = $1 AND name = $2 AND deleted_at IS NULL
		)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, createdBy, name)
	if err != nil {
		return false, fmt.Errorf("check team name: %w", err)
	}

	return exists, nil
}

func (r *repository) ListByUser(
	ctx context.Context,
	userID, cursorID string,
	limit int,
) ([]TeamWithRole, error) {
	query := `
		SELECT t.id, t.name, t.description, t.created_by,
		       t.created_at, t.updated_at, t.deleted_at, tm.role
		FROM teams t
		JOIN team_members tm ON tm.team_id = t.id
		WHERE tm.user_id = $1
			AND t.deleted_at IS NULL
			AND ($2 = '' OR (t.created_at, t.id) < (
				SELECT created_at, id FROM teams WHERE id = $2
			))
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $3`

	var teams []TeamWithRole
	err := r.db.SelectContext(ctx, &teams, query, userID, cursorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	return teams, nil
}

func (r *repository) Update(ctx context.Context, t *Team) error {
	query := `
		UPDATE teams
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &t.UpdatedAt, query,
		t.ID,
		t.Name,
		t.Description,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update team: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("update team: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update team: %w", err)
	}

	return nil
}

func (r *repository) SoftDeleteCascade(
	ctx context.Context,
	teamID string,
) error {
	return core.InTx(ctx, r.pool, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE teams
			SET deleted_at = NOW()
			WHERE id = $1 AND deleted_at IS NULL`,
			teamID,
		)
		if err != nil {
			return fmt.Errorf("delete team: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete team: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("delete team: %w", core.ErrNotFound)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE documents
			SET deleted_at = NOW()
			WHERE deleted_at IS NULL
				AND project_id IN (
					SELECT id FROM projects
					WHERE team_id = $1 AND deleted_at IS NULL
				)`,
			teamID,
		)
		if err != nil {
			return fmt.Errorf("cascade documents: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE projects
			SET deleted_at = NOW()
			WHERE team_id = $1 AND deleted_at IS NULL`,
			teamID,
		)
		if err != nil {
			return fmt.Errorf("cascade projects: %w", err)
		}

		return nil
	})
}

const memberColumns = `id, team_id, user_id, role, added_by, created_at`

func (r *repository) AddMember(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO team_members (id, team_id, user_id, role, added_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &m.CreatedAt, query,
		m.ID,
		m.TeamID,
		m.UserID,
		m.Role,
		m.AddedBy,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("add team member: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("add team member: %w", err)
	}

	return nil
}

func (r *repository) GetOwner(
	ctx context.Context,
	teamID string,
) (*Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM team_members
		WHERE team_id = $1 AND role = 'OWNER'`

	var m Member
	err := r.db.GetContext(ctx, &m, query, teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get team owner: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get team owner: %w", err)
	}

	return &m, nil
}

func (r *repository) GetMemberByUser(
	ctx context.Context,
	teamID, userID string,
) (*Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM team_members
		WHERE team_id = $1 AND user_id = $2`

	var m Member
	err := r.db.GetContext(ctx, &m, query, teamID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get team member: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get team member: %w", err)
	}

	return &m, nil
}

func (r *repository) GetMemberByID(
	ctx context.Context,
	memberID string,
) (*Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM team_members
		WHERE id = $1`

	var m Member
	err := r.db.GetContext(ctx, &m, query, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get team member: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get team member: %w", err)
	}

	return &m, nil
}

func (r *repository) ListMembers(
	ctx context.Context,
	teamID, cursorID string,
	limit int,
) ([]Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM team_members
		WHERE team_id = $1
			AND ($2 = '' OR (created_at, id) < (
				SELECT created_at, id FROM team_members WHERE id = $2
			))
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	var members []Member
	err := r.db.SelectContext(ctx, &members, query, teamID, cursorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}

	return members, nil
}

func (r *repository) UpdateMemberRole(
	ctx context.Context,
	memberID string,
	role rbac.TeamRole,
) error {
	query := `
		UPDATE team_members
		SET role = $2
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, memberID, role)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update member role: %w", core.ErrNotFound)
	}

	return nil
}

// TransferOwnership promotes the target and demotes the current owner in one
// transaction. The demote is conditioned on the actor still holding OWNER, so
// two concurrent transfers cannot leave the team with two owners: the loser's
// demote matches zero rows and the whole transaction rolls back.
func (r *repository) TransferOwnership(
	ctx context.Context,
	actorMemberID, targetMemberID string,
) error {
	return core.InTx(ctx, r.pool, func(tx *sqlx.Tx) error {
		txRepo := &repository{db: tx}

		if err := txRepo.UpdateMemberRole(
			ctx,
			targetMemberID,
			rbac.TeamRoleOwner,
		); err != nil {
			return err
		}

		query := `
			UPDATE team_members
			SET role = 'ADMIN'
			WHERE id = $1 AND role = 'OWNER'`

		result, err := tx.ExecContext(ctx, query, actorMemberID)
		if err != nil {
			return fmt.Errorf("demote owner: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("demote owner: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("demote owner: %w", core.ErrDuplicateKey)
		}

		return nil
	})
}

// RemoveMember refuses to delete an OWNER row. The service rejects removing
// the owner up front, but a transfer racing the removal could promote the
// member in between; the role guard turns that into a conflict instead of an
// ownerless team.
func (r *repository) RemoveMember(ctx context.Context, memberID string) error {
	query := `
		DELETE FROM team_members
		WHERE id = $1 AND role <> 'OWNER'`

	result, err := r.db.ExecContext(ctx, query, memberID)
	if err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("remove team member: %w", core.ErrDuplicateKey)
	}

	return nil
}

// AngelaMos | 2026
// repository.go

package project

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
	// CreateWithMembers inserts the project and its seeded ADMIN memberships
	// in one transaction; a project is never observable without its admins.
	CreateWithMembers(
		ctx context.Context,
		p *Project,
		members []*Member,
	) error
	GetByID(ctx context.Context, id string) (*Project, error)
	ListByTeam(
		ctx context.Context,
		teamID, cursorID string,
		limit int,
	) ([]Project, error)
	Update(ctx context.Context, p *Project) error
	// SoftDeleteCascade marks the project and its documents deleted in one
	// transaction.
	SoftDeleteCascade(ctx context.Context, projectID string) error

	AddMember(ctx context.Context, m *Member) error
	GetMemberByUser(
		ctx context.Context,
		projectID, userID string,
	) (*Member, error)
	GetMemberByID(ctx context.Context, memberID string) (*Member, error)
	ListMembers(
		ctx context.Context,
		projectID, cursorID string,
		limit int,
	) ([]Member, error)
	UpdateMemberRole(
		ctx context.Context,
		memberID string,
		role rbac.ProjectRole,
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

const projectColumns = `id, team_id, name, description, created_by,
	created_at, updated_at, deleted_at`

func (r *repository) CreateWithMembers(
	ctx context.Context,
	p *Project,
	members []*Member,
) error {
	return core.InTx(ctx, r.pool, func(tx *sqlx.Tx) error {
		txRepo := &repository{db: tx}

		query := `
			INSERT INTO projects (id, team_id, name, description, created_by)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at`

		row := tx.QueryRowxContext(ctx, query,
			p.ID,
			p.TeamID,
			p.Name,
			p.Description,
			p.CreatedBy,
		)
		if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
			if core.IsUniqueViolation(err) {
				return fmt.Errorf("create project: %w", core.ErrDuplicateKey)
			}
			return fmt.Errorf("create project: %w", err)
		}

		for _, m := range members {
			m.ProjectID = p.ID
			if err := txRepo.AddMember(ctx, m); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *repository) GetByID(
	ctx context.Context,
	id string,
) (*Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE id = $1 AND deleted_at IS NULL`

	var p Project
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get project: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	return &p, nil
}

func (r *repository) ListByTeam(
	ctx context.Context,
	teamID, cursorID string,
	limit int,
) ([]Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE team_id = $1
			AND deleted_at IS NULL
			AND ($2 = '' OR (created_at, id) < (
				SELECT created_at, id FROM projects WHERE id = $2
			))
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	var projects []Project
	err := r.db.SelectContext(ctx, &projects, query, teamID, cursorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return projects, nil
}

func (r *repository) Update(ctx context.Context, p *Project) error {
	query := `
		UPDATE projects
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &p.UpdatedAt, query,
		p.ID,
		p.Name,
		p.Description,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update project: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("update project: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update project: %w", err)
	}

	return nil
}

func (r *repository) SoftDeleteCascade(
	ctx context.Context,
	projectID string,
) error {
	return core.InTx(ctx, r.pool, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE projects
			SET deleted_at = NOW()
			WHERE id = $1 AND deleted_at IS NULL`,
			projectID,
		)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("delete project: %w", core.ErrNotFound)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE documents
			SET deleted_at = NOW()
			WHERE project_id = $1 AND deleted_at IS NULL`,
			projectID,
		)
		if err != nil {
			return fmt.Errorf("cascade documents: %w", err)
		}

		return nil
	})
}

const memberColumns = `id, project_id, user_id, role, added_by, created_at`

func (r *repository) AddMember(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO project_members (id, project_id, user_id, role, added_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &m.CreatedAt, query,
		m.ID,
		m.ProjectID,
		m.UserID,
		m.Role,
		m.AddedBy,
	)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("add project member: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("add project member: %w", err)
	}

	return nil
}

func (r *repository) GetMemberByUser(
	ctx context.Context,
	projectID, userID string,
) (*Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM project_members
		WHERE project_id = $1 AND user_id = $2`

	var m Member
	err := r.db.GetContext(ctx, &m, query, projectID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get project member: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project member: %w", err)
	}

	return &m, nil
}

func (r *repository) GetMemberByID(
	ctx context.Context,
	memberID string,
) (*Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM project_members
		WHERE id = $1`

	var m Member
	err := r.db.GetContext(ctx, &m, query, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get project member: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project member: %w", err)
	}

	return &m, nil
}

func (r *repository) ListMembers(
	ctx context.Context,
	projectID, cursorID string,
	limit int,
) ([]Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM project_members
		WHERE project_id = $1
			AND ($2 = '' OR (created_at, id) < (
				SELECT created_at, id FROM project_members WHERE id = $2
			))
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	var members []Member
	err := r.db.SelectContext(ctx, &members, query, projectID, cursorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}

	return members, nil
}

func (r *repository) UpdateMemberRole(
	ctx context.Context,
	memberID string,
	role rbac.ProjectRole,
) error {
	query := `
		UPDATE project_members
		SET role = $2
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, memberID, role)
	if err != nil {
		return fmt.Errorf("update project member role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project member role: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update project member role: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) RemoveMember(
	ctx context.Context,
	memberID string,
) error {
	query := `
		DELETE FROM project_members
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, memberID)
	if err != nil {
		return fmt.Errorf("remove project member: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove project member: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("remove project member: %w", core.ErrNotFound)
	}

	return nil
}

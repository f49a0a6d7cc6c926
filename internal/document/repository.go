// AngelaMos | 2026
// repository.go

package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/angelamos/teamstation/internal/core"
)

type Repository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id string) (*Document, error)
	ListByProject(
		ctx context.Context,
		projectID, cursorID string,
		limit int,
	) ([]Document, error)
	Update(ctx context.Context, d *Document) error
	SoftDelete(ctx context.Context, id string) error
}

type repository struct {
	db   core.DBTX
	pool *sqlx.DB
}

func NewRepository(pool *sqlx.DB) Repository {
	return &repository{db: pool, pool: pool}
}

const documentColumns = `id, project_id, title, content, author_id,
	created_at, updated_at, deleted_at`

func (r *repository) Create(ctx context.Context, d *Document) error {
	query := `
		INSERT INTO documents (id, project_id, title, content, author_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	row := r.db.QueryRowxContext(ctx, query,
		d.ID,
		d.ProjectID,
		d.Title,
		d.Content,
		d.AuthorID,
	)
	if err := row.Scan(&d.CreatedAt, &d.UpdatedAt); err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create document: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id string,
) (*Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1 AND deleted_at IS NULL`

	var d Document
	err := r.db.GetContext(ctx, &d, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get document: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	return &d, nil
}

func (r *repository) ListByProject(
	ctx context.Context,
	projectID, cursorID string,
	limit int,
) ([]Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE project_id = $1
			AND deleted_at IS NULL
			AND ($2 = '' OR (created_at, id) < (
				SELECT created_at, id FROM documents WHERE id = $2
			))
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	docs := []Document{}
	err := r.db.SelectContext(ctx, &docs, query, projectID, cursorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return docs, nil
}

func (r *repository) Update(ctx context.Context, d *Document) error {
	query := `
		UPDATE documents
		SET title = $2, content = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	row := r.db.QueryRowxContext(ctx, query, d.ID, d.Title, d.Content)
	if err := row.Scan(&d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update document: %w", core.ErrNotFound)
		}
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("update document: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update document: %w", err)
	}

	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE documents
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete document: %w", core.ErrNotFound)
	}

	return nil
}

// AngelaMos | 2026
// repository.go

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelamos/teamstation/internal/core"
)

type Filter struct {
	UserID     string
	Action     string
	EntityType string
	From       *time.Time
	To         *time.Time
}

type ActionCount struct {
	Action string `db:"action" json:"action"`
	Count  int64  `db:"count"  json:"count"`
}

type Stats struct {
	TotalEntries int64         `json:"total_entries"`
	ByAction     []ActionCount `json:"by_action"`
}

type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	List(
		ctx context.Context,
		filter Filter,
		cursorID string,
		limit int,
	) ([]Entry, error)
	GetStats(ctx context.Context) (*Stats, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

type entryRow struct {
	Entry
	MetadataJSON []byte `db:"metadata"`
}

func (r *repository) Insert(ctx context.Context, entry *Entry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	query := `
		INSERT INTO audit_entries (
			id, user_id, action, entity_type, entity_id, ip_address, metadata
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		RETURNING created_at`

	err = r.db.GetContext(ctx, &entry.CreatedAt, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.IPAddress,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	filter Filter,
	cursorID string,
	limit int,
) ([]Entry, error) {
	query := `
		SELECT id, user_id, action, entity_type, entity_id, ip_address,
		       metadata, created_at
		FROM audit_entries
		WHERE ($1 = '' OR user_id = $1)
			AND ($2 = '' OR action = $2)
			AND ($3 = '' OR entity_type = $3)
			AND ($4::timestamptz IS NULL OR created_at >= $4)
			AND ($5::timestamptz IS NULL OR created_at <= $5)
			AND ($6 = '' OR (created_at, id) < (
				SELECT created_at, id FROM audit_entries WHERE id = $6
			))
		ORDER BY created_at DESC, id DESC
		LIMIT $7`

	var rows []entryRow
	err := r.db.SelectContext(ctx, &rows, query,
		filter.UserID,
		filter.Action,
		filter.EntityType,
		filter.From,
		filter.To,
		cursorID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entry := row.Entry
		if len(row.MetadataJSON) > 0 {
			//nolint:errcheck // malformed stored metadata degrades to empty
			_ = json.Unmarshal(row.MetadataJSON, &entry.Metadata)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *repository) GetStats(ctx context.Context) (*Stats, error) {
	var total int64
	err := r.db.GetContext(
		ctx,
		&total,
		`SELECT COUNT(*) FROM audit_entries`,
	)
	if err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}

	query := `
		SELECT action, COUNT(*) AS count
		FROM audit_entries
		GROUP BY action
		ORDER BY count DESC, action ASC`

	var byAction []ActionCount
	if err := r.db.SelectContext(ctx, &byAction, query); err != nil {
		return nil, fmt.Errorf("aggregate audit entries: %w", err)
	}

	return &Stats{
		TotalEntries: total,
		ByAction:     byAction,
	}, nil
}

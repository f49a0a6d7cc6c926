// AngelaMos | 2026
// entity.go

package document

import "time"

type Document struct {
	ID        string     `db:"id"`
	ProjectID string     `db:"project_id"`
	Title     string     `db:"title"`
	Content   string     `db:"content"`
	AuthorID  string     `db:"author_id"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

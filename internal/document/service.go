// AngelaMos | 2026
// service.go

package document

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/angelamos/teamstation/internal/audit"
	"github.com/angelamos/teamstation/internal/core"
	"github.com/angelamos/teamstation/internal/middleware"
	"github.com/angelamos/teamstation/internal/project"
	"github.com/angelamos/teamstation/internal/rbac"
)

// ProjectDirectory is the slice of the project store this service needs.
// project.Repository satisfies it.
type ProjectDirectory interface {
	GetByID(ctx context.Context, id string) (*project.Project, error)
	GetMemberByUser(
		ctx context.Context,
		projectID, userID string,
	) (*project.Member, error)
}

type Service struct {
	repo     Repository
	projects ProjectDirectory
	audit    audit.Sink
}

func NewService(
	repo Repository,
	projects ProjectDirectory,
	sink audit.Sink,
) *Service {
	return &Service{
		repo:     repo,
		projects: projects,
		audit:    sink,
	}
}

// CreateDocument is open to any active project member.
func (s *Service) CreateDocument(
	ctx context.Context,
	actorID, projectID string,
	req CreateDocumentRequest,
) (*DocumentResponse, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	member, err := s.projectMembership(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}

	if d := rbac.CanActOnProject(
		member.Membership(),
		rbac.ProjectActionCreateDocument,
	); !d.Allowed {
		return nil, core.ForbiddenError(d.Reason)
	}

	doc := &Document{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Title:     req.Title,
		Content:   req.Content,
		AuthorID:  actorID,
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("document title")
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     actorID,
		Action:     audit.ActionDocumentCreate,
		EntityType: "document",
		EntityID:   doc.ID,
		IPAddress:  middleware.GetClientIP(ctx),
		Metadata:   map[string]any{"project_id": projectID, "title": doc.Title},
	})

	resp := ToDocumentResponse(doc)
	return &resp, nil
}

func (s *Service) GetDocument(
	ctx context.Context,
	actorID, documentID string,
) (*DocumentResponse, error) {
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	member, err := s.projectMembership(ctx, doc.ProjectID, actorID)
	if err != nil {
		return nil, err
	}

	if d := rbac.CanActOnProject(
		member.Membership(),
		rbac.ProjectActionRead,
	); !d.Allowed {
		return nil, core.ForbiddenError(d.Reason)
	}

	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// ListDocuments returns title-level summaries; content is fetched per
// document.
func (s *Service) ListDocuments(
	ctx context.Context,
	actorID, projectID string,
	page core.PageQuery,
) (*core.Page[DocumentSummary], error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
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

	docs, err := s.repo.ListByProject(ctx, projectID, cursorID, page.Limit+1)
	if err != nil {
		return nil, err
	}

	summaries := make([]DocumentSummary, 0, len(docs))
	for i := range docs {
		summaries = append(summaries, ToDocumentSummary(&docs[i]))
	}

	result := core.NewPage(
		summaries,
		page.Limit,
		func(d DocumentSummary) string { return d.ID },
	)
	return &result, nil
}

// UpdateDocument requires EDITOR or ADMIN on the owning project.
func (s *Service) UpdateDocument(
	ctx context.Context,
	actorID, documentID string,
	req UpdateDocumentRequest,
) (*DocumentResponse, error) {
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	member, err := s.projectMembership(ctx, doc.ProjectID, actorID)
	if err != nil {
		return nil, err
	}

	if d := rbac.CanActOnProject(
		member.Membership(),
		rbac.ProjectActionUpdateDocument,
	); !d.Allowed {
		return nil, core.ForbiddenError(d.Reason)
	}

	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.Content != nil {
		doc.Content = *req.Content
	}

	if err := s.repo.Update(ctx, doc); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("document title")
		}
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     actorID,
		Action:     audit.ActionDocumentUpdate,
		EntityType: "document",
		EntityID:   doc.ID,
		IPAddress:  middleware.GetClientIP(ctx),
		Metadata:   map[string]any{"project_id": doc.ProjectID},
	})

	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// DeleteDocument is ADMIN-only on the owning project.
func (s *Service) DeleteDocument(
	ctx context.Context,
	actorID, documentID string,
) error {
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	member, err := s.projectMembership(ctx, doc.ProjectID, actorID)
	if err != nil {
		return err
	}

	if d := rbac.CanActOnProject(
		member.Membership(),
		rbac.ProjectActionDeleteDocument,
	); !d.Allowed {
		return core.ForbiddenError(d.Reason)
	}

	if err := s.repo.SoftDelete(ctx, documentID); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:     actorID,
		Action:     audit.ActionDocumentDelete,
		EntityType: "document",
		EntityID:   documentID,
		IPAddress:  middleware.GetClientIP(ctx),
		Metadata:   map[string]any{"project_id": doc.ProjectID},
	})

	return nil
}

func (s *Service) projectMembership(
	ctx context.Context,
	projectID, userID string,
) (*project.Member, error) {
	m, err := s.projects.GetMemberByUser(ctx, projectID, userID)
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

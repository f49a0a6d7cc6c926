// AngelaMos | 2026
// handler.go

package audit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelamos/teamstation/internal/core"
	"github.com/angelamos/teamstation/internal/middleware"
	"github.com/angelamos/teamstation/internal/rbac"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListEntries(
	ctx context.Context,
	filter Filter,
	page core.PageQuery,
) (*core.Page[Entry], error) {
	cursorID, err := page.CursorID()
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.List(ctx, filter, cursorID, page.Limit+1)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	result := core.NewPage(entries, page.Limit, func(e Entry) string {
		return e.ID
	})
	return &result, nil
}

func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	return s.repo.GetStats(ctx)
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/admin/audit-logs", func(r chi.Router) {
		r.Use(authenticator)

		r.With(middleware.RequirePermission(rbac.PlatformActionViewAuditLogs)).
			Get("/", h.List)
		r.With(middleware.RequirePermission(rbac.PlatformActionViewAuditStats)).
			Get("/stats", h.GetStats)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := Filter{
		UserID:     r.URL.Query().Get("user_id"),
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entity_type"),
	}

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			core.BadRequest(w, "malformed 'from' timestamp, want RFC 3339")
			return
		}
		filter.From = &from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			core.BadRequest(w, "malformed 'to' timestamp, want RFC 3339")
			return
		}
		filter.To = &to
	}

	page, err := h.service.ListEntries(
		r.Context(),
		filter,
		core.ParsePageQuery(r),
	)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "malformed cursor")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, page)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, stats)
}

// AngelaMos | 2026
// handler.go

package document

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/angelamos/teamstation/internal/core"
	"github.com/angelamos/teamstation/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/projects/{projectID}/documents", h.Create)
		r.Get("/projects/{projectID}/documents", h.List)

		r.Route("/documents/{documentID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	projectID := chi.URLParam(r, "projectID")

	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.CreateDocument(r.Context(), actorID, projectID, req)
	if err != nil {
		core.WriteServiceError(w, err, "document")
		return
	}

	core.Created(w, resp)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	projectID := chi.URLParam(r, "projectID")

	page, err := h.service.ListDocuments(
		r.Context(),
		actorID,
		projectID,
		core.ParsePageQuery(r),
	)
	if err != nil {
		core.WriteServiceError(w, err, "document")
		return
	}

	core.OK(w, page)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	documentID := chi.URLParam(r, "documentID")

	resp, err := h.service.GetDocument(r.Context(), actorID, documentID)
	if err != nil {
		core.WriteServiceError(w, err, "document")
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	documentID := chi.URLParam(r, "documentID")

	var req UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.UpdateDocument(r.Context(), actorID, documentID, req)
	if err != nil {
		core.WriteServiceError(w, err, "document")
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	documentID := chi.URLParam(r, "documentID")

	if err := h.service.DeleteDocument(r.Context(), actorID, documentID); err != nil {
		core.WriteServiceError(w, err, "document")
		return
	}

	core.NoContent(w)
}

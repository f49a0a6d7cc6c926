// AngelaMos | 2026
// handler.go

package team

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
	r.Route("/teams", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Create)
		r.Get("/", h.List)

		r.Route("/{teamID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)

			r.Route("/members", func(r chi.Router) {
				r.Post("/", h.AddMember)
				r.Get("/", h.ListMembers)
				r.Put("/{memberID}/role", h.UpdateMemberRole)
				r.Delete("/{memberID}", h.RemoveMember)
			})
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())

	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.CreateTeam(r.Context(), actorID, req)
	if err != nil {
		core.WriteServiceError(w, err, "team")
		return
	}

	core.Created(w, resp)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())

	page, err := h.service.ListTeams(
		r.Context(),
		actorID,
		core.ParsePageQuery(r),
	)
	if err != nil {
		core.WriteServiceError(w, err, "team")
		return
	}

	core.OK(w, page)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	teamID := chi.URLParam(r, "teamID")

	resp, err := h.service.GetTeam(r.Context(), actorID, teamID)
	if err != nil {
		core.WriteServiceError(w, err, "team")
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	teamID := chi.URLParam(r, "teamID")

	var req UpdateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.UpdateTeam(r.Context(), actorID, teamID, req)
	if err != nil {
		core.WriteServiceError(w, err, "team")
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	teamID := chi.URLParam(r, "teamID")

	if err := h.service.DeleteTeam(r.Context(), actorID, teamID); err != nil {
		core.WriteServiceError(w, err, "team")
		return
	}

	core.NoContent(w)
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	teamID := chi.URLParam(r, "teamID")

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.AddMember(r.Context(), actorID, teamID, req)
	if err != nil {
		core.WriteServiceError(w, err, "team member")
		return
	}

	core.Created(w, resp)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	teamID := chi.URLParam(r, "teamID")

	page, err := h.service.ListMembers(
		r.Context(),
		actorID,
		teamID,
		core.ParsePageQuery(r),
	)
	if err != nil {
		core.WriteServiceError(w, err, "team member")
		return
	}

	core.OK(w, page)
}

func (h *Handler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	teamID := chi.URLParam(r, "teamID")
	memberID := chi.URLParam(r, "memberID")

	var req UpdateMemberRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.UpdateMemberRole(
		r.Context(),
		actorID,
		teamID,
		memberID,
		req,
	)
	if err != nil {
		core.WriteServiceError(w, err, "team member")
		return
	}

	core.OK(w, resp)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	teamID := chi.URLParam(r, "teamID")
	memberID := chi.URLParam(r, "memberID")

	err := h.service.RemoveMember(r.Context(), actorID, teamID, memberID)
	if err != nil {
		core.WriteServiceError(w, err, "team member")
		return
	}

	core.NoContent(w)
}

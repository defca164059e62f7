package event

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/loyalprogram/loyalty-api/internal/middleware"
	"github.com/loyalprogram/loyalty-api/internal/pkg/errorhandler"
	"github.com/loyalprogram/loyalty-api/internal/pkg/response"
	"github.com/loyalprogram/loyalty-api/internal/pkg/validator"
)

var errorRules = []errorhandler.Rule{
	{Err: ErrEventNotFound, Status: http.StatusNotFound, Code: "EVENT_NOT_FOUND", Message: "Event not found"},
	{Err: ErrInvalidWindow, Status: http.StatusBadRequest, Code: "INVALID_WINDOW", Message: "end_time must be after start_time"},
	{Err: ErrNothingToUpdate, Status: http.StatusBadRequest, Code: "NOTHING_TO_UPDATE", Message: "No fields to update"},
	{Err: ErrForbidden, Status: http.StatusForbidden, Code: "FORBIDDEN", Message: "Insufficient permissions"},
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /events?upcoming=true
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := response.PageParams(r)
	upcoming := r.URL.Query().Get("upcoming") == "true"

	items, total, err := h.service.List(r.Context(), upcoming, limit, response.Offset(page, limit))
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.WithMeta(w, items, response.NewMeta(total, page, limit))
}

// Get handles GET /events/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.OK(w, e)
}

// Create handles POST /events
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	e := &Event{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
	}
	if err := h.service.Create(r.Context(), actor, e); err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.Created(w, e)
}

// Update handles PATCH /events/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	e, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.OK(w, e)
}

// Delete handles DELETE /events/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	actor, _ := middleware.GetActor(r.Context())
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.NoContent(w)
}

func eventID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid event id")
		return 0, false
	}
	return id, true
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireManager())
		r.Post("/", h.Create)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	return r
}

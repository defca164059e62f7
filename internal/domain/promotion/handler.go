package promotion

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
	{Err: ErrPromotionNotFound, Status: http.StatusNotFound, Code: "PROMOTION_NOT_FOUND", Message: "Promotion not found"},
	{Err: ErrInvalidWindow, Status: http.StatusBadRequest, Code: "INVALID_WINDOW", Message: "end_time must be after start_time"},
	{Err: ErrNothingToUpdate, Status: http.StatusBadRequest, Code: "NOTHING_TO_UPDATE", Message: "No fields to update"},
	{Err: ErrForbidden, Status: http.StatusForbidden, Code: "FORBIDDEN", Message: "Insufficient permissions"},
}

// Handler handles promotion HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates new promotion handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List returns promotions
// GET /api/v1/promotions?active=true
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := response.PageParams(r)
	active := r.URL.Query().Get("active") == "true"

	items, total, err := h.service.List(r.Context(), active, limit, response.Offset(page, limit))
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}

	now := h.service.now()
	out := make([]*Response, 0, len(items))
	for _, p := range items {
		out = append(out, p.ToResponse(now))
	}
	response.WithMeta(w, out, response.NewMeta(total, page, limit))
}

// Get returns a specific promotion
// GET /api/v1/promotions/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := promotionID(w, r)
	if !ok {
		return
	}
	promo, err := h.service.Get(r.Context(), id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.OK(w, promo.ToResponse(h.service.now()))
}

// Create creates a new promotion
// POST /api/v1/promotions
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
	promo := &Promotion{
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
	}
	if err := h.service.Create(r.Context(), actor, promo); err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.Created(w, promo.ToResponse(h.service.now()))
}

// Update edits a promotion
// PATCH /api/v1/promotions/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := promotionID(w, r)
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
	promo, err := h.service.Update(r.Context(), actor, id, req.Patch())
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.OK(w, promo.ToResponse(h.service.now()))
}

// Delete removes a promotion
// DELETE /api/v1/promotions/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := promotionID(w, r)
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

func promotionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid promotion id")
		return 0, false
	}
	return id, true
}

// Routes returns promotion routes
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

package profile

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/middleware"
	"github.com/loyalprogram/loyalty-api/internal/pkg/errorhandler"
	"github.com/loyalprogram/loyalty-api/internal/pkg/imaging"
	"github.com/loyalprogram/loyalty-api/internal/pkg/response"
	"github.com/loyalprogram/loyalty-api/internal/pkg/validator"
)

var errorRules = []errorhandler.Rule{
	{Err: user.ErrUserNotFound, Status: http.StatusNotFound, Code: "USER_NOT_FOUND", Message: "User not found"},
	{Err: user.ErrUTORidTaken, Status: http.StatusConflict, Code: "UTORID_TAKEN", Message: "utorid already registered"},
	{Err: user.ErrEmailTaken, Status: http.StatusConflict, Code: "EMAIL_TAKEN", Message: "Email already registered"},
	{Err: user.ErrForbidden, Status: http.StatusForbidden, Code: "FORBIDDEN", Message: "Insufficient permissions"},
	{Err: user.ErrInvalidRole, Status: http.StatusBadRequest, Code: "INVALID_ROLE", Message: "Invalid role"},
	{Err: user.ErrNothingToUpdate, Status: http.StatusBadRequest, Code: "NOTHING_TO_UPDATE", Message: "No fields to update"},
	{Err: ErrWeakPassword, Status: http.StatusBadRequest, Code: "WEAK_PASSWORD", Message: "Password must be at least 8 characters"},
}

// Handler handles member account HTTP requests
type Handler struct {
	service *Service
	qr      *imaging.QRRenderer
}

// NewHandler creates profile handler
func NewHandler(service *Service, qr *imaging.QRRenderer) *Handler {
	return &Handler{service: service, qr: qr}
}

// GetMe handles GET /users/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r.Context())
	u, err := h.service.Get(r.Context(), actor, actor.ID)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.OK(w, u)
}

// UpdateMe handles PATCH /users/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateMeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	u, err := h.service.UpdateMe(r.Context(), actor, &req)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.OK(w, u)
}

// MyQR handles GET /users/me/qr
func (h *Handler) MyQR(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r.Context())
	payload, err := h.service.QRPayload(r.Context(), actor)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.OK(w, QRResponse{Payload: payload})
}

// MyQRImage handles GET /users/me/qr.png?size=
func (h *Handler) MyQRImage(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r.Context())
	payload, err := h.service.QRPayload(r.Context(), actor)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	png, err := h.qr.PNG(payload, size)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, nil)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// Register handles POST /users
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	u, err := h.service.Register(r.Context(), actor, &req)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.Created(w, u)
}

// List handles GET /users?role=&verified=&search=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := response.PageParams(r)
	q := r.URL.Query()

	filter := user.ListFilter{
		Role:   user.Role(q.Get("role")),
		Search: q.Get("search"),
		Limit:  limit,
		Offset: response.Offset(page, limit),
	}
	if v := q.Get("verified"); v != "" {
		verified, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(w, "verified must be true or false")
			return
		}
		filter.Verified = &verified
	}

	actor, _ := middleware.GetActor(r.Context())
	users, total, err := h.service.List(r.Context(), actor, filter)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.WithMeta(w, users, response.NewMeta(total, page, limit))
}

// Get handles GET /users/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	actor, _ := middleware.GetActor(r.Context())
	u, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.OK(w, u)
}

// UpdateFlags handles PATCH /users/{id}
func (h *Handler) UpdateFlags(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var req UpdateFlagsRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	u, err := h.service.UpdateFlags(r.Context(), actor, id, req.Flags())
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.OK(w, u)
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid user id")
		return 0, false
	}
	return id, true
}

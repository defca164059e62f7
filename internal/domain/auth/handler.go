package auth

import (
	"net/http"

	"github.com/loyalprogram/loyalty-api/internal/middleware"
	"github.com/loyalprogram/loyalty-api/internal/pkg/errorhandler"
	"github.com/loyalprogram/loyalty-api/internal/pkg/response"
	"github.com/loyalprogram/loyalty-api/internal/pkg/validator"
)

var errorRules = []errorhandler.Rule{
	{Err: ErrInvalidCredentials, Status: http.StatusUnauthorized, Code: "INVALID_CREDENTIALS", Message: "Invalid utorid or password"},
	{Err: ErrInvalidRefreshToken, Status: http.StatusUnauthorized, Code: "INVALID_REFRESH_TOKEN", Message: "Invalid or expired refresh token"},
	{Err: ErrRefreshTokenRequired, Status: http.StatusBadRequest, Code: "REFRESH_TOKEN_REQUIRED", Message: "Refresh token is required"},
	{Err: ErrUserNotFound, Status: http.StatusNotFound, Code: "USER_NOT_FOUND", Message: "User not found"},
}

// Handler handles auth HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates auth handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.Login(r.Context(), &req)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.OK(w, result)
}

// Refresh handles POST /auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.OK(w, result)
}

// Logout handles POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	_ = response.DecodeJSON(r.Body, &req)

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.NoContent(w)
}

// Me handles GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetCurrentUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.OK(w, u)
}

package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loyalprogram/loyalty-api/internal/middleware"
)

// Routes returns the /users router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	// Current user
	r.Get("/me", h.GetMe)
	r.Patch("/me", h.UpdateMe)
	r.Get("/me/qr", h.MyQR)
	r.Get("/me/qr.png", h.MyQRImage)

	// Staff
	r.With(middleware.RequireStaff()).Post("/", h.Register)
	r.With(middleware.RequireStaff()).Get("/{id}", h.Get)

	// Managers
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireManager())
		r.Get("/", h.List)
		r.Patch("/{id}", h.UpdateFlags)
	})

	return r
}

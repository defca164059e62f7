package ledger

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loyalprogram/loyalty-api/internal/middleware"
)

// Routes returns transaction router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/me", h.MyHistory)
	r.Get("/balance/{userID}", h.Balance)

	r.With(middleware.RequireStaff()).Post("/award", h.Award)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireManager())
		r.Get("/", h.Search)
		r.Post("/adjustment", h.Adjust)
		r.Post("/export", h.Export)
	})

	return r
}

package redemption

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loyalprogram/loyalty-api/internal/middleware"
)

// Routes returns redemption router. refreshActor reloads the caller's
// verification flag before a request is created.
func (h *Handler) Routes(authMiddleware, refreshActor func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.With(refreshActor).Post("/", h.Create)
	r.Get("/me", h.ListMine)
	r.With(middleware.RequireStaff()).Get("/", h.ListForStaff)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Get("/qr", h.QR)
		r.Get("/qr.png", h.QRImage)
		r.Post("/cancel", h.Cancel)
		r.With(middleware.RequireStaff()).Post("/process", h.Process)
	})

	return r
}

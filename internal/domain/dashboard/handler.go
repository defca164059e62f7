package dashboard

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loyalprogram/loyalty-api/internal/middleware"
	"github.com/loyalprogram/loyalty-api/internal/pkg/errorhandler"
	"github.com/loyalprogram/loyalty-api/internal/pkg/response"
)

// Handler handles dashboard HTTP requests
type Handler struct {
	stats Provider
	now   func() time.Time
}

// NewHandler creates new dashboard handler
func NewHandler(stats Provider) *Handler {
	return &Handler{stats: stats, now: time.Now}
}

// GetStats returns aggregated stats for the manager dashboard
// GET /api/v1/dashboard/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context(), h.now())
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, nil)
		return
	}
	response.OK(w, stats)
}

// Routes returns dashboard routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireManager())

	r.Get("/stats", h.GetStats)

	return r
}

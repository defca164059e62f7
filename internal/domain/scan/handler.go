package scan

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loyalprogram/loyalty-api/internal/domain/qrcode"
	"github.com/loyalprogram/loyalty-api/internal/domain/redemption"
	"github.com/loyalprogram/loyalty-api/internal/middleware"
	"github.com/loyalprogram/loyalty-api/internal/pkg/errorhandler"
	"github.com/loyalprogram/loyalty-api/internal/pkg/response"
	"github.com/loyalprogram/loyalty-api/internal/pkg/validator"
)

var errorRules = append([]errorhandler.Rule{
	{Err: qrcode.ErrDecode, Status: http.StatusUnprocessableEntity, Code: "INVALID_QR_PAYLOAD", Message: "QR code not recognized"},
}, redemption.ErrorRules...)

type Handler struct {
	dispatcher *Dispatcher
}

func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// Scan handles POST /scan
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	result, err := h.dispatcher.Dispatch(r.Context(), actor, Input{Payload: req.Payload, RawPoints: req.Points, Note: req.Note})
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, errorRules)
		return
	}
	response.Created(w, result)
}

// Preview handles POST /scan/preview
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	response.OK(w, Preview(req.Payload))
}

// Routes mounts the scan endpoints. limit throttles POST /scan per operator.
func (h *Handler) Routes(authMiddleware, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireStaff())

	r.With(limit).Post("/", h.Scan)
	r.Post("/preview", h.Preview)

	return r
}

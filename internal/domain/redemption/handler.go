package redemption

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/loyalprogram/loyalty-api/internal/domain/ledger"
	"github.com/loyalprogram/loyalty-api/internal/middleware"
	"github.com/loyalprogram/loyalty-api/internal/pkg/errorhandler"
	"github.com/loyalprogram/loyalty-api/internal/pkg/imaging"
	"github.com/loyalprogram/loyalty-api/internal/pkg/response"
	"github.com/loyalprogram/loyalty-api/internal/pkg/validator"
)

// ErrorRules maps redemption errors to HTTP responses, followed by the
// ledger's.
var ErrorRules = append([]errorhandler.Rule{
	{Err: ErrNotVerified, Status: http.StatusForbidden, Code: "NOT_VERIFIED", Message: "Only verified members can redeem points"},
	{Err: ErrForbidden, Status: http.StatusForbidden, Code: "FORBIDDEN", Message: "Not allowed to act on this request"},
	{Err: ErrRequestNotFound, Status: http.StatusNotFound, Code: "REQUEST_NOT_FOUND", Message: "Redemption request not found"},
	{Err: ErrInvalidState, Status: http.StatusConflict, Code: "INVALID_STATE", Message: "Redemption request is no longer pending"},
	{Err: ErrRemarkTooLong, Status: http.StatusBadRequest, Code: "REMARK_TOO_LONG", Message: "Remark must be at most 200 characters"},
	{Err: ErrInvalidStatus, Status: http.StatusBadRequest, Code: "INVALID_STATUS", Message: "Status must be pending, processed or cancelled"},
}, ledger.ErrorRules...)

type Handler struct {
	service *Service
	qr      *imaging.QRRenderer
}

func NewHandler(service *Service, qr *imaging.QRRenderer) *Handler {
	return &Handler{service: service, qr: qr}
}

// Create handles POST /redemptions
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
	created, err := h.service.Create(r.Context(), actor, req.Amount, req.Remark)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, ErrorRules)
		return
	}
	response.Created(w, created)
}

// ListMine handles GET /redemptions/me
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r.Context())
	page, limit := response.PageParams(r)

	items, total, err := h.service.ListMine(r.Context(), actor, Status(r.URL.Query().Get("status")), limit, response.Offset(page, limit))
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, ErrorRules)
		return
	}
	response.WithMeta(w, items, response.NewMeta(total, page, limit))
}

// ListForStaff handles GET /redemptions
func (h *Handler) ListForStaff(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r.Context())
	page, limit := response.PageParams(r)

	items, total, err := h.service.ListForStaff(r.Context(), actor, Status(r.URL.Query().Get("status")), limit, response.Offset(page, limit))
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, ErrorRules)
		return
	}
	response.WithMeta(w, items, response.NewMeta(total, page, limit))
}

// Get handles GET /redemptions/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	actor, _ := middleware.GetActor(r.Context())
	req, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, ErrorRules)
		return
	}
	response.OK(w, req)
}

// QR handles GET /redemptions/{id}/qr
func (h *Handler) QR(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	actor, _ := middleware.GetActor(r.Context())
	payload, err := h.service.QRPayload(r.Context(), actor, id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, ErrorRules)
		return
	}
	response.OK(w, QRResponse{Payload: payload})
}

// QRImage handles GET /redemptions/{id}/qr.png
func (h *Handler) QRImage(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	actor, _ := middleware.GetActor(r.Context())
	payload, err := h.service.QRPayload(r.Context(), actor, id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, ErrorRules)
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

// Process handles POST /redemptions/{id}/process
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	actor, _ := middleware.GetActor(r.Context())
	txn, err := h.service.Process(r.Context(), actor, id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, ErrorRules)
		return
	}
	response.OK(w, txn.ToResponse())
}

// Cancel handles POST /redemptions/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	actor, _ := middleware.GetActor(r.Context())
	req, err := h.service.Cancel(r.Context(), actor, id)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, ErrorRules)
		return
	}
	response.OK(w, req)
}

func requestID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid redemption id")
		return 0, false
	}
	return id, true
}

package ledger

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loyalprogram/loyalty-api/internal/middleware"
	"github.com/loyalprogram/loyalty-api/internal/pkg/errorhandler"
	"github.com/loyalprogram/loyalty-api/internal/pkg/response"
	"github.com/loyalprogram/loyalty-api/internal/pkg/validator"
)

// ErrorRules maps ledger errors to HTTP responses. Other domains reuse it
// for errors that bubble up from the ledger.
var ErrorRules = []errorhandler.Rule{
	{Err: ErrInvalidAmount, Status: http.StatusBadRequest, Code: "INVALID_AMOUNT", Message: "Amount must be a positive integer"},
	{Err: ErrNoteTooLong, Status: http.StatusBadRequest, Code: "NOTE_TOO_LONG", Message: "Note must be at most 200 characters"},
	{Err: ErrInvalidKind, Status: http.StatusBadRequest, Code: "INVALID_KIND", Message: "Unknown transaction kind"},
	{Err: ErrForbidden, Status: http.StatusForbidden, Code: "FORBIDDEN", Message: "Insufficient permissions"},
	{Err: ErrMemberNotFound, Status: http.StatusNotFound, Code: "MEMBER_NOT_FOUND", Message: "Member not found"},
	{Err: ErrInsufficientBalance, Status: http.StatusConflict, Code: "INSUFFICIENT_BALANCE", Message: "Not enough points"},
}

type Handler struct {
	service  *Service
	exporter *Exporter
}

func NewHandler(service *Service, exporter *Exporter) *Handler {
	return &Handler{service: service, exporter: exporter}
}

// MyHistory handles GET /transactions/me
func (h *Handler) MyHistory(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r.Context())
	page, limit := response.PageParams(r)

	items, total, err := h.service.History(r.Context(), actor, actor.ID, Pagination{Limit: limit, Offset: response.Offset(page, limit)})
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, ErrorRules)
		return
	}
	response.WithMeta(w, toResponses(items), response.NewMeta(total, page, limit))
}

// Search handles GET /transactions
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r.Context())
	page, limit := response.PageParams(r)

	filter, details := parseSearchFilter(r)
	if len(details) > 0 {
		response.ValidationError(w, details)
		return
	}
	filter.Pagination = Pagination{Limit: limit, Offset: response.Offset(page, limit)}

	items, total, err := h.service.Search(r.Context(), actor, filter)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, ErrorRules)
		return
	}
	response.WithMeta(w, toResponses(items), response.NewMeta(total, page, limit))
}

// Award handles POST /transactions/award
func (h *Handler) Award(w http.ResponseWriter, r *http.Request) {
	var req AwardRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	txn, err := h.service.Award(r.Context(), actor, req.UserID, req.Amount, req.Note)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, ErrorRules)
		return
	}
	response.Created(w, txn.ToResponse())
}

// Adjust handles POST /transactions/adjustment
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	txn, err := h.service.Adjust(r.Context(), actor, req.UserID, req.Amount, req.Note)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, ErrorRules)
		return
	}
	response.Created(w, txn.ToResponse())
}

// Balance handles GET /transactions/balance/{userID}
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	memberID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || memberID <= 0 {
		response.BadRequest(w, "Invalid user id")
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	balance, err := h.service.Balance(r.Context(), actor, memberID)
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, ErrorRules)
		return
	}
	response.OK(w, balance)
}

// Export handles POST /transactions/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	actor, _ := middleware.GetActor(r.Context())
	result, err := h.exporter.Export(r.Context(), actor, req.Filter())
	if err != nil {
		errorhandler.Handle(r.Context(), w, err, ErrorRules)
		return
	}
	response.Created(w, result)
}

func parseSearchFilter(r *http.Request) (SearchFilter, map[string]string) {
	q := r.URL.Query()
	var (
		filter  SearchFilter
		details = map[string]string{}
	)

	if v := q.Get("user_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			filter.MemberID = &id
		} else {
			details["user_id"] = "Must be a positive integer"
		}
	}
	if v := q.Get("created_by"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			filter.ActorID = &id
		} else {
			details["created_by"] = "Must be a positive integer"
		}
	}
	if v := q.Get("kind"); v != "" {
		filter.Kind = Kind(v)
		if !filter.Kind.IsValid() {
			details["kind"] = "Must be one of: award, redemption, adjustment"
		}
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = &t
		} else {
			details["from"] = "Must be an RFC3339 timestamp"
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = &t
		} else {
			details["to"] = "Must be an RFC3339 timestamp"
		}
	}
	return filter, details
}

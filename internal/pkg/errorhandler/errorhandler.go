package errorhandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/loyalprogram/loyalty-api/internal/pkg/response"
)

// Rule maps a sentinel error to the response a handler sends for it.
type Rule struct {
	Err     error
	Status  int
	Code    string
	Message string
}

// Handle writes the response of the first rule matching err.
// Unmatched errors are logged with the request id and answered with 500.
func Handle(ctx context.Context, w http.ResponseWriter, err error, rules []Rule) {
	for _, rule := range rules {
		if errors.Is(err, rule.Err) {
			if rule.Status >= http.StatusInternalServerError {
				logFailure(ctx, err, rule.Code)
			}
			response.Error(w, rule.Status, rule.Code, rule.Message)
			return
		}
	}
	logFailure(ctx, err, "INTERNAL_ERROR")
	response.InternalError(w)
}

func logFailure(ctx context.Context, err error, code string) {
	log.Error().
		Err(err).
		Str("request_id", middleware.GetReqID(ctx)).
		Str("error_code", code).
		Msg("Request failed")
}

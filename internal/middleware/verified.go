package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/pkg/response"
)

// UserLookup is the slice of user.Repository the guard needs.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// RefreshActor reloads the caller's role and verification flag from the
// store, so changes made by a manager apply before the token expires.
func RefreshActor(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActor(r.Context())
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}

			u, err := users.GetByID(r.Context(), actor.ID)
			if err != nil {
				log.Error().Err(err).Int64("user_id", actor.ID).Msg("Failed to load actor")
				response.InternalError(w)
				return
			}
			if u == nil {
				response.Unauthorized(w, "Authentication required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), u.Actor())))
		})
	}
}

// RequireVerified blocks members whose account has not been verified.
// Run it after RefreshActor.
func RequireVerified() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActor(r.Context())
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}
			if !actor.Verified {
				response.Error(w, http.StatusForbidden, "NOT_VERIFIED", "Account is not verified")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

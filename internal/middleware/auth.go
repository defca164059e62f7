package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/pkg/jwt"
	"github.com/loyalprogram/loyalty-api/internal/pkg/response"
)

type contextKey string

const actorKey contextKey = "actor"

// Auth returns middleware that validates the bearer JWT and stores the
// caller's identity in the request context.
func Auth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				response.Unauthorized(w, "Missing or malformed authorization header")
				return
			}

			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				if err == jwt.ErrExpiredToken {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			role := user.Role(claims.Role)
			if !role.IsValid() {
				response.Unauthorized(w, "Invalid token")
				return
			}

			actor := user.Actor{ID: claims.UserID, Role: role, Verified: claims.Verified}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// bearerToken reads the Authorization header. Websocket upgrades may pass
// the token as ?token= instead, since browsers cannot set headers there.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			token := r.URL.Query().Get("token")
			return token, token != ""
		}
		return "", false
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// WithActor stores actor in ctx.
func WithActor(ctx context.Context, actor user.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor returns the authenticated caller. ok is false on public routes.
func GetActor(ctx context.Context) (actor user.Actor, ok bool) {
	actor, ok = ctx.Value(actorKey).(user.Actor)
	return actor, ok
}

// GetUserID extracts user ID from context, 0 when unauthenticated.
func GetUserID(ctx context.Context) int64 {
	actor, _ := GetActor(ctx)
	return actor.ID
}

// RequireRole returns middleware that checks user role
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActor(r.Context())
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Forbidden(w, "Insufficient permissions")
		})
	}
}

// RequireStaff allows cashiers and managers.
func RequireStaff() func(http.Handler) http.Handler {
	return RequireRole(user.RoleCashier, user.RoleManager)
}

// RequireManager allows managers only.
func RequireManager() func(http.Handler) http.Handler {
	return RequireRole(user.RoleManager)
}

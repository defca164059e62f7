package dashboard_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loyalprogram/loyalty-api/internal/domain/dashboard"
	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/middleware"
	"github.com/loyalprogram/loyalty-api/internal/store"
)

type failingProvider struct{}

func (failingProvider) Stats(context.Context, time.Time) (*dashboard.Stats, error) {
	return nil, errors.New("connection refused")
}

func asActor(actor user.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithActor(r.Context(), actor)))
		})
	}
}

func get(h *dashboard.Handler, actor user.Actor) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.Routes(asActor(actor)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stats", nil))
	return rr
}

func TestStatsManagerOnly(t *testing.T) {
	h := dashboard.NewHandler(store.New())

	if rr := get(h, user.Actor{ID: 1, Role: user.RoleCashier}); rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for cashier, got %d", rr.Code)
	}

	rr := get(h, user.Actor{ID: 2, Role: user.RoleManager})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var body struct {
		Data dashboard.Stats `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data != (dashboard.Stats{}) {
		t.Fatalf("expected empty stats, got %+v", body.Data)
	}
}

func TestStatsProviderFailure(t *testing.T) {
	rr := get(dashboard.NewHandler(failingProvider{}), user.Actor{ID: 2, Role: user.RoleManager})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

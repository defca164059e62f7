package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loyalprogram/loyalty-api/internal/config"
	"github.com/loyalprogram/loyalty-api/internal/domain/qrcode"
	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/pkg/jwt"
	"github.com/loyalprogram/loyalty-api/internal/pkg/storage"
	"github.com/loyalprogram/loyalty-api/internal/store"
)

const testSecret = "test-secret"

type testEnv struct {
	t      *testing.T
	router http.Handler
	jwt    *jwt.Service
	users  user.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:         testSecret,
		JWTAccessTTL:      time.Hour,
		JWTRefreshTTL:     24 * time.Hour,
		AllowedOrigins:    []string{"http://localhost:3000"},
		BannerTTL:         3 * time.Second,
		ScanRatePerMinute: 600,
		ScanRateBurst:     50,
		ExportLocalDir:    t.TempDir(),
		ExportLocalURL:    "http://localhost:8080/exports",
	}
	exports, err := storage.NewLocalStorage(cfg.ExportLocalDir, cfg.ExportLocalURL)
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}

	b := memoryBackends(store.New())
	a := newApp(cfg, b, nil, exports)
	t.Cleanup(func() { a.hub.Close() })

	return &testEnv{
		t:      t,
		router: a.router,
		jwt:    jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL),
		users:  b.users,
	}
}

func (e *testEnv) createUser(utorid string, role user.Role, verified bool) *user.User {
	e.t.Helper()
	u := &user.User{
		UTORid:       utorid,
		Name:         utorid,
		Email:        utorid + "@mail.utoronto.ca",
		Role:         role,
		Verified:     verified,
		PasswordHash: "x",
	}
	if err := e.users.Create(context.Background(), u); err != nil {
		e.t.Fatalf("create user %s: %v", utorid, err)
	}
	return u
}

func (e *testEnv) token(u *user.User) string {
	e.t.Helper()
	tok, err := e.jwt.GenerateAccessToken(u.ID, string(u.Role), u.Verified)
	if err != nil {
		e.t.Fatalf("token: %v", err)
	}
	return tok
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (e *testEnv) do(method, path, token string, body interface{}) (int, envelope) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 && rr.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			e.t.Fatalf("decode %s %s: %v (%s)", method, path, err, rr.Body.String())
		}
	}
	return rr.Code, env
}

func (e *testEnv) balance(u *user.User) int64 {
	e.t.Helper()
	code, env := e.do(http.MethodGet, fmt.Sprintf("/api/v1/transactions/balance/%d", u.ID), e.token(u), nil)
	if code != http.StatusOK {
		e.t.Fatalf("balance: status %d", code)
	}
	var bal struct {
		Points     int64 `json:"points"`
		Consistent bool  `json:"consistent"`
	}
	if err := json.Unmarshal(env.Data, &bal); err != nil {
		e.t.Fatalf("decode balance: %v", err)
	}
	if !bal.Consistent {
		e.t.Fatalf("balance for %s is not consistent with its transactions", u.UTORid)
	}
	return bal.Points
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	code, body := env.do(http.MethodGet, "/health", "", nil)
	if code != http.StatusOK || !body.Success {
		t.Fatalf("expected healthy response, got %d", code)
	}
}

func TestScanRequiresStaff(t *testing.T) {
	env := newTestEnv(t)
	member := env.createUser("member01", user.RoleMember, true)
	payload := map[string]interface{}{"payload": qrcode.Encode(qrcode.ForUser(member.ID, member.UTORid)), "points": 10}

	if code, _ := env.do(http.MethodPost, "/api/v1/scan", "", payload); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	if code, _ := env.do(http.MethodPost, "/api/v1/scan", env.token(member), payload); code != http.StatusForbidden {
		t.Fatalf("expected 403 for a member, got %d", code)
	}
}

func TestAwardAndRedeemThroughScans(t *testing.T) {
	env := newTestEnv(t)
	cashier := env.createUser("cashier1", user.RoleCashier, true)
	member := env.createUser("member01", user.RoleMember, true)
	cashierToken := env.token(cashier)

	code, _ := env.do(http.MethodPost, "/api/v1/scan", cashierToken, map[string]interface{}{
		"payload": qrcode.Encode(qrcode.ForUser(member.ID, member.UTORid)),
		"points":  "100",
	})
	if code != http.StatusCreated {
		t.Fatalf("award scan: expected 201, got %d", code)
	}
	if got := env.balance(member); got != 100 {
		t.Fatalf("expected 100 points after award, got %d", got)
	}

	code, body := env.do(http.MethodPost, "/api/v1/redemptions", env.token(member), map[string]interface{}{"amount": 40})
	if code != http.StatusCreated {
		t.Fatalf("create redemption: expected 201, got %d", code)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body.Data, &created); err != nil || created.ID == 0 {
		t.Fatalf("decode redemption: %v", err)
	}

	code, body = env.do(http.MethodGet, fmt.Sprintf("/api/v1/redemptions/%d/qr", created.ID), env.token(member), nil)
	if code != http.StatusOK {
		t.Fatalf("redemption qr: expected 200, got %d", code)
	}
	var qr struct {
		Payload string `json:"payload"`
	}
	if err := json.Unmarshal(body.Data, &qr); err != nil {
		t.Fatalf("decode qr: %v", err)
	}

	scan := map[string]interface{}{"payload": qr.Payload}
	if code, _ := env.do(http.MethodPost, "/api/v1/scan", cashierToken, scan); code != http.StatusCreated {
		t.Fatalf("redemption scan: expected 201, got %d", code)
	}
	code, body = env.do(http.MethodPost, "/api/v1/scan", cashierToken, scan)
	if code != http.StatusConflict || body.Error == nil || body.Error.Code != "INVALID_STATE" {
		t.Fatalf("second redemption scan: expected 409 INVALID_STATE, got %d", code)
	}

	if got := env.balance(member); got != 60 {
		t.Fatalf("expected 60 points after redemption, got %d", got)
	}
}

func TestScanRejectsGarbagePayload(t *testing.T) {
	env := newTestEnv(t)
	cashier := env.createUser("cashier1", user.RoleCashier, true)

	code, body := env.do(http.MethodPost, "/api/v1/scan", env.token(cashier), map[string]interface{}{"payload": "hello"})
	if code != http.StatusUnprocessableEntity || body.Error == nil || body.Error.Code != "INVALID_QR_PAYLOAD" {
		t.Fatalf("expected 422 INVALID_QR_PAYLOAD, got %d", code)
	}
}

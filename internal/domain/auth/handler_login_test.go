package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/loyalprogram/loyalty-api/internal/pkg/response"
)

func TestLoginHandlerWrongPasswordReturns401WithoutTokens(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := NewHandler(svc)

	body, _ := json.Marshal(LoginRequest{UTORid: "member01", Password: "not-the-password"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
	var out response.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Error == nil || out.Error.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("expected INVALID_CREDENTIALS, got %#v", out.Error)
	}
	if out.Data != nil {
		t.Fatal("tokens must be absent")
	}
}

func TestLoginHandlerReturns200WithTokens(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := NewHandler(svc)

	body, _ := json.Marshal(LoginRequest{UTORid: "member01", Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var out struct {
		Data AuthResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Data.Tokens.AccessToken == "" || out.Data.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens, got %#v", out.Data.Tokens)
	}
	if out.Data.User == nil || out.Data.User.UTORid != "member01" {
		t.Fatalf("unexpected user %#v", out.Data.User)
	}
}

func TestLoginHandlerMissingFieldsReturns422(t *testing.T) {
	svc, _, _ := newTestService(t)
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader([]byte(`{"utorid":"member01"}`)))
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
}

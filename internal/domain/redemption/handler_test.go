package redemption_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loyalprogram/loyalty-api/internal/domain/redemption"
	"github.com/loyalprogram/loyalty-api/internal/domain/user"
	"github.com/loyalprogram/loyalty-api/internal/middleware"
	"github.com/loyalprogram/loyalty-api/internal/pkg/imaging"
)

func asActor(actor user.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithActor(r.Context(), actor)))
		})
	}
}

func passthrough(next http.Handler) http.Handler { return next }

func (f *fixture) serve(actor user.Actor, method, path, body string) *httptest.ResponseRecorder {
	h := redemption.NewHandler(f.svc, imaging.NewQRRenderer(imaging.QRConfig{Size: 128, Margin: 4}))
	rr := httptest.NewRecorder()
	h.Routes(asActor(actor), passthrough).ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rr
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func TestHandlerCreateAndProcess(t *testing.T) {
	f := newFixture(t, 100)

	rr := f.serve(f.member, http.MethodPost, "/", `{"amount":30,"remark":"tote bag"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created redemption.Request
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &created))
	assert.Equal(t, redemption.StatusPending, created.Status)

	path := fmt.Sprintf("/%d/process", created.ID)
	rr = f.serve(f.member, http.MethodPost, path, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = f.serve(f.cashier, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.EqualValues(t, 70, f.balance(t))

	rr = f.serve(f.cashier, http.MethodPost, path, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "INVALID_STATE", decode(t, rr).Error.Code)
	assert.EqualValues(t, 70, f.balance(t))
}

func TestHandlerCreateValidation(t *testing.T) {
	f := newFixture(t, 10)

	tests := []struct {
		name string
		body string
		want int
		code string
	}{
		{"malformed", `{"amount":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"zero amount", `{"amount":0}`, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"missing amount", `{"remark":"mug"}`, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"negative amount", `{"amount":-5}`, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"over balance", `{"amount":11}`, http.StatusConflict, "INSUFFICIENT_BALANCE"},
		{"long remark", `{"amount":1,"remark":"` + strings.Repeat("r", 201) + `"}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.serve(f.member, http.MethodPost, "/", tt.body)
			require.Equal(t, tt.want, rr.Code, rr.Body.String())
			env := decode(t, rr)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}

	_, total, err := f.svc.ListMine(t.Context(), f.member, "", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestHandlerQRImage(t *testing.T) {
	f := newFixture(t, 50)
	req, err := f.svc.Create(t.Context(), f.member, 20, "")
	require.NoError(t, err)

	rr := f.serve(f.member, http.MethodGet, fmt.Sprintf("/%d/qr.png", req.ID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")))

	rr = f.serve(f.member, http.MethodGet, "/abc/qr.png", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.serve(f.member, http.MethodGet, "/9999/qr", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerCancelByOwner(t *testing.T) {
	f := newFixture(t, 50)
	req, err := f.svc.Create(t.Context(), f.member, 20, "")
	require.NoError(t, err)

	stranger := user.Actor{ID: f.member.ID + 50, Role: user.RoleMember, Verified: true}
	rr := f.serve(stranger, http.MethodPost, fmt.Sprintf("/%d/cancel", req.ID), "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = f.serve(f.member, http.MethodPost, fmt.Sprintf("/%d/cancel", req.ID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	var cancelled redemption.Request
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &cancelled))
	assert.Equal(t, redemption.StatusCancelled, cancelled.Status)
}

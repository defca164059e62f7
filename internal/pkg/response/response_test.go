package response

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMeta(t *testing.T) {
	m := NewMeta(45, 2, 20)
	assert.Equal(t, 3, m.Pages)
	assert.True(t, m.HasNext)
	assert.True(t, m.HasPrev)

	empty := NewMeta(0, 0, 0)
	assert.Equal(t, 1, empty.Page)
	assert.Equal(t, 0, empty.Pages)
	assert.False(t, empty.HasNext)
}

func TestErrorEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	Conflict(rr, "Request is no longer pending")

	assert.Equal(t, http.StatusConflict, rr.Code)
	var body Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "CONFLICT", body.Error.Code)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Amount int64 `json:"amount"`
	}
	err := DecodeJSON(io.NopCloser(strings.NewReader(`{"amount":5,"extra":1}`)), &dst)
	require.Error(t, err)

	err = DecodeJSON(io.NopCloser(strings.NewReader(`{"amount":5}`)), &dst)
	require.NoError(t, err)
	assert.EqualValues(t, 5, dst.Amount)
}

func TestPageParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=10", nil)
	page, limit := PageParams(req)
	assert.Equal(t, 3, page)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, Offset(page, limit))

	page, limit = PageParams(httptest.NewRequest(http.MethodGet, "/?page=-1&limit=1000", nil))
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultLimit, limit)
}

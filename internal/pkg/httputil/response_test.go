package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]int{"cases": 3})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"cases":3}`, rec.Body.String())
}

func TestUnavailable(t *testing.T) {
	rec := httptest.NewRecorder()
	Unavailable(rec, "analytics temporarily unavailable", "upstream_timeout")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "analytics temporarily unavailable", body.Error)
	assert.Equal(t, "upstream_timeout", body.Code)
}

func TestTooManyRequests(t *testing.T) {
	rec := httptest.NewRecorder()
	TooManyRequests(rec, 42)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decodeError(t, rec).Code)
}

func TestInternalErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	InternalError(rec, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Empty(t, decodeError(t, rec).Code)
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?range=14&offset=abc&neg=-3&blank=", nil)
	assert.Equal(t, 14, QueryInt(r, "range", 30))
	assert.Equal(t, 0, QueryInt(r, "offset", 0))
	assert.Equal(t, -3, QueryInt(r, "neg", 0))
	assert.Equal(t, 7, QueryInt(r, "blank", 7))
	assert.Equal(t, 9, QueryInt(r, "missing", 9))
}

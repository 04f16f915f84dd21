package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorWrapping(t *testing.T) {
	cause := errors.New("row not found")
	appErr := NewAppError("BILL_NOT_FOUND", "bill not found", http.StatusNotFound, cause)

	wrapped := fmt.Errorf("service: %w", appErr)
	assert.True(t, IsAppError(wrapped))
	assert.ErrorIs(t, wrapped, cause)

	var target *AppError
	require.ErrorAs(t, wrapped, &target)
	assert.Equal(t, "BILL_NOT_FOUND", target.Code)
	assert.Equal(t, http.StatusNotFound, target.HTTPStatus)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	assert.Equal(t, "198.51.100.7", ClientIP(req))
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=5", nil)
	page, perPage := ParsePagination(req, 20)
	assert.Equal(t, 3, page)
	assert.Equal(t, 5, perPage)

	req = httptest.NewRequest(http.MethodGet, "/?page=-1&limit=abc", nil)
	page, perPage = ParsePagination(req, 20)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, perPage)
}

func TestIdemMiddleware(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	idem := Idem{R: client, TTL: time.Minute}
	calls := 0
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	do := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bills", nil)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusCreated, do("abc").Code)
	require.Equal(t, http.StatusConflict, do("abc").Code)
	require.Equal(t, http.StatusCreated, do("other").Code)

	// Requests without a key bypass the guard entirely.
	require.Equal(t, http.StatusCreated, do("").Code)
	assert.Equal(t, 3, calls)
}

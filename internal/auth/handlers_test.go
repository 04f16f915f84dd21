package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-billing/internal/common"
)

func newTestHandler(t *testing.T) (Handler, *Service) {
	t.Helper()
	svc, _ := newTestService(t)
	return Handler{Svc: svc, Validate: validator.New()}, svc
}

func postJSON(t *testing.T, h http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegisterHandler(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postJSON(t, h.Register, "/api/v1/auth/register", map[string]string{
		"name":     "Dina",
		"email":    "dina@example.com",
		"password": "s3cret-pass",
		"category": "AFFILIATE",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.ID)
	assert.Equal(t, "AFFILIATE", resp.Data.Category)
	assert.Equal(t, "dina@example.com", resp.Data.Email)
}

func TestRegisterHandlerValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postJSON(t, h.Register, "/api/v1/auth/register", map[string]string{
		"name":     "Dina",
		"email":    "dina@example.com",
		"password": "short",
		"category": "AFFILIATE",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestRegisterHandlerBadJSON(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.Register(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterHandlerDuplicateEmail(t *testing.T) {
	h, _ := newTestHandler(t)
	body := map[string]string{
		"name":     "Dina",
		"email":    "dina@example.com",
		"password": "s3cret-pass",
		"category": "REGULAR",
	}

	rec := postJSON(t, h.Register, "/api/v1/auth/register", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, h.Register, "/api/v1/auth/register", body)
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "EMAIL_ALREADY_USED", resp.Error.Code)
}

func TestLoginHandler(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postJSON(t, h.Register, "/api/v1/auth/register", map[string]string{
		"name":     "Dina",
		"email":    "dina@example.com",
		"password": "s3cret-pass",
		"category": "REGULAR",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, h.Login, "/api/v1/auth/login", map[string]string{
		"email":    "dina@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data LoginResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.AccessToken)
	assert.Equal(t, "dina@example.com", resp.Data.User.Email)

	rec = postJSON(t, h.Login, "/api/v1/auth/login", map[string]string{
		"email":    "dina@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeHandler(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postJSON(t, h.Register, "/api/v1/auth/register", map[string]string{
		"name":     "Dina",
		"email":    "dina@example.com",
		"password": "s3cret-pass",
		"category": "EMPLOYEE",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(common.WithUserID(req.Context(), created.Data.ID))
	rec = httptest.NewRecorder()
	h.Me(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var me struct {
		Data User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, created.Data.ID, me.Data.ID)
	assert.Equal(t, "EMPLOYEE", me.Data.Category)

	// Without an identity in context the endpoint refuses.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec = httptest.NewRecorder()
	h.Me(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthMiddleware(t *testing.T) {
	h, svc := newTestHandler(t)

	rec := postJSON(t, h.Register, "/api/v1/auth/register", map[string]string{
		"name":     "Dina",
		"email":    "dina@example.com",
		"password": "s3cret-pass",
		"category": "REGULAR",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = postJSON(t, h.Login, "/api/v1/auth/login", map[string]string{
		"email":    "dina@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Data LoginResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	mw := Middleware{Service: svc}
	var seenUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID, _ = common.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills/abc", nil)
	req.Header.Set("Authorization", "Bearer "+login.Data.AccessToken)
	rec = httptest.NewRecorder()
	mw.RequireAuth(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, login.Data.User.ID, seenUserID)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/bills/abc", nil)
	rec = httptest.NewRecorder()
	mw.RequireAuth(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/bills/abc", nil)
	req.Header.Set("Authorization", "Bearer garbage.token.here")
	rec = httptest.NewRecorder()
	mw.RequireAuth(next).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

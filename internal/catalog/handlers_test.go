package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-billing/internal/common"
	"github.com/noah-isme/backend-billing/internal/store"
)

type fakeItemStore struct {
	mu    sync.Mutex
	items []store.Item
}

func (f *fakeItemStore) CreateItem(_ context.Context, arg store.CreateItemParams) (store.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item := store.Item{
		ID:        uuid.New(),
		Name:      arg.Name,
		Price:     arg.Price,
		Grocery:   arg.Grocery,
		CreatedAt: time.Now(),
	}
	f.items = append(f.items, item)
	return item, nil
}

func (f *fakeItemStore) GetItemByID(_ context.Context, id uuid.UUID) (store.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ID == id {
			return item, nil
		}
	}
	return store.Item{}, store.ErrNotFound
}

func (f *fakeItemStore) ListItems(_ context.Context, limit, offset int32) ([]store.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if int(offset) >= len(f.items) {
		return nil, nil
	}
	end := int(offset + limit)
	if end > len(f.items) {
		end = len(f.items)
	}
	return append([]store.Item(nil), f.items[offset:end]...), nil
}

func (f *fakeItemStore) CountItems(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.items)), nil
}

func newTestRouter(t *testing.T, items ItemStore, cache *Cache) *chi.Mux {
	t.Helper()
	svc, err := NewService(ServiceConfig{Items: items, Cache: cache, DefaultLimit: 20, MaxLimit: 100})
	require.NoError(t, err)
	h := NewHandler(HandlerConfig{Service: svc, Validate: validator.New()})
	r := chi.NewRouter()
	r.Post("/api/v1/items", h.CreateItem)
	r.Get("/api/v1/items", h.Items)
	r.Get("/api/v1/items/{id}", h.ItemDetail)
	return r
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func seedItems(t *testing.T, f *fakeItemStore, specs ...store.CreateItemParams) []store.Item {
	t.Helper()
	out := make([]store.Item, 0, len(specs))
	for _, s := range specs {
		item, err := f.CreateItem(context.Background(), s)
		require.NoError(t, err)
		out = append(out, item)
	}
	return out
}

func TestCreateItemHandler(t *testing.T) {
	router := newTestRouter(t, &fakeItemStore{}, nil)

	body, _ := json.Marshal(map[string]any{"name": "Keyboard", "price": 4500, "grocery": false})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data Item `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.ID)
	assert.Equal(t, "Keyboard", resp.Data.Name)
	assert.EqualValues(t, 4500, resp.Data.Price)
	assert.False(t, resp.Data.Grocery)
}

func TestCreateItemHandlerValidation(t *testing.T) {
	router := newTestRouter(t, &fakeItemStore{}, nil)

	cases := []struct {
		name string
		body string
	}{
		{"bad json", "{"},
		{"missing name", `{"price": 100}`},
		{"negative price", `{"name": "Milk", "price": -5}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/items", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp struct {
				Error common.ErrorBody `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		})
	}
}

func TestListItemsHandler(t *testing.T) {
	fake := &fakeItemStore{}
	seedItems(t, fake,
		store.CreateItemParams{Name: "Milk", Price: 250, Grocery: true},
		store.CreateItemParams{Name: "Bread", Price: 180, Grocery: true},
		store.CreateItemParams{Name: "Keyboard", Price: 4500},
	)
	router := newTestRouter(t, fake, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))

	var resp struct {
		Data       []Item            `json:"data"`
		Pagination common.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, 3, resp.Pagination.TotalItems)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/items?page=2&limit=2", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Keyboard", resp.Data[0].Name)
}

func TestListItemsHandlerBadPagination(t *testing.T) {
	router := newTestRouter(t, &fakeItemStore{}, nil)

	for _, target := range []string{"/api/v1/items?page=0", "/api/v1/items?limit=abc"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestListItemsCached(t *testing.T) {
	fake := &fakeItemStore{}
	seedItems(t, fake, store.CreateItemParams{Name: "Milk", Price: 250, Grocery: true})
	cache := newTestCache(t)
	router := newTestRouter(t, fake, cache)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Mutate the backing store directly; the cached first page keeps serving
	// the old payload until invalidated.
	seedItems(t, fake, store.CreateItemParams{Name: "Bread", Price: 180, Grocery: true})

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/items", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	// Creating through the API invalidates the cache.
	body, _ := json.Marshal(map[string]any{"name": "Eggs", "price": 320, "grocery": true})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/items", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/items", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))
}

func TestItemDetailHandler(t *testing.T) {
	fake := &fakeItemStore{}
	created := seedItems(t, fake, store.CreateItemParams{Name: "Milk", Price: 250, Grocery: true})
	router := newTestRouter(t, fake, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+created[0].ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data Item `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, created[0].ID.String(), resp.Data.ID)
	assert.True(t, resp.Data.Grocery)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/items/"+uuid.NewString(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var errResp struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "ITEM_NOT_FOUND", errResp.Error.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/items/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-billing/internal/common"
	"github.com/noah-isme/backend-billing/internal/store"
)

// ItemStore is the persistence contract the catalog depends on.
type ItemStore interface {
	CreateItem(ctx context.Context, arg store.CreateItemParams) (store.Item, error)
	GetItemByID(ctx context.Context, id uuid.UUID) (store.Item, error)
	ListItems(ctx context.Context, limit, offset int32) ([]store.Item, error)
	CountItems(ctx context.Context) (int64, error)
}

// Service orchestrates item queries, DTO assembly, and caching.
type Service struct {
	items        ItemStore
	cache        *Cache
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Items        ItemStore
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// Item is the public item payload. Price is expressed in minor currency units.
type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Grocery   bool      `json:"grocery"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateParams captures input for item creation.
type CreateParams struct {
	Name    string
	Price   int64
	Grocery bool
}

// ListParams captures pagination for item listing.
type ListParams struct {
	Page  int
	Limit int
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []Item
	Total int64
	Page  int
	Limit int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Items == nil {
		return nil, errors.New("catalog: item store is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		items:        cfg.Items,
		cache:        cfg.Cache,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into pagination parameters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Page: 1, Limit: s.defaultLimit}

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		params.Limit = limit
	}
	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}
	return params, nil
}

// Create stores a new catalog item and invalidates the cached first page.
func (s *Service) Create(ctx context.Context, params CreateParams) (Item, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return Item{}, badRequest("name", "name is required", nil)
	}
	if params.Price < 0 {
		return Item{}, badRequest("price", "price cannot be negative", nil)
	}
	row, err := s.items.CreateItem(ctx, store.CreateItemParams{
		Name:    name,
		Price:   params.Price,
		Grocery: params.Grocery,
	})
	if err != nil {
		return Item{}, fmt.Errorf("create item: %w", err)
	}
	_ = s.cache.Delete(ctx, listCacheKey)
	return convertItem(row), nil
}

// Get returns a single item by id.
func (s *Service) Get(ctx context.Context, rawID string) (Item, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return Item{}, badRequest("id", "id must be a valid UUID", err)
	}
	row, err := s.items.GetItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Item{}, &common.AppError{Code: "ITEM_NOT_FOUND", Message: "item not found", HTTPStatus: http.StatusNotFound, Err: err}
		}
		return Item{}, fmt.Errorf("get item: %w", err)
	}
	return convertItem(row), nil
}

// List returns a page of items with the overall total.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	useCache := params.Page == 1 && params.Limit == s.defaultLimit
	if useCache {
		var cached cachedList
		ok, err := s.cache.GetJSON(ctx, listCacheKey, &cached)
		if err == nil && ok {
			return ListResult{Items: cached.Items, Total: cached.Total, Page: params.Page, Limit: params.Limit}, nil
		}
	}

	total, err := s.items.CountItems(ctx)
	if err != nil {
		return ListResult{}, fmt.Errorf("count items: %w", err)
	}
	offset := int32((params.Page - 1) * params.Limit)
	if offset < 0 {
		offset = 0
	}
	rows, err := s.items.ListItems(ctx, int32(params.Limit), offset)
	if err != nil {
		return ListResult{}, fmt.Errorf("list items: %w", err)
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, convertItem(row))
	}
	if useCache {
		_ = s.cache.SetJSON(ctx, listCacheKey, cachedList{Items: items, Total: total})
	}
	return ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

const listCacheKey = "catalog:items:list:first"

type cachedList struct {
	Items []Item `json:"items"`
	Total int64  `json:"total"`
}

func convertItem(row store.Item) Item {
	return Item{
		ID:        row.ID.String(),
		Name:      row.Name,
		Price:     row.Price,
		Grocery:   row.Grocery,
		CreatedAt: row.CreatedAt,
	}
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}

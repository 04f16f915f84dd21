package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Items persists and loads catalog items.
type Items struct {
	Pool *pgxpool.Pool
}

// CreateItemParams captures input for CreateItem.
type CreateItemParams struct {
	Name    string
	Price   int64
	Grocery bool
}

// CreateItem inserts a new catalog item and returns the stored row.
func (s Items) CreateItem(ctx context.Context, arg CreateItemParams) (Item, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO items (name, price, grocery)
		VALUES ($1, $2, $3)
		RETURNING id, name, price, grocery, created_at`,
		arg.Name, arg.Price, arg.Grocery)
	it, err := scanItem(row)
	if err != nil {
		return Item{}, fmt.Errorf("create item: %w", err)
	}
	return it, nil
}

// GetItemByID loads a single item.
func (s Items) GetItemByID(ctx context.Context, id uuid.UUID) (Item, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, price, grocery, created_at
		FROM items WHERE id = $1`, pgUUID(id))
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// ListItems returns a page of items ordered by creation time.
func (s Items) ListItems(ctx context.Context, limit, offset int32) ([]Item, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, price, grocery, created_at
		FROM items ORDER BY created_at, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CountItems returns the number of catalog items.
func (s Items) CountItems(ctx context.Context) (int64, error) {
	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM items`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return total, nil
}

func scanItem(row pgx.Row) (Item, error) {
	var (
		it        Item
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &it.Name, &it.Price, &it.Grocery, &createdAt); err != nil {
		return Item{}, err
	}
	it.ID = fromPGUUID(id)
	it.CreatedAt = fromPGTime(createdAt)
	return it, nil
}

// Package store provides the PostgreSQL persistence layer. Queries are
// written against pgx directly; consumers depend on narrow interfaces so
// tests can substitute in-memory fakes.
package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicateEmail is returned when a user email is already registered.
	ErrDuplicateEmail = errors.New("store: email already registered")
)

// User is a registered account row.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Category     string
	RegisteredAt time.Time
	CreatedAt    time.Time
}

// Item is a priced catalog entry.
type Item struct {
	ID        uuid.UUID
	Name      string
	Price     int64
	Grocery   bool
	CreatedAt time.Time
}

// Bill is a persisted checkout result with its ordered line items.
type Bill struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	TotalAmount      int64
	DiscountedAmount int64
	NetPayableAmount int64
	CreatedAt        time.Time
	Items            []BillItem
}

// BillItem snapshots a catalog item at bill creation time.
type BillItem struct {
	ItemID    uuid.UUID
	Name      string
	UnitPrice int64
	Grocery   bool
	Quantity  int32
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func fromPGUUID(id pgtype.UUID) uuid.UUID {
	if !id.Valid {
		return uuid.Nil
	}
	return uuid.UUID(id.Bytes)
}

func fromPGTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}

func pgTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

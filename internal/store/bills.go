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

// Bills persists and loads bills together with their line items.
type Bills struct {
	Pool *pgxpool.Pool
}

// SaveBill writes the bill header and all line items in one transaction.
// Either everything persists or nothing does.
func (s Bills) SaveBill(ctx context.Context, bill Bill) (Bill, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Bill{}, fmt.Errorf("begin bill tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	err = tx.QueryRow(ctx, `
		INSERT INTO bills (user_id, total_amount, discounted_amount, net_payable_amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		pgUUID(bill.UserID), bill.TotalAmount, bill.DiscountedAmount, bill.NetPayableAmount,
	).Scan(&id, &createdAt)
	if err != nil {
		return Bill{}, fmt.Errorf("insert bill: %w", err)
	}
	bill.ID = fromPGUUID(id)
	bill.CreatedAt = fromPGTime(createdAt)

	for pos, it := range bill.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO bill_items (bill_id, position, item_id, name, unit_price, grocery, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, pos, pgUUID(it.ItemID), it.Name, it.UnitPrice, it.Grocery, it.Quantity)
		if err != nil {
			return Bill{}, fmt.Errorf("insert bill item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Bill{}, fmt.Errorf("commit bill: %w", err)
	}
	return bill, nil
}

// GetBillByID loads a bill and its line items in display order.
func (s Bills) GetBillByID(ctx context.Context, id uuid.UUID) (Bill, error) {
	var (
		bill      Bill
		billID    pgtype.UUID
		userID    pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	err := s.Pool.QueryRow(ctx, `
		SELECT id, user_id, total_amount, discounted_amount, net_payable_amount, created_at
		FROM bills WHERE id = $1`, pgUUID(id),
	).Scan(&billID, &userID, &bill.TotalAmount, &bill.DiscountedAmount, &bill.NetPayableAmount, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bill{}, ErrNotFound
		}
		return Bill{}, fmt.Errorf("get bill: %w", err)
	}
	bill.ID = fromPGUUID(billID)
	bill.UserID = fromPGUUID(userID)
	bill.CreatedAt = fromPGTime(createdAt)

	rows, err := s.Pool.Query(ctx, `
		SELECT item_id, name, unit_price, grocery, quantity
		FROM bill_items WHERE bill_id = $1 ORDER BY position`, pgUUID(bill.ID))
	if err != nil {
		return Bill{}, fmt.Errorf("list bill items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it     BillItem
			itemID pgtype.UUID
		)
		if err := rows.Scan(&itemID, &it.Name, &it.UnitPrice, &it.Grocery, &it.Quantity); err != nil {
			return Bill{}, fmt.Errorf("scan bill item: %w", err)
		}
		it.ItemID = fromPGUUID(itemID)
		bill.Items = append(bill.Items, it)
	}
	return bill, rows.Err()
}

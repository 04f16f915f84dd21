package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-billing/internal/common"
	"github.com/noah-isme/backend-billing/internal/obs"
	"github.com/noah-isme/backend-billing/internal/pricing"
	"github.com/noah-isme/backend-billing/internal/store"
)

const (
	httpStatusBadRequest   = 400
	httpStatusUnauthorized = 401
	httpStatusForbidden    = 403
	httpStatusNotFound     = 404
)

// UserSource resolves the acting user for bill operations.
type UserSource interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (store.User, error)
}

// ItemSource resolves catalog items referenced by a bill request.
type ItemSource interface {
	GetItemByID(ctx context.Context, id uuid.UUID) (store.Item, error)
}

// BillStore persists bills and loads them back.
type BillStore interface {
	SaveBill(ctx context.Context, bill store.Bill) (store.Bill, error)
	GetBillByID(ctx context.Context, id uuid.UUID) (store.Bill, error)
}

// Service assembles bills: it resolves requested items against the catalog,
// computes the discounted net payable amount, and persists the result.
type Service struct {
	Users UserSource
	Items ItemSource
	Bills BillStore
	Now   func() time.Time
}

// ItemRequest is one (item, quantity) pair of a bill request.
type ItemRequest struct {
	ItemID   string
	Quantity int32
}

// LineItemView is the API representation of a billed line.
type LineItemView struct {
	ItemID    string `json:"itemId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Grocery   bool   `json:"grocery"`
	Quantity  int32  `json:"quantity"`
}

// Summary is the API representation of a bill.
type Summary struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	Items            []LineItemView `json:"items"`
	TotalAmount      int64          `json:"totalAmount"`
	DiscountedAmount int64          `json:"discountedAmount"`
	NetPayableAmount int64          `json:"netPayableAmount"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// Create resolves every requested line item, computes totals and discounts,
// and persists the bill. If any item fails to resolve the whole operation
// aborts and nothing is written.
func (s *Service) Create(ctx context.Context, actingUserID string, items []ItemRequest) (Summary, error) {
	user, err := s.resolveUser(ctx, actingUserID)
	if err != nil {
		return Summary{}, err
	}
	purchaser := Purchaser{Category: Category(user.Category), RegisteredAt: user.RegisteredAt}

	lines := make([]pricing.LineItem, 0, len(items))
	stored := make([]store.BillItem, 0, len(items))
	for _, req := range items {
		itemID, err := uuid.Parse(req.ItemID)
		if err != nil {
			return Summary{}, common.NewAppError("ITEM_NOT_FOUND", "item not found", httpStatusNotFound, err)
		}
		item, err := s.Items.GetItemByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return Summary{}, common.NewAppError("ITEM_NOT_FOUND", "item not found", httpStatusNotFound, err)
			}
			return Summary{}, fmt.Errorf("resolve item %s: %w", req.ItemID, err)
		}
		lines = append(lines, pricing.LineItem{Qty: req.Quantity, UnitPrice: item.Price, Grocery: item.Grocery})
		stored = append(stored, store.BillItem{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Grocery:   item.Grocery,
			Quantity:  req.Quantity,
		})
	}

	subtotal := pricing.Subtotal(lines)
	net := NetPayable(lines, subtotal, purchaser, s.now())

	saved, err := s.Bills.SaveBill(ctx, store.Bill{
		UserID:           user.ID,
		TotalAmount:      subtotal,
		DiscountedAmount: subtotal - net,
		NetPayableAmount: net,
		Items:            stored,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("save bill: %w", err)
	}

	obs.RecordBillCreated(string(purchaser.Category), saved.NetPayableAmount)
	return toSummary(saved), nil
}

// Get loads a bill. Only the bill's owner and employee-category users may
// read it.
func (s *Service) Get(ctx context.Context, billID, actingUserID string) (Summary, error) {
	id, err := uuid.Parse(billID)
	if err != nil {
		return Summary{}, common.NewAppError("BILL_NOT_FOUND", "bill not found", httpStatusNotFound, err)
	}
	bill, err := s.Bills.GetBillByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Summary{}, common.NewAppError("BILL_NOT_FOUND", "bill not found", httpStatusNotFound, err)
		}
		return Summary{}, fmt.Errorf("get bill: %w", err)
	}

	user, err := s.resolveUser(ctx, actingUserID)
	if err != nil {
		return Summary{}, err
	}
	isOwner := bill.UserID == user.ID
	isEmployee := Category(user.Category) == CategoryEmployee
	if !isOwner && !isEmployee {
		return Summary{}, common.NewAppError("FORBIDDEN", "not authorized to access this bill", httpStatusForbidden, nil)
	}
	return toSummary(bill), nil
}

func (s *Service) resolveUser(ctx context.Context, actingUserID string) (store.User, error) {
	id, err := uuid.Parse(actingUserID)
	if err != nil {
		return store.User{}, common.NewAppError("UNAUTHORIZED", "unauthorized", httpStatusUnauthorized, err)
	}
	user, err := s.Users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, common.NewAppError("USER_NOT_FOUND", "user not found", httpStatusNotFound, err)
		}
		return store.User{}, fmt.Errorf("resolve user: %w", err)
	}
	return user, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func toSummary(bill store.Bill) Summary {
	items := make([]LineItemView, 0, len(bill.Items))
	for _, it := range bill.Items {
		items = append(items, LineItemView{
			ItemID:    it.ItemID.String(),
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Grocery:   it.Grocery,
			Quantity:  it.Quantity,
		})
	}
	return Summary{
		ID:               bill.ID.String(),
		UserID:           bill.UserID.String(),
		Items:            items,
		TotalAmount:      bill.TotalAmount,
		DiscountedAmount: bill.DiscountedAmount,
		NetPayableAmount: bill.NetPayableAmount,
		CreatedAt:        bill.CreatedAt,
	}
}

package billing

import (
	"time"

	"github.com/noah-isme/backend-billing/internal/pricing"
)

// Category classifies a registered user for discount purposes.
type Category string

const (
	CategoryRegular   Category = "REGULAR"
	CategoryEmployee  Category = "EMPLOYEE"
	CategoryAffiliate Category = "AFFILIATE"
)

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategoryRegular, CategoryEmployee, CategoryAffiliate:
		return true
	}
	return false
}

// Purchaser carries the user attributes the discount engine reads.
type Purchaser struct {
	Category     Category
	RegisteredAt time.Time
}

const (
	employeeRateBps  = 3000
	affiliateRateBps = 1000
	loyaltyRateBps   = 500
	loyaltyYears     = 2

	// Every full 10000 cents ($100) of the percentage-discounted amount earns
	// a flat 500 cent ($5) reduction.
	stepThreshold = pricing.Money(10000)
	stepAmount    = pricing.Money(500)
)

// RateBps resolves the percentage discount in basis points for a purchaser.
// Category checks short-circuit before the tenure check: employees and
// affiliates get their rate regardless of how long ago they registered.
func RateBps(p Purchaser, now time.Time) int64 {
	if p.Category == CategoryEmployee {
		return employeeRateBps
	}
	if p.Category == CategoryAffiliate {
		return affiliateRateBps
	}
	if wholeYears(p.RegisteredAt, now) >= loyaltyYears {
		return loyaltyRateBps
	}
	return 0
}

// NetPayable computes the final amount due for a bill. The percentage
// discount is taken on non-grocery spend only but subtracted from the full
// subtotal; the stepped flat discount then applies to the already
// percentage-discounted amount.
func NetPayable(items []pricing.LineItem, subtotal pricing.Money, p Purchaser, now time.Time) pricing.Money {
	rate := RateBps(p, now)
	nonGrocery := pricing.NonGrocerySubtotal(items)
	afterPct := subtotal - (nonGrocery*rate)/10000
	return afterPct - stepDiscount(afterPct)
}

func stepDiscount(amount pricing.Money) pricing.Money {
	if amount <= 0 {
		return 0
	}
	return (amount / stepThreshold) * stepAmount
}

// wholeYears returns the number of complete calendar years elapsed between
// from and now. A user registered exactly n years ago has n whole years.
func wholeYears(from, now time.Time) int {
	if from.IsZero() || now.Before(from) {
		return 0
	}
	years := now.Year() - from.Year()
	if years > 0 && from.AddDate(years, 0, 0).After(now) {
		years--
	}
	return years
}

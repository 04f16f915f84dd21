package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// LineItem describes one billed position: a quantity of a catalog item at the
// unit price snapshotted when the bill was assembled.
type LineItem struct {
	Qty       int32
	UnitPrice Money
	Grocery   bool
}

// LineValue returns the value of a single line item. Precision is carried in
// full; no rounding happens at this level.
func LineValue(it LineItem) Money {
	if it.Qty <= 0 {
		return 0
	}
	return Money(it.Qty) * it.UnitPrice
}

// Subtotal sums line values over all line items. An empty slice yields 0.
func Subtotal(items []LineItem) Money {
	var total Money
	for _, it := range items {
		total += LineValue(it)
	}
	return total
}

// NonGrocerySubtotal sums line values over the line items not classified as
// grocery. Grocery spend is excluded from percentage discounts.
func NonGrocerySubtotal(items []LineItem) Money {
	var total Money
	for _, it := range items {
		if it.Grocery {
			continue
		}
		total += LineValue(it)
	}
	return total
}

package models

import "github.com/shopspring/decimal"

// Payment records money a user contributed toward a receipt's total.
// Payments are in the receipt's currency; the receipt's exchange rate
// converts them to base currency during aggregation.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// ReceiptID is the receipt the payment was made against.
	ReceiptID string

	// PaidBy is the user ID of the payer.
	PaidBy string

	// Amount is the payment amount (2 fractional digits).
	Amount decimal.Decimal

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64
}

package models

import "github.com/shopspring/decimal"

// ReceiptStatus tracks a receipt through its extraction lifecycle.
type ReceiptStatus string

const (
	StatusProcessing ReceiptStatus = "processing"
	StatusExtracted  ReceiptStatus = "extracted"
	StatusConfirmed  ReceiptStatus = "confirmed"
	StatusFailed     ReceiptStatus = "failed"
)

// Receipt represents an uploaded receipt owned by a group.
//
// Version is the optimistic-lock token for every mutation touching the
// receipt or its line items and assignments. It starts at 1 and is bumped by
// exactly one on every committed write; a writer presenting a stale version
// is rejected, never merged.
type Receipt struct {
	// ID is the unique identifier for the receipt (UUID format).
	ID string

	// GroupID is the group this receipt belongs to.
	GroupID string

	// UploadedBy is the user ID of the uploader.
	UploadedBy string

	// ImageURL points at the stored receipt image.
	ImageURL string

	// MerchantName is the extracted merchant name, if any.
	MerchantName string

	// ReceiptDate is the purchase date in YYYY-MM-DD form, if known.
	ReceiptDate string

	// Currency is the ISO 4217 code the receipt was issued in.
	Currency string

	// ExchangeRate converts receipt currency to the group's base currency.
	// Six fractional digits; 1 when the receipt is already in base currency.
	ExchangeRate decimal.Decimal

	// Subtotal, Tax, ServiceCharge and Total are the extracted receipt
	// amounts (2 fractional digits). Total is the amount payments are
	// validated against.
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	ServiceCharge decimal.Decimal
	Total         decimal.Decimal

	// Status is the extraction lifecycle state.
	Status ReceiptStatus

	// Version is the monotonically increasing optimistic-lock token.
	Version int64

	// CreatedAt is the Unix timestamp when the receipt was created.
	CreatedAt int64

	// LineItems are the receipt's line items, ordered by SortOrder.
	LineItems []LineItem
}

// LineItem is a single line on a receipt. Amount is the ledger-authoritative
// cost to be split; Quantity and UnitPrice are informational only.
type LineItem struct {
	// ID is the unique identifier for the line item (UUID format).
	ID string

	// ReceiptID is the receipt this item belongs to.
	ReceiptID string

	// Description is the item text as extracted or entered.
	Description string

	// Quantity and UnitPrice describe the line as printed. They are not used
	// by any balance computation.
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal

	// Amount is the exact cost of the line (2 fractional digits). Shares for
	// this item always sum to Amount.
	Amount decimal.Decimal

	// SortOrder preserves the on-receipt ordering.
	SortOrder int

	// Assignments are the current per-user shares of this item.
	Assignments []LineItemAssignment
}

// LineItemAssignment gives one user a share of one line item.
type LineItemAssignment struct {
	// ID is the unique identifier for the assignment (UUID format).
	ID string

	// LineItemID is the line item being shared.
	LineItemID string

	// UserID is the user receiving the share.
	UserID string

	// ShareAmount is this user's portion of the item (2 fractional digits).
	ShareAmount decimal.Decimal
}

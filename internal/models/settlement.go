package models

import "github.com/shopspring/decimal"

// Settlement records a manual debt clearance between two group members.
// Amounts are already in the group's base currency. Only settlements with
// IsSettled set affect balances.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromUser is the user who paid (debtor settling up).
	FromUser string

	// ToUser is the user who received payment (creditor being paid).
	ToUser string

	// Amount is the settled amount in the group's base currency.
	Amount decimal.Decimal

	// IsSettled marks the settlement as completed. Pending settlements are
	// representable but never counted.
	IsSettled bool

	// SettledAt is the Unix timestamp of completion (0 if pending).
	SettledAt int64

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}

package models

// Group represents a set of users who split receipts together.
// All balances and settlements within a group are expressed in its base
// currency; receipts in other currencies carry an exchange rate back to it.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Japan Trip").
	Name string

	// BaseCurrency is the ISO 4217 code of the group's accounting currency.
	BaseCurrency string

	// CreatedBy is the user ID of the group's creator.
	CreatedBy string

	// MemberIDs lists the user IDs of the group's members.
	MemberIDs []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

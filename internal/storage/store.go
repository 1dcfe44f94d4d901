// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/splitscan/splitscan/internal/ledger"
	"github.com/splitscan/splitscan/internal/models"
)

var (
	// ErrNotFound indicates the referenced entity does not exist. The
	// operation commits no partial effect.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict indicates an optimistic-lock failure: the expected
	// receipt version did not match the stored one at write time. The write
	// is rejected entirely; callers refetch and retry.
	ErrVersionConflict = errors.New("receipt version conflict")
)

// BulkAssignEntry names the users a line item should be split among.
// Entries with no users are skipped (the item ends up unassigned).
type BulkAssignEntry struct {
	LineItemID string
	UserIDs    []string
}

// ToggleResult is the outcome of a single assignment toggle.
type ToggleResult struct {
	// Assigned reports whether the user ended up assigned (true = added).
	Assigned bool

	// NewVersion is the receipt version after the toggle.
	NewVersion int64

	// Assignments is the line item's full assignment set after the toggle,
	// with shares recomputed to sum exactly to the item amount.
	Assignments []models.LineItemAssignment
}

// Store defines the interface for ledger storage operations. The assignment
// mutations are version-guarded: they atomically bump the receipt version
// only when the caller's expected version matches, and return
// ErrVersionConflict otherwise.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// Groups
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroupsByUser(ctx context.Context, userID string) ([]*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, groupID string) error
	AddGroupMembers(ctx context.Context, groupID string, userIDs []string) error

	// Receipts
	CreateReceipt(ctx context.Context, receipt *models.Receipt) error
	GetReceipt(ctx context.Context, receiptID string) (*models.Receipt, error)
	ListReceiptsByGroup(ctx context.Context, groupID string) ([]*models.Receipt, error)
	// UpdateReceipt applies the receipt's mutable fields and line items under
	// the version gate, returning the new version.
	UpdateReceipt(ctx context.Context, receipt *models.Receipt, expectedVersion int64) (int64, error)
	DeleteReceipt(ctx context.Context, receiptID string) error

	// Assignments (version-guarded)
	BulkAssign(ctx context.Context, receiptID string, entries []BulkAssignEntry, expectedVersion int64) ([]models.LineItemAssignment, error)
	ToggleAssignment(ctx context.Context, receiptID, lineItemID, userID string, expectedVersion int64) (*ToggleResult, error)
	AssignAllToAll(ctx context.Context, receiptID string, expectedVersion int64) ([]models.LineItemAssignment, error)
	ListAssignmentsByReceipt(ctx context.Context, receiptID string) ([]models.LineItemAssignment, error)

	// Ledger reads. since filters by receipt creation time (0 = all time);
	// settlements are not time-filtered.
	ListAssignmentRows(ctx context.Context, groupID string, since int64) ([]ledger.AssignmentRow, error)
	ListPaymentRows(ctx context.Context, groupID string, since int64) ([]ledger.PaymentRow, error)
	ListSettlementRows(ctx context.Context, groupID string) ([]ledger.SettlementRow, error)
	// GroupReceiptTotals returns the base-currency sum of receipt totals and
	// the receipt count for the group since the given Unix time.
	GroupReceiptTotals(ctx context.Context, groupID string, since int64) (decimal.Decimal, int, error)

	// Payments
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	ListPaymentsByReceipt(ctx context.Context, receiptID string) ([]*models.Payment, error)
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	DeletePayment(ctx context.Context, paymentID string) error
	// SumPaymentsByReceipt totals payments on a receipt, optionally excluding
	// one payment (used when revalidating an update).
	SumPaymentsByReceipt(ctx context.Context, receiptID, excludePaymentID string) (decimal.Decimal, error)

	// Settlements
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)
	ClearGroupSettlements(ctx context.Context, groupID string) (int64, error)

	// Close releases any resources held by the store.
	Close() error
}

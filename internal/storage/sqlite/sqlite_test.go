package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/splitscan/splitscan/internal/models"
	"github.com/splitscan/splitscan/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "splitscan-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// seedReceipt creates three users, a group containing them and a receipt with
// two line items, returning the group and the freshly loaded receipt.
func seedReceipt(t *testing.T, store *SQLiteStore) (*models.Group, *models.Receipt) {
	t.Helper()
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "carol"} {
		user := models.NewUser(name+"@example.com", name, "hash")
		user.ID = name
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser(%s) failed: %v", name, err)
		}
	}

	group := &models.Group{
		Name:         "Dinner Club",
		BaseCurrency: "USD",
		CreatedBy:    "alice",
		MemberIDs:    []string{"alice", "bob", "carol"},
	}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	receipt := &models.Receipt{
		GroupID:    group.ID,
		UploadedBy: "alice",
		Currency:   "USD",
		Subtotal:   decimal.New(3000, -2),
		Total:      decimal.New(3300, -2),
		Status:     models.StatusExtracted,
		LineItems: []models.LineItem{
			{Description: "Pizza", Amount: decimal.New(2000, -2)},
			{Description: "Salad", Amount: decimal.New(1000, -2)},
		},
	}
	if err := store.CreateReceipt(ctx, receipt); err != nil {
		t.Fatalf("CreateReceipt failed: %v", err)
	}

	loaded, err := store.GetReceipt(ctx, receipt.ID)
	if err != nil {
		t.Fatalf("GetReceipt failed: %v", err)
	}
	return group, loaded
}

func sumShareAmounts(assignments []models.LineItemAssignment, lineItemID string) decimal.Decimal {
	total := decimal.Zero
	for _, a := range assignments {
		if a.LineItemID == lineItemID {
			total = total.Add(a.ShareAmount)
		}
	}
	return total
}

func TestCreateReceiptDefaults(t *testing.T) {
	store := newTestStore(t)
	_, receipt := seedReceipt(t, store)

	if receipt.Version != 1 {
		t.Errorf("Version = %d, want 1", receipt.Version)
	}
	if !receipt.ExchangeRate.Equal(decimal.New(1, 0)) {
		t.Errorf("ExchangeRate = %s, want 1", receipt.ExchangeRate)
	}
	if len(receipt.LineItems) != 2 {
		t.Fatalf("got %d line items, want 2", len(receipt.LineItems))
	}
	if receipt.CreatedAt == 0 {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestBulkAssign(t *testing.T) {
	store := newTestStore(t)
	_, receipt := seedReceipt(t, store)
	ctx := context.Background()

	pizza := receipt.LineItems[0]
	salad := receipt.LineItems[1]

	t.Run("replaces assignments and bumps version", func(t *testing.T) {
		entries := []storage.BulkAssignEntry{
			{LineItemID: pizza.ID, UserIDs: []string{"alice", "bob", "carol"}},
			{LineItemID: salad.ID, UserIDs: []string{"alice"}},
		}
		assignments, err := store.BulkAssign(ctx, receipt.ID, entries, 1)
		if err != nil {
			t.Fatalf("BulkAssign failed: %v", err)
		}
		if len(assignments) != 4 {
			t.Errorf("got %d assignments, want 4", len(assignments))
		}
		if !sumShareAmounts(assignments, pizza.ID).Equal(pizza.Amount) {
			t.Errorf("pizza shares sum to %s, want %s", sumShareAmounts(assignments, pizza.ID), pizza.Amount)
		}
		if !sumShareAmounts(assignments, salad.ID).Equal(salad.Amount) {
			t.Errorf("salad shares sum to %s, want %s", sumShareAmounts(assignments, salad.ID), salad.Amount)
		}

		updated, err := store.GetReceipt(ctx, receipt.ID)
		if err != nil {
			t.Fatalf("GetReceipt failed: %v", err)
		}
		if updated.Version != 2 {
			t.Errorf("Version = %d, want 2", updated.Version)
		}
	})

	t.Run("stale version is rejected without effect", func(t *testing.T) {
		before, err := store.ListAssignmentsByReceipt(ctx, receipt.ID)
		if err != nil {
			t.Fatalf("ListAssignmentsByReceipt failed: %v", err)
		}

		entries := []storage.BulkAssignEntry{
			{LineItemID: pizza.ID, UserIDs: []string{"bob"}},
		}
		_, err = store.BulkAssign(ctx, receipt.ID, entries, 1) // current version is 2
		if !errors.Is(err, storage.ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}

		after, err := store.ListAssignmentsByReceipt(ctx, receipt.ID)
		if err != nil {
			t.Fatalf("ListAssignmentsByReceipt failed: %v", err)
		}
		if len(after) != len(before) {
			t.Errorf("assignments changed after rejected write: %d -> %d", len(before), len(after))
		}

		current, err := store.GetReceipt(ctx, receipt.ID)
		if err != nil {
			t.Fatalf("GetReceipt failed: %v", err)
		}
		if current.Version != 2 {
			t.Errorf("Version = %d after rejected write, want 2", current.Version)
		}
	})

	t.Run("missing receipt reports not found", func(t *testing.T) {
		_, err := store.BulkAssign(ctx, "nonexistent", nil, 1)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestToggleAssignment(t *testing.T) {
	store := newTestStore(t)
	_, receipt := seedReceipt(t, store)
	ctx := context.Background()

	pizza := receipt.LineItems[0]

	result, err := store.ToggleAssignment(ctx, receipt.ID, pizza.ID, "alice", 1)
	if err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	if !result.Assigned {
		t.Error("first toggle should assign alice")
	}
	if result.NewVersion != 2 {
		t.Errorf("NewVersion = %d, want 2", result.NewVersion)
	}
	if !sumShareAmounts(result.Assignments, pizza.ID).Equal(pizza.Amount) {
		t.Errorf("shares sum to %s, want %s", sumShareAmounts(result.Assignments, pizza.ID), pizza.Amount)
	}

	result, err = store.ToggleAssignment(ctx, receipt.ID, pizza.ID, "bob", 2)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if len(result.Assignments) != 2 {
		t.Errorf("got %d assignments, want 2", len(result.Assignments))
	}
	if !sumShareAmounts(result.Assignments, pizza.ID).Equal(pizza.Amount) {
		t.Errorf("shares sum to %s after adding bob, want %s", sumShareAmounts(result.Assignments, pizza.ID), pizza.Amount)
	}

	// Toggling alice off leaves bob with the whole item.
	result, err = store.ToggleAssignment(ctx, receipt.ID, pizza.ID, "alice", 3)
	if err != nil {
		t.Fatalf("third toggle failed: %v", err)
	}
	if result.Assigned {
		t.Error("third toggle should unassign alice")
	}
	if len(result.Assignments) != 1 {
		t.Fatalf("got %d assignments, want 1", len(result.Assignments))
	}
	if result.Assignments[0].UserID != "bob" {
		t.Errorf("remaining user = %s, want bob", result.Assignments[0].UserID)
	}
	if !result.Assignments[0].ShareAmount.Equal(pizza.Amount) {
		t.Errorf("bob share = %s, want %s", result.Assignments[0].ShareAmount, pizza.Amount)
	}
	if result.NewVersion != 4 {
		t.Errorf("NewVersion = %d, want 4", result.NewVersion)
	}

	t.Run("stale version is rejected", func(t *testing.T) {
		_, err := store.ToggleAssignment(ctx, receipt.ID, pizza.ID, "carol", 1)
		if !errors.Is(err, storage.ErrVersionConflict) {
			t.Errorf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("unknown line item reports not found", func(t *testing.T) {
		_, err := store.ToggleAssignment(ctx, receipt.ID, "nonexistent", "alice", 4)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAssignAllToAll(t *testing.T) {
	store := newTestStore(t)
	_, receipt := seedReceipt(t, store)
	ctx := context.Background()

	assignments, err := store.AssignAllToAll(ctx, receipt.ID, 1)
	if err != nil {
		t.Fatalf("AssignAllToAll failed: %v", err)
	}

	// 2 items x 3 members.
	if len(assignments) != 6 {
		t.Errorf("got %d assignments, want 6", len(assignments))
	}
	for _, item := range receipt.LineItems {
		if !sumShareAmounts(assignments, item.ID).Equal(item.Amount) {
			t.Errorf("item %s shares sum to %s, want %s",
				item.Description, sumShareAmounts(assignments, item.ID), item.Amount)
		}
	}
}

func TestUpdateReceiptVersionGate(t *testing.T) {
	store := newTestStore(t)
	_, receipt := seedReceipt(t, store)
	ctx := context.Background()

	receipt.MerchantName = "Luigi's"
	newVersion, err := store.UpdateReceipt(ctx, receipt, 1)
	if err != nil {
		t.Fatalf("UpdateReceipt failed: %v", err)
	}
	if newVersion != 2 {
		t.Errorf("newVersion = %d, want 2", newVersion)
	}

	receipt.MerchantName = "Mario's"
	_, err = store.UpdateReceipt(ctx, receipt, 1)
	if !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	current, err := store.GetReceipt(ctx, receipt.ID)
	if err != nil {
		t.Fatalf("GetReceipt failed: %v", err)
	}
	if current.MerchantName != "Luigi's" {
		t.Errorf("MerchantName = %q after rejected write, want %q", current.MerchantName, "Luigi's")
	}
	if current.Version != 2 {
		t.Errorf("Version = %d after rejected write, want 2", current.Version)
	}
}

func TestGetReceiptNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetReceipt(context.Background(), "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

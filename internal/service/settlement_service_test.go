package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/splitscan/splitscan/internal/models"
	"github.com/splitscan/splitscan/internal/storage"
	"github.com/splitscan/splitscan/internal/storage/sqlite"
)

// fixedResolver returns a constant rate for every lookup.
type fixedResolver struct {
	rate decimal.Decimal
}

func (r fixedResolver) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	return r.rate, nil
}

type testEnv struct {
	store       storage.Store
	groups      *GroupService
	receipts    *ReceiptService
	assignments *AssignmentService
	payments    *PaymentService
	settlements *SettlementService
	stats       *StatsService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splitscan-service-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return &testEnv{
		store:       store,
		groups:      NewGroupService(store),
		receipts:    NewReceiptService(store, fixedResolver{rate: decimal.New(1, 0)}),
		assignments: NewAssignmentService(store),
		payments:    NewPaymentService(store),
		settlements: NewSettlementService(store),
		stats:       NewStatsService(store),
	}
}

func (e *testEnv) createUser(t *testing.T, id, name string) {
	t.Helper()
	user := models.NewUser(name+"@example.com", name, "hash")
	user.ID = id
	if err := e.store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", id, err)
	}
}

// seedDinner builds a group of alice and bob with one fully assigned,
// fully paid 100.00 receipt: alice paid, both owe half.
func seedDinner(t *testing.T, e *testEnv) *models.Group {
	t.Helper()
	ctx := context.Background()

	e.createUser(t, "alice", "Alice")
	e.createUser(t, "bob", "Bob")

	group, err := e.groups.CreateGroup(ctx, "alice", "Dinner", "USD", []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	receipt, err := e.receipts.CreateReceipt(ctx, "alice", &models.Receipt{
		GroupID:  group.ID,
		Currency: "USD",
		Total:    decimal.New(10000, -2),
		Status:   models.StatusExtracted,
		LineItems: []models.LineItem{
			{Description: "Dinner", Amount: decimal.New(10000, -2)},
		},
	})
	if err != nil {
		t.Fatalf("CreateReceipt failed: %v", err)
	}

	if _, err := e.assignments.AssignAllToAll(ctx, "alice", receipt.ID, receipt.Version); err != nil {
		t.Fatalf("AssignAllToAll failed: %v", err)
	}
	if _, err := e.payments.RecordPayment(ctx, receipt.ID, "alice", decimal.New(10000, -2)); err != nil {
		t.Fatalf("RecordPayment failed: %v", err)
	}
	return group
}

func TestSimplifyDebtsEndToEnd(t *testing.T) {
	e := setupEnv(t)
	group := seedDinner(t, e)
	ctx := context.Background()

	result, err := e.settlements.SimplifyDebts(ctx, "alice", group.ID)
	if err != nil {
		t.Fatalf("SimplifyDebts failed: %v", err)
	}

	if len(result.Balances) != 1 {
		t.Fatalf("got %d transfers, want 1", len(result.Balances))
	}
	tr := result.Balances[0]
	if tr.FromUserID != "bob" || tr.ToUserID != "alice" {
		t.Errorf("transfer %s -> %s, want bob -> alice", tr.FromUserID, tr.ToUserID)
	}
	if !tr.Amount.Equal(decimal.New(5000, -2)) {
		t.Errorf("amount = %s, want 50.00", tr.Amount)
	}
	if tr.FromUserName != "Bob" || tr.ToUserName != "Alice" {
		t.Errorf("names = %q -> %q, want Bob -> Alice", tr.FromUserName, tr.ToUserName)
	}
	if !result.TotalAssigned.Equal(decimal.New(10000, -2)) {
		t.Errorf("total assigned = %s, want 100.00", result.TotalAssigned)
	}
}

func TestSettleDebtZeroesBalances(t *testing.T) {
	e := setupEnv(t)
	group := seedDinner(t, e)
	ctx := context.Background()

	if _, err := e.settlements.SettleDebt(ctx, "bob", group.ID, "bob", "alice", decimal.New(5000, -2)); err != nil {
		t.Fatalf("SettleDebt failed: %v", err)
	}

	result, err := e.settlements.SimplifyDebts(ctx, "alice", group.ID)
	if err != nil {
		t.Fatalf("SimplifyDebts failed: %v", err)
	}
	if len(result.Balances) != 0 {
		t.Errorf("got %d transfers after settling, want 0", len(result.Balances))
	}

	snapshots, err := e.settlements.AggregateGroupFinancials(ctx, "alice", group.ID)
	if err != nil {
		t.Fatalf("AggregateGroupFinancials failed: %v", err)
	}
	if !snapshots["bob"].NetBalance.IsZero() {
		t.Errorf("bob net = %s after settling, want 0", snapshots["bob"].NetBalance)
	}
	if !snapshots["alice"].NetBalance.IsZero() {
		t.Errorf("alice net = %s after settling, want 0", snapshots["alice"].NetBalance)
	}
}

func TestClearSettlementsRestoresDebts(t *testing.T) {
	e := setupEnv(t)
	group := seedDinner(t, e)
	ctx := context.Background()

	if _, err := e.settlements.SettleDebt(ctx, "bob", group.ID, "bob", "alice", decimal.New(5000, -2)); err != nil {
		t.Fatalf("SettleDebt failed: %v", err)
	}
	cleared, err := e.settlements.ClearSettlements(ctx, "alice", group.ID)
	if err != nil {
		t.Fatalf("ClearSettlements failed: %v", err)
	}
	if cleared != 1 {
		t.Errorf("cleared = %d, want 1", cleared)
	}

	result, err := e.settlements.SimplifyDebts(ctx, "alice", group.ID)
	if err != nil {
		t.Fatalf("SimplifyDebts failed: %v", err)
	}
	if len(result.Balances) != 1 {
		t.Errorf("got %d transfers after clearing, want 1", len(result.Balances))
	}
}

func TestNonMemberIsDenied(t *testing.T) {
	e := setupEnv(t)
	group := seedDinner(t, e)
	ctx := context.Background()

	e.createUser(t, "mallory", "Mallory")

	if _, err := e.settlements.SimplifyDebts(ctx, "mallory", group.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("SimplifyDebts: expected ErrPermissionDenied, got %v", err)
	}
	if _, err := e.settlements.AggregateGroupFinancials(ctx, "mallory", group.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("AggregateGroupFinancials: expected ErrPermissionDenied, got %v", err)
	}
	if _, err := e.groups.GetGroup(ctx, "mallory", group.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("GetGroup: expected ErrPermissionDenied, got %v", err)
	}
}

func TestPaymentExceedingTotalRejected(t *testing.T) {
	e := setupEnv(t)
	group := seedDinner(t, e)
	ctx := context.Background()

	receipts, err := e.receipts.ListReceipts(ctx, "alice", group.ID)
	if err != nil {
		t.Fatalf("ListReceipts failed: %v", err)
	}
	if len(receipts) != 1 {
		t.Fatalf("got %d receipts, want 1", len(receipts))
	}

	// The receipt is already fully paid; any further payment must fail.
	_, err = e.payments.RecordPayment(ctx, receipts[0].ID, "bob", decimal.New(1, -2))
	if !errors.Is(err, ErrPaymentExceedsTotal) {
		t.Errorf("expected ErrPaymentExceedsTotal, got %v", err)
	}
}

func TestGroupStats(t *testing.T) {
	e := setupEnv(t)
	group := seedDinner(t, e)
	ctx := context.Background()

	stats, err := e.stats.GetGroupStats(ctx, "alice", group.ID, PeriodMonth)
	if err != nil {
		t.Fatalf("GetGroupStats failed: %v", err)
	}

	if stats.ReceiptCount != 1 {
		t.Errorf("receipt count = %d, want 1", stats.ReceiptCount)
	}
	if stats.TotalSpending != "100.00" {
		t.Errorf("total spending = %s, want 100.00", stats.TotalSpending)
	}
	if stats.BaseCurrency != "USD" {
		t.Errorf("base currency = %s, want USD", stats.BaseCurrency)
	}
	if len(stats.SpendingByUser) != 2 {
		t.Fatalf("got %d user rows, want 2", len(stats.SpendingByUser))
	}
	for _, row := range stats.SpendingByUser {
		if row.Amount != "50.00" {
			t.Errorf("%s spent = %s, want 50.00", row.UserID, row.Amount)
		}
	}
}

func TestStaleVersionSurfacesConflict(t *testing.T) {
	e := setupEnv(t)
	group := seedDinner(t, e)
	ctx := context.Background()

	receipts, err := e.receipts.ListReceipts(ctx, "alice", group.ID)
	if err != nil {
		t.Fatalf("ListReceipts failed: %v", err)
	}
	receiptID := receipts[0].ID

	// AssignAllToAll in seedDinner bumped the version to 2; reusing 1 is stale.
	_, err = e.assignments.AssignAllToAll(ctx, "alice", receiptID, 1)
	if !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	// Refetch-and-retry succeeds.
	current, err := e.receipts.GetReceipt(ctx, "alice", receiptID)
	if err != nil {
		t.Fatalf("GetReceipt failed: %v", err)
	}
	if _, err := e.assignments.AssignAllToAll(ctx, "alice", receiptID, current.Version); err != nil {
		t.Fatalf("retry with fresh version failed: %v", err)
	}
}

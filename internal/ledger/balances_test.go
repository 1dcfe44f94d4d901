package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAggregate(t *testing.T) {
	rate130 := decimal.New(13, -1) // 1.30
	one := decimal.New(1, 0)

	tests := []struct {
		name        string
		assignments []AssignmentRow
		payments    []PaymentRow
		settlements []SettlementRow
		validate    func(t *testing.T, snapshots map[string]*Snapshot)
	}{
		{
			name: "shares convert through exchange rate",
			assignments: []AssignmentRow{
				{UserID: "alice", DisplayName: "Alice", ShareAmount: decimal.New(5000, -2), ExchangeRate: rate130},
			},
			validate: func(t *testing.T, snapshots map[string]*Snapshot) {
				want := decimal.New(6500, -2) // 50.00 * 1.30
				if !snapshots["alice"].Spent.Equal(want) {
					t.Errorf("alice spent = %s, want %s", snapshots["alice"].Spent, want)
				}
				if !snapshots["alice"].NetBalance.Equal(want.Neg()) {
					t.Errorf("alice net = %s, want %s", snapshots["alice"].NetBalance, want.Neg())
				}
			},
		},
		{
			name: "net balance formula",
			assignments: []AssignmentRow{
				{UserID: "alice", ShareAmount: decimal.New(3000, -2), ExchangeRate: one},
				{UserID: "bob", ShareAmount: decimal.New(7000, -2), ExchangeRate: one},
			},
			payments: []PaymentRow{
				{UserID: "alice", Amount: decimal.New(10000, -2), ExchangeRate: one},
			},
			settlements: []SettlementRow{
				{FromUser: "bob", ToUser: "alice", Amount: decimal.New(2000, -2)},
			},
			validate: func(t *testing.T, snapshots map[string]*Snapshot) {
				// alice: paid 100 - spent 30 + out 0 - in 20 = 50
				if !snapshots["alice"].NetBalance.Equal(decimal.New(5000, -2)) {
					t.Errorf("alice net = %s, want 50.00", snapshots["alice"].NetBalance)
				}
				// bob: paid 0 - spent 70 + out 20 - in 0 = -50
				if !snapshots["bob"].NetBalance.Equal(decimal.New(-5000, -2)) {
					t.Errorf("bob net = %s, want -50.00", snapshots["bob"].NetBalance)
				}
			},
		},
		{
			name: "settlements are not rate-converted",
			settlements: []SettlementRow{
				{FromUser: "alice", ToUser: "bob", Amount: decimal.New(1234, -2)},
			},
			validate: func(t *testing.T, snapshots map[string]*Snapshot) {
				if !snapshots["alice"].SettledOut.Equal(decimal.New(1234, -2)) {
					t.Errorf("alice settled_out = %s, want 12.34", snapshots["alice"].SettledOut)
				}
				if !snapshots["bob"].SettledIn.Equal(decimal.New(1234, -2)) {
					t.Errorf("bob settled_in = %s, want 12.34", snapshots["bob"].SettledIn)
				}
			},
		},
		{
			name: "zero rate treated as identity",
			assignments: []AssignmentRow{
				{UserID: "alice", ShareAmount: decimal.New(999, -2)},
			},
			validate: func(t *testing.T, snapshots map[string]*Snapshot) {
				if !snapshots["alice"].Spent.Equal(decimal.New(999, -2)) {
					t.Errorf("alice spent = %s, want 9.99", snapshots["alice"].Spent)
				}
			},
		},
		{
			name: "empty inputs yield empty map",
			validate: func(t *testing.T, snapshots map[string]*Snapshot) {
				if len(snapshots) != 0 {
					t.Errorf("expected empty map, got %d entries", len(snapshots))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshots := Aggregate(tt.assignments, tt.payments, tt.settlements)
			tt.validate(t, snapshots)
		})
	}
}

func TestAggregateGroupSumsToZero(t *testing.T) {
	// Every receipt fully paid means the group's net balances cancel.
	one := decimal.New(1, 0)
	assignments := []AssignmentRow{
		{UserID: "alice", ShareAmount: decimal.New(3334, -2), ExchangeRate: one},
		{UserID: "bob", ShareAmount: decimal.New(3333, -2), ExchangeRate: one},
		{UserID: "carol", ShareAmount: decimal.New(3333, -2), ExchangeRate: one},
	}
	payments := []PaymentRow{
		{UserID: "alice", Amount: decimal.New(10000, -2), ExchangeRate: one},
	}

	snapshots := Aggregate(assignments, payments, nil)

	total := decimal.Zero
	for _, s := range snapshots {
		total = total.Add(s.NetBalance)
	}
	if !total.IsZero() {
		t.Errorf("group net balances sum to %s, want 0", total)
	}
}

package ledger

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func sumShares(shares map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, share := range shares {
		total = total.Add(share)
	}
	return total
}

func TestComputeShares(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		userIDs  []string
		seed     string
		validate func(t *testing.T, shares map[string]decimal.Decimal)
	}{
		{
			name:    "even split no remainder",
			amount:  "30.00",
			userIDs: []string{"alice", "bob", "carol"},
			seed:    "item-1",
			validate: func(t *testing.T, shares map[string]decimal.Decimal) {
				for id, share := range shares {
					if !share.Equal(decimal.New(1000, -2)) {
						t.Errorf("%s share = %s, want 10.00", id, share)
					}
				}
			},
		},
		{
			name:    "remainder cents land on distinct users",
			amount:  "10.00",
			userIDs: []string{"alice", "bob", "carol"},
			seed:    "item-1",
			validate: func(t *testing.T, shares map[string]decimal.Decimal) {
				var high, low int
				for _, share := range shares {
					switch {
					case share.Equal(decimal.New(334, -2)):
						high++
					case share.Equal(decimal.New(333, -2)):
						low++
					default:
						t.Errorf("unexpected share %s", share)
					}
				}
				if high != 1 || low != 2 {
					t.Errorf("got %d high / %d low shares, want 1 / 2", high, low)
				}
			},
		},
		{
			name:    "single user gets everything",
			amount:  "17.53",
			userIDs: []string{"alice"},
			seed:    "item-9",
			validate: func(t *testing.T, shares map[string]decimal.Decimal) {
				if !shares["alice"].Equal(decimal.New(1753, -2)) {
					t.Errorf("alice share = %s, want 17.53", shares["alice"])
				}
			},
		},
		{
			name:    "empty seed falls back to lexical order",
			amount:  "0.05",
			userIDs: []string{"carol", "alice", "bob"},
			seed:    "",
			validate: func(t *testing.T, shares map[string]decimal.Decimal) {
				// 5 cents among 3: base 1, remainder 2 goes to alice and bob.
				if !shares["alice"].Equal(decimal.New(2, -2)) {
					t.Errorf("alice share = %s, want 0.02", shares["alice"])
				}
				if !shares["bob"].Equal(decimal.New(2, -2)) {
					t.Errorf("bob share = %s, want 0.02", shares["bob"])
				}
				if !shares["carol"].Equal(decimal.New(1, -2)) {
					t.Errorf("carol share = %s, want 0.01", shares["carol"])
				}
			},
		},
		{
			name:    "no users yields empty map",
			amount:  "10.00",
			userIDs: nil,
			seed:    "item-1",
			validate: func(t *testing.T, shares map[string]decimal.Decimal) {
				if len(shares) != 0 {
					t.Errorf("expected empty map, got %v", shares)
				}
			},
		},
		{
			name:    "zero amount yields zero shares",
			amount:  "0.00",
			userIDs: []string{"alice", "bob"},
			seed:    "item-1",
			validate: func(t *testing.T, shares map[string]decimal.Decimal) {
				for id, share := range shares {
					if !share.IsZero() {
						t.Errorf("%s share = %s, want 0.00", id, share)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := mustDecimal(t, tt.amount)
			shares := ComputeShares(amount, tt.userIDs, tt.seed)

			if len(tt.userIDs) > 0 && !sumShares(shares).Equal(amount) {
				t.Errorf("shares sum to %s, want %s", sumShares(shares), amount)
			}
			if tt.validate != nil {
				tt.validate(t, shares)
			}
		})
	}
}

func TestComputeSharesDeterministic(t *testing.T) {
	amount := mustDecimal(t, "10.01")
	userIDs := []string{"u1", "u2", "u3"}

	first := ComputeShares(amount, userIDs, "receipt-42")
	for i := 0; i < 20; i++ {
		again := ComputeShares(amount, userIDs, "receipt-42")
		for id, share := range first {
			if !again[id].Equal(share) {
				t.Fatalf("run %d: %s share changed from %s to %s", i, id, share, again[id])
			}
		}
	}
}

func TestComputeSharesSeedSpreadsRemainder(t *testing.T) {
	// Splitting 0.04 among 3 leaves 1 extra cent. Over many seeds the extra
	// cent should land on every user a meaningful fraction of the time, not
	// always on the same one.
	userIDs := []string{"alice", "bob", "carol"}
	amount := mustDecimal(t, "0.04")
	extraCent := decimal.New(2, -2)

	counts := map[string]int{}
	const runs = 300
	for i := 0; i < runs; i++ {
		shares := ComputeShares(amount, userIDs, fmt.Sprintf("seed-%d", i))
		for id, share := range shares {
			if share.Equal(extraCent) {
				counts[id]++
			}
		}
	}

	for _, id := range userIDs {
		if counts[id] < runs/10 {
			t.Errorf("user %s got the extra cent only %d/%d times", id, counts[id], runs)
		}
	}
}

func TestComputeReceiptShares(t *testing.T) {
	tests := []struct {
		name      string
		receiptID string
		items     []ReceiptItem
		wantTotal string
		validate  func(t *testing.T, shares map[string]decimal.Decimal)
	}{
		{
			name:      "shares sum to assigned total across items",
			receiptID: "r1",
			items: []ReceiptItem{
				{ID: "i1", Amount: decimal.New(1000, -2), UserIDs: []string{"alice", "bob", "carol"}},
				{ID: "i2", Amount: decimal.New(755, -2), UserIDs: []string{"alice", "bob"}},
				{ID: "i3", Amount: decimal.New(301, -2), UserIDs: []string{"carol"}},
			},
			wantTotal: "20.56",
		},
		{
			name:      "unassigned items contribute nothing",
			receiptID: "r2",
			items: []ReceiptItem{
				{ID: "i1", Amount: decimal.New(500, -2), UserIDs: []string{"alice"}},
				{ID: "i2", Amount: decimal.New(9900, -2), UserIDs: nil},
			},
			wantTotal: "5.00",
			validate: func(t *testing.T, shares map[string]decimal.Decimal) {
				if len(shares) != 1 {
					t.Errorf("expected 1 user, got %d", len(shares))
				}
			},
		},
		{
			name:      "no assigned items yields empty map",
			receiptID: "r3",
			items: []ReceiptItem{
				{ID: "i1", Amount: decimal.New(500, -2), UserIDs: nil},
			},
			wantTotal: "0.00",
			validate: func(t *testing.T, shares map[string]decimal.Decimal) {
				if len(shares) != 0 {
					t.Errorf("expected empty map, got %v", shares)
				}
			},
		},
		{
			name:      "repeating thirds quantize without drift",
			receiptID: "r4",
			items: []ReceiptItem{
				{ID: "i1", Amount: decimal.New(100, -2), UserIDs: []string{"a", "b", "c"}},
				{ID: "i2", Amount: decimal.New(100, -2), UserIDs: []string{"a", "b", "c"}},
				{ID: "i3", Amount: decimal.New(100, -2), UserIDs: []string{"a", "b", "c"}},
			},
			wantTotal: "3.00",
			validate: func(t *testing.T, shares map[string]decimal.Decimal) {
				// Each user accumulates exactly 1.00 at full precision, so no
				// remainder cent should exist.
				for id, share := range shares {
					if !share.Equal(decimal.New(100, -2)) {
						t.Errorf("%s share = %s, want 1.00", id, share)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := ComputeReceiptShares(tt.receiptID, tt.items)

			want := mustDecimal(t, tt.wantTotal)
			if !sumShares(shares).Equal(want) {
				t.Errorf("shares sum to %s, want %s", sumShares(shares), want)
			}
			if tt.validate != nil {
				tt.validate(t, shares)
			}
		})
	}
}

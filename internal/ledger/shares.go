// Package ledger implements the pure calculation core: exact-cent share
// allocation, per-user balance aggregation and greedy debt simplification.
// Nothing in this package touches storage or performs I/O.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/shopspring/decimal"
)

// ComputeShares splits amount into per-user shares that sum EXACTLY to
// amount. It works in integer cents: base = cents/n for everyone, and the
// cents mod n remainder goes to the first users ordered by the hex digest of
// "seed:userID". Seeding with the line item ID means the extra pennies land
// on different users for different items instead of always hitting the same
// ones.
//
// With an empty seed, users are ordered by their raw ID instead. Still
// deterministic, but the remainder always lands on the lexically first
// users — acceptable degradation, not a bug.
//
// An empty user list yields an empty map, not an error. Amount must already
// be cent-quantized (2 fractional digits).
func ComputeShares(amount decimal.Decimal, userIDs []string, seed string) map[string]decimal.Decimal {
	n := int64(len(userIDs))
	if n == 0 {
		return map[string]decimal.Decimal{}
	}

	totalCents := amount.Shift(2).IntPart()
	base := totalCents / n
	extra := totalCents % n

	ordered := remainderOrder(userIDs, seed)

	shares := make(map[string]decimal.Decimal, n)
	for i, id := range ordered {
		cents := base
		if int64(i) < extra {
			cents++
		}
		shares[id] = decimal.New(cents, -2)
	}
	return shares
}

// ReceiptItem is the slice of a line item the receipt-level allocator needs.
type ReceiptItem struct {
	ID      string
	Amount  decimal.Decimal
	UserIDs []string
}

// ComputeReceiptShares splits every item of a receipt evenly among its
// assigned users at full precision, totals the fractions per user, then
// re-quantizes the totals to cents with the whole-receipt remainder
// distributed deterministically (seed = receipt ID). The resulting shares
// sum exactly to the sum of the assigned item amounts.
//
// Items with no assigned users contribute nothing.
func ComputeReceiptShares(receiptID string, items []ReceiptItem) map[string]decimal.Decimal {
	total := decimal.Zero
	exact := make(map[string]decimal.Decimal)
	for _, item := range items {
		n := len(item.UserIDs)
		if n == 0 {
			continue
		}
		total = total.Add(item.Amount)
		fraction := item.Amount.Div(decimal.NewFromInt(int64(n)))
		for _, id := range item.UserIDs {
			exact[id] = exact[id].Add(fraction)
		}
	}
	if len(exact) == 0 {
		return map[string]decimal.Decimal{}
	}

	// Floor each user's exact total to cents, then hand out the leftover
	// cents in digest order so the receipt total is preserved exactly.
	totalCents := total.Shift(2).IntPart()
	floorCents := make(map[string]int64, len(exact))
	userIDs := make([]string, 0, len(exact))
	var allocated int64
	for id, amt := range exact {
		cents := amt.Shift(2).IntPart()
		floorCents[id] = cents
		allocated += cents
		userIDs = append(userIDs, id)
	}
	remainder := totalCents - allocated

	ordered := remainderOrder(userIDs, receiptID)
	shares := make(map[string]decimal.Decimal, len(ordered))
	for i, id := range ordered {
		cents := floorCents[id]
		if int64(i) < remainder {
			cents++
		}
		shares[id] = decimal.New(cents, -2)
	}
	return shares
}

// remainderOrder returns userIDs sorted by the hex digest of "seed:id", or by
// raw ID when seed is empty. The digest must be stable across process
// restarts, so it uses sha256 rather than any runtime-seeded hash.
func remainderOrder(userIDs []string, seed string) []string {
	ordered := make([]string, len(userIDs))
	copy(ordered, userIDs)
	if seed == "" {
		sort.Strings(ordered)
		return ordered
	}
	keys := make(map[string]string, len(ordered))
	for _, id := range ordered {
		sum := sha256.Sum256([]byte(seed + ":" + id))
		keys[id] = hex.EncodeToString(sum[:])
	}
	sort.Slice(ordered, func(i, j int) bool {
		if keys[ordered[i]] == keys[ordered[j]] {
			return ordered[i] < ordered[j]
		}
		return keys[ordered[i]] < keys[ordered[j]]
	})
	return ordered
}

package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// noiseThreshold suppresses sub-cent transfers that only exist because of
// exchange-rate multiplication noise.
var noiseThreshold = decimal.New(1, -2) // 0.01

// Transfer is one settling instruction: FromUser pays ToUser Amount.
type Transfer struct {
	FromUserID   string
	FromUserName string
	ToUserID     string
	ToUserName   string
	Amount       decimal.Decimal
}

// Result is the simplified settlement plan for a group plus aggregate
// totals, quantized to cents at output only.
type Result struct {
	Balances      []Transfer
	TotalAssigned decimal.Decimal
	TotalPaid     decimal.Decimal
}

// Simplify reduces per-user snapshots to the minimal list of pairwise
// transfers that zeroes all balances. Debtors (net < 0) and creditors
// (net > 0) are each sorted descending by magnitude (ties by user ID), then
// matched greedily: largest debtor against largest creditor, transferring
// the smaller of the two remainders. Transfers at or below one cent are
// suppressed but still consume the matched balances.
//
// The result has at most min(#debtors, #creditors) transfers and is
// deterministic for a given input.
func Simplify(snapshots map[string]*Snapshot) Result {
	type party struct {
		userID    string
		name      string
		remaining decimal.Decimal
	}

	var debtors, creditors []party
	totalAssigned := decimal.Zero
	totalPaid := decimal.Zero

	for _, s := range snapshots {
		totalAssigned = totalAssigned.Add(s.Spent)
		totalPaid = totalPaid.Add(s.Paid)
		switch {
		case s.NetBalance.IsNegative():
			debtors = append(debtors, party{s.UserID, s.DisplayName, s.NetBalance.Neg()})
		case s.NetBalance.IsPositive():
			creditors = append(creditors, party{s.UserID, s.DisplayName, s.NetBalance})
		}
	}

	byMagnitude := func(parties []party) func(i, j int) bool {
		return func(i, j int) bool {
			if parties[i].remaining.Equal(parties[j].remaining) {
				return parties[i].userID < parties[j].userID
			}
			return parties[i].remaining.GreaterThan(parties[j].remaining)
		}
	}
	sort.Slice(debtors, byMagnitude(debtors))
	sort.Slice(creditors, byMagnitude(creditors))

	transfers := []Transfer{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		transfer := decimal.Min(debtors[i].remaining, creditors[j].remaining)
		if transfer.GreaterThan(noiseThreshold) {
			transfers = append(transfers, Transfer{
				FromUserID:   debtors[i].userID,
				FromUserName: debtors[i].name,
				ToUserID:     creditors[j].userID,
				ToUserName:   creditors[j].name,
				Amount:       transfer.Round(2),
			})
		}
		debtors[i].remaining = debtors[i].remaining.Sub(transfer)
		creditors[j].remaining = creditors[j].remaining.Sub(transfer)
		if debtors[i].remaining.LessThanOrEqual(noiseThreshold) {
			i++
		}
		if creditors[j].remaining.LessThanOrEqual(noiseThreshold) {
			j++
		}
	}

	return Result{
		Balances:      transfers,
		TotalAssigned: totalAssigned.Round(2),
		TotalPaid:     totalPaid.Round(2),
	}
}

package ledger

import "github.com/shopspring/decimal"

// AssignmentRow is one line-item share joined with its receipt's exchange
// rate, as read from storage.
type AssignmentRow struct {
	UserID       string
	DisplayName  string
	ShareAmount  decimal.Decimal
	ExchangeRate decimal.Decimal
}

// PaymentRow is one payment joined with its receipt's exchange rate.
type PaymentRow struct {
	UserID       string
	DisplayName  string
	Amount       decimal.Decimal
	ExchangeRate decimal.Decimal
}

// SettlementRow is one completed settlement. Settlement amounts are already
// in the group's base currency.
type SettlementRow struct {
	FromUser string
	ToUser   string
	Amount   decimal.Decimal
}

// Snapshot is one user's net financial position within a group.
// NetBalance = Paid - Spent + SettledOut - SettledIn; positive means the
// user is owed money, negative means the user owes.
type Snapshot struct {
	UserID      string
	DisplayName string
	Spent       decimal.Decimal
	Paid        decimal.Decimal
	SettledOut  decimal.Decimal
	SettledIn   decimal.Decimal
	NetBalance  decimal.Decimal
}

// Aggregate folds assignment, payment and settlement rows into one snapshot
// per user. Shares and payments are converted to base currency via their
// receipt's exchange rate; settlements are not converted. Intermediate sums
// are never re-rounded — stored values are already cent-quantized and rate
// multiplication noise is handled downstream by the simplifier's threshold.
//
// Empty inputs yield an empty map.
func Aggregate(assignments []AssignmentRow, payments []PaymentRow, settlements []SettlementRow) map[string]*Snapshot {
	snapshots := make(map[string]*Snapshot)
	get := func(userID string) *Snapshot {
		s, ok := snapshots[userID]
		if !ok {
			s = &Snapshot{UserID: userID}
			snapshots[userID] = s
		}
		return s
	}

	for _, row := range assignments {
		s := get(row.UserID)
		s.Spent = s.Spent.Add(row.ShareAmount.Mul(effectiveRate(row.ExchangeRate)))
		if row.DisplayName != "" {
			s.DisplayName = row.DisplayName
		}
	}

	for _, row := range payments {
		s := get(row.UserID)
		s.Paid = s.Paid.Add(row.Amount.Mul(effectiveRate(row.ExchangeRate)))
		if s.DisplayName == "" && row.DisplayName != "" {
			s.DisplayName = row.DisplayName
		}
	}

	for _, row := range settlements {
		from := get(row.FromUser)
		from.SettledOut = from.SettledOut.Add(row.Amount)
		to := get(row.ToUser)
		to.SettledIn = to.SettledIn.Add(row.Amount)
	}

	for _, s := range snapshots {
		s.NetBalance = s.Paid.Sub(s.Spent).Add(s.SettledOut).Sub(s.SettledIn)
	}

	return snapshots
}

// effectiveRate treats an unset rate as 1 (receipt already in base currency).
func effectiveRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return decimal.New(1, 0)
	}
	return rate
}

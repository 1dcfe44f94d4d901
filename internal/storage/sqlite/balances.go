package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/splitscan/splitscan/internal/ledger"
)

// ListAssignmentRows reads every line-item share in the group joined with
// its receipt's exchange rate, for the aggregator. since filters by receipt
// creation time (0 = all time).
func (s *SQLiteStore) ListAssignmentRows(ctx context.Context, groupID string, since int64) ([]ledger.AssignmentRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.user_id, COALESCE(u.display_name, ''), a.share_amount, r.exchange_rate
		 FROM line_item_assignments a
		 JOIN line_items li ON li.id = a.line_item_id
		 JOIN receipts r ON r.id = li.receipt_id
		 LEFT JOIN users u ON u.id = a.user_id
		 WHERE r.group_id = ? AND r.created_at >= ?`,
		groupID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignment rows: %w", err)
	}
	defer rows.Close()

	var out []ledger.AssignmentRow
	for rows.Next() {
		var row ledger.AssignmentRow
		var share, rate string
		if err := rows.Scan(&row.UserID, &row.DisplayName, &share, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan assignment row: %w", err)
		}
		if row.ShareAmount, err = parseDecimal(share); err != nil {
			return nil, err
		}
		if row.ExchangeRate, err = parseDecimal(rate); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignment rows: %w", err)
	}
	return out, nil
}

// ListPaymentRows reads every payment in the group joined with its receipt's
// exchange rate, for the aggregator.
func (s *SQLiteStore) ListPaymentRows(ctx context.Context, groupID string, since int64) ([]ledger.PaymentRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.paid_by, COALESCE(u.display_name, ''), p.amount, r.exchange_rate
		 FROM payments p
		 JOIN receipts r ON r.id = p.receipt_id
		 LEFT JOIN users u ON u.id = p.paid_by
		 WHERE r.group_id = ? AND r.created_at >= ?`,
		groupID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment rows: %w", err)
	}
	defer rows.Close()

	var out []ledger.PaymentRow
	for rows.Next() {
		var row ledger.PaymentRow
		var amount, rate string
		if err := rows.Scan(&row.UserID, &row.DisplayName, &amount, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		if row.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		if row.ExchangeRate, err = parseDecimal(rate); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment rows: %w", err)
	}
	return out, nil
}

// ListSettlementRows reads the group's completed settlements for the
// aggregator. Pending settlements never affect balances.
func (s *SQLiteStore) ListSettlementRows(ctx context.Context, groupID string) ([]ledger.SettlementRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT from_user, to_user, amount FROM settlements WHERE group_id = ? AND is_settled = 1",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlement rows: %w", err)
	}
	defer rows.Close()

	var out []ledger.SettlementRow
	for rows.Next() {
		var row ledger.SettlementRow
		var amount string
		if err := rows.Scan(&row.FromUser, &row.ToUser, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan settlement row: %w", err)
		}
		if row.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlement rows: %w", err)
	}
	return out, nil
}

// GroupReceiptTotals returns the base-currency sum of receipt totals and the
// receipt count for the group since the given Unix time. Summation happens
// in Go to keep decimal strings out of SQLite arithmetic.
func (s *SQLiteStore) GroupReceiptTotals(ctx context.Context, groupID string, since int64) (decimal.Decimal, int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT total, exchange_rate FROM receipts WHERE group_id = ? AND created_at >= ?",
		groupID, since,
	)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to get receipt totals: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	count := 0
	for rows.Next() {
		var totalStr, rateStr string
		if err := rows.Scan(&totalStr, &rateStr); err != nil {
			return decimal.Zero, 0, fmt.Errorf("failed to scan receipt totals: %w", err)
		}
		total, err := parseDecimal(totalStr)
		if err != nil {
			return decimal.Zero, 0, err
		}
		rate, err := parseDecimal(rateStr)
		if err != nil {
			return decimal.Zero, 0, err
		}
		if rate.IsZero() {
			rate = decimalOne
		}
		sum = sum.Add(total.Mul(rate))
		count++
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to iterate receipt totals: %w", err)
	}
	return sum, count, nil
}

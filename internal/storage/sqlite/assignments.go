package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitscan/splitscan/internal/ledger"
	"github.com/splitscan/splitscan/internal/models"
	"github.com/splitscan/splitscan/internal/storage"
)

// bumpVersion is the optimistic-lock primitive: a single conditional write
// that increments the receipt version only when the caller's expected
// version matches. Zero rows affected means either a stale version or a
// missing receipt; the two are distinguished so callers get the right error.
// Runs inside the caller's transaction, so a later rollback also undoes the
// bump.
func bumpVersion(ctx context.Context, tx *sql.Tx, receiptID string, expectedVersion int64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE receipts SET version = version + 1 WHERE id = ? AND version = ?",
		receiptID, expectedVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to bump receipt version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM receipts WHERE id = ?", receiptID).Scan(&exists)
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("receipt %s: %w", receiptID, storage.ErrNotFound)
		}
		if err != nil {
			return 0, fmt.Errorf("failed to check receipt existence: %w", err)
		}
		return 0, fmt.Errorf("receipt %s expected version %d: %w", receiptID, expectedVersion, storage.ErrVersionConflict)
	}
	return expectedVersion + 1, nil
}

// BulkAssign atomically replaces all assignments for the receipt's line
// items. Shares are computed per item with seed = line item ID, so they sum
// exactly to each item's amount. Entries naming unknown line items or empty
// user lists are skipped. Returns ErrVersionConflict (with no effect) when
// the expected version is stale.
func (s *SQLiteStore) BulkAssign(ctx context.Context, receiptID string, entries []storage.BulkAssignEntry, expectedVersion int64) ([]models.LineItemAssignment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := bumpVersion(ctx, tx, receiptID, expectedVersion); err != nil {
		return nil, err
	}

	amounts, err := lineItemAmounts(ctx, tx, receiptID)
	if err != nil {
		return nil, err
	}

	if err := deleteReceiptAssignments(ctx, tx, receiptID); err != nil {
		return nil, err
	}

	var created []models.LineItemAssignment
	for _, entry := range entries {
		amount, ok := amounts[entry.LineItemID]
		if !ok || len(entry.UserIDs) == 0 {
			continue
		}
		shares := ledger.ComputeShares(amount, entry.UserIDs, entry.LineItemID)
		assignments, err := insertAssignments(ctx, tx, entry.LineItemID, shares)
		if err != nil {
			return nil, err
		}
		created = append(created, assignments...)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

// ToggleAssignment flips one user's membership on a line item and recomputes
// the shares of the resulting participant set, so the sum-to-amount
// invariant holds after every toggle. Returns ErrVersionConflict (with no
// effect) when the expected version is stale, and ErrNotFound when the line
// item does not belong to the receipt.
func (s *SQLiteStore) ToggleAssignment(ctx context.Context, receiptID, lineItemID, userID string, expectedVersion int64) (*storage.ToggleResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	newVersion, err := bumpVersion(ctx, tx, receiptID, expectedVersion)
	if err != nil {
		return nil, err
	}

	var amountStr string
	err = tx.QueryRowContext(ctx,
		"SELECT amount FROM line_items WHERE id = ? AND receipt_id = ?",
		lineItemID, receiptID,
	).Scan(&amountStr)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("line item %s: %w", lineItemID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get line item: %w", err)
	}
	amount, err := parseDecimal(amountStr)
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT user_id FROM line_item_assignments WHERE line_item_id = ?", lineItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current assignments: %w", err)
	}
	var current []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		current = append(current, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}

	assigned := true
	resulting := make([]string, 0, len(current)+1)
	for _, id := range current {
		if id == userID {
			assigned = false
			continue
		}
		resulting = append(resulting, id)
	}
	if assigned {
		resulting = append(resulting, userID)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM line_item_assignments WHERE line_item_id = ?", lineItemID); err != nil {
		return nil, fmt.Errorf("failed to delete assignments: %w", err)
	}

	shares := ledger.ComputeShares(amount, resulting, lineItemID)
	assignments, err := insertAssignments(ctx, tx, lineItemID, shares)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &storage.ToggleResult{
		Assigned:    assigned,
		NewVersion:  newVersion,
		Assignments: assignments,
	}, nil
}

// AssignAllToAll assigns every line item of the receipt to every group
// member under the same version gate, replacing any existing assignments.
func (s *SQLiteStore) AssignAllToAll(ctx context.Context, receiptID string, expectedVersion int64) ([]models.LineItemAssignment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := bumpVersion(ctx, tx, receiptID, expectedVersion); err != nil {
		return nil, err
	}

	var groupID string
	err = tx.QueryRowContext(ctx, "SELECT group_id FROM receipts WHERE id = ?", receiptID).Scan(&groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt group: %w", err)
	}

	memberRows, err := tx.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY user_id", groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	var members []string
	for memberRows.Next() {
		var id string
		if err := memberRows.Scan(&id); err != nil {
			memberRows.Close()
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, id)
	}
	memberRows.Close()
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}

	amounts, err := lineItemAmounts(ctx, tx, receiptID)
	if err != nil {
		return nil, err
	}

	if err := deleteReceiptAssignments(ctx, tx, receiptID); err != nil {
		return nil, err
	}

	var created []models.LineItemAssignment
	if len(members) > 0 {
		for itemID, amount := range amounts {
			shares := ledger.ComputeShares(amount, members, itemID)
			assignments, err := insertAssignments(ctx, tx, itemID, shares)
			if err != nil {
				return nil, err
			}
			created = append(created, assignments...)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

// ListAssignmentsByReceipt retrieves all assignments across the receipt's
// line items.
func (s *SQLiteStore) ListAssignmentsByReceipt(ctx context.Context, receiptID string) ([]models.LineItemAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.line_item_id, a.user_id, a.share_amount
		 FROM line_item_assignments a
		 JOIN line_items li ON li.id = a.line_item_id
		 WHERE li.receipt_id = ?
		 ORDER BY li.sort_order, a.user_id`,
		receiptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

// loadAssignments retrieves the assignments of a single line item.
func (s *SQLiteStore) loadAssignments(ctx context.Context, lineItemID string) ([]models.LineItemAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, line_item_id, user_id, share_amount
		 FROM line_item_assignments WHERE line_item_id = ? ORDER BY user_id`,
		lineItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func scanAssignments(rows *sql.Rows) ([]models.LineItemAssignment, error) {
	var assignments []models.LineItemAssignment
	for rows.Next() {
		var a models.LineItemAssignment
		var share string
		if err := rows.Scan(&a.ID, &a.LineItemID, &a.UserID, &share); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		var err error
		if a.ShareAmount, err = parseDecimal(share); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return assignments, nil
}

// lineItemAmounts maps line item ID to amount for one receipt.
func lineItemAmounts(ctx context.Context, tx *sql.Tx, receiptID string) (map[string]decimal.Decimal, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, amount FROM line_items WHERE receipt_id = ?", receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	amounts := make(map[string]decimal.Decimal)
	for rows.Next() {
		var id, amountStr string
		if err := rows.Scan(&id, &amountStr); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		amount, err := parseDecimal(amountStr)
		if err != nil {
			return nil, err
		}
		amounts[id] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate line items: %w", err)
	}
	return amounts, nil
}

func deleteReceiptAssignments(ctx context.Context, tx *sql.Tx, receiptID string) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM line_item_assignments WHERE line_item_id IN
		 (SELECT id FROM line_items WHERE receipt_id = ?)`,
		receiptID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete assignments: %w", err)
	}
	return nil
}

// insertAssignments writes one assignment row per share, ordered by user ID
// for stable output.
func insertAssignments(ctx context.Context, tx *sql.Tx, lineItemID string, shares map[string]decimal.Decimal) ([]models.LineItemAssignment, error) {
	userIDs := make([]string, 0, len(shares))
	for id := range shares {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	assignments := make([]models.LineItemAssignment, 0, len(userIDs))
	for _, userID := range userIDs {
		a := models.LineItemAssignment{
			ID:          uuid.New().String(),
			LineItemID:  lineItemID,
			UserID:      userID,
			ShareAmount: shares[userID],
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO line_item_assignments (id, line_item_id, user_id, share_amount)
			 VALUES (?, ?, ?, ?)`,
			a.ID, a.LineItemID, a.UserID, a.ShareAmount.String(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

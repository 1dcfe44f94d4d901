package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitscan/splitscan/internal/models"
)

// CreateSettlement persists a new settlement.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	isSettled := 0
	if settlement.IsSettled {
		isSettled = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, from_user, to_user, amount, is_settled, settled_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.FromUser, settlement.ToUser,
		settlement.Amount.String(), isSettled, settlement.SettledAt, settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// ListSettlementsByGroup retrieves all settlements for a group, newest first.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, from_user, to_user, amount, is_settled, settled_at, created_at
		 FROM settlements WHERE group_id = ? ORDER BY created_at DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		var amount string
		var isSettled int
		if err := rows.Scan(&settlement.ID, &settlement.GroupID, &settlement.FromUser, &settlement.ToUser,
			&amount, &isSettled, &settlement.SettledAt, &settlement.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		if settlement.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		settlement.IsSettled = isSettled != 0
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// ClearGroupSettlements removes all settlements for a group, returning the
// number of rows deleted.
func (s *SQLiteStore) ClearGroupSettlements(ctx context.Context, groupID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM settlements WHERE group_id = ?", groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear settlements: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected, nil
}

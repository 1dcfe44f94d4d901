package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitscan/splitscan/internal/ledger"
	"github.com/splitscan/splitscan/internal/models"
	"github.com/splitscan/splitscan/internal/storage"
)

// SettlementService produces group balances and settlement plans and records
// debt clearances. Snapshots and plans are computed on demand; they are pure
// functions of the ledger state at query time and are never persisted.
type SettlementService struct {
	store storage.Store
}

// NewSettlementService creates a new SettlementService with the given
// storage backend.
func NewSettlementService(store storage.Store) *SettlementService {
	return &SettlementService{store: store}
}

func (s *SettlementService) requireMembership(ctx context.Context, userID, groupID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !isMember(userID, group.MemberIDs) {
		return ErrPermissionDenied
	}
	return nil
}

// AggregateGroupFinancials returns one net financial snapshot per user for
// the group: spent, paid, settled out/in and net balance, all in the group's
// base currency. An empty group yields an empty map.
func (s *SettlementService) AggregateGroupFinancials(ctx context.Context, userID, groupID string) (map[string]*ledger.Snapshot, error) {
	if err := s.requireMembership(ctx, userID, groupID); err != nil {
		return nil, err
	}

	snapshots, err := s.aggregate(ctx, groupID)
	if err != nil {
		slog.Error("AggregateGroupFinancials failed", "group_id", groupID, "error", err)
		return nil, err
	}
	return snapshots, nil
}

// SimplifyDebts aggregates the group and reduces the result to the minimal
// transfer list plus assigned/paid totals.
func (s *SettlementService) SimplifyDebts(ctx context.Context, userID, groupID string) (*ledger.Result, error) {
	if err := s.requireMembership(ctx, userID, groupID); err != nil {
		return nil, err
	}

	snapshots, err := s.aggregate(ctx, groupID)
	if err != nil {
		slog.Error("SimplifyDebts failed", "group_id", groupID, "error", err)
		return nil, err
	}

	if err := s.fillDisplayNames(ctx, snapshots); err != nil {
		return nil, err
	}

	result := ledger.Simplify(snapshots)
	slog.Info("Debts simplified",
		"group_id", groupID,
		"users", len(snapshots),
		"transfers", len(result.Balances),
	)
	return &result, nil
}

func (s *SettlementService) aggregate(ctx context.Context, groupID string) (map[string]*ledger.Snapshot, error) {
	assignments, err := s.store.ListAssignmentRows(ctx, groupID, 0)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListPaymentRows(ctx, groupID, 0)
	if err != nil {
		return nil, err
	}
	settlements, err := s.store.ListSettlementRows(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return ledger.Aggregate(assignments, payments, settlements), nil
}

// fillDisplayNames resolves names for users that only appear in settlements
// (those rows carry no display name).
func (s *SettlementService) fillDisplayNames(ctx context.Context, snapshots map[string]*ledger.Snapshot) error {
	var missing []string
	for userID, snapshot := range snapshots {
		if snapshot.DisplayName == "" {
			missing = append(missing, userID)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	users, err := s.store.GetUsersByIDs(ctx, missing)
	if err != nil {
		return err
	}
	for _, userID := range missing {
		if user, ok := users[userID]; ok {
			snapshots[userID].DisplayName = user.DisplayName
		}
	}
	return nil
}

// SettleDebt records a completed settlement between two group members.
// The amount is in the group's base currency.
func (s *SettlementService) SettleDebt(ctx context.Context, userID, groupID, fromUser, toUser string, amount decimal.Decimal) (*models.Settlement, error) {
	if err := s.requireMembership(ctx, userID, groupID); err != nil {
		return nil, err
	}

	settlement := &models.Settlement{
		GroupID:   groupID,
		FromUser:  fromUser,
		ToUser:    toUser,
		Amount:    amount,
		IsSettled: true,
		SettledAt: time.Now().Unix(),
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.Error("SettleDebt failed", "group_id", groupID, "error", err)
		return nil, err
	}

	slog.Info("Debt settled",
		"settlement_id", settlement.ID,
		"group_id", groupID,
		"from_user", fromUser,
		"to_user", toUser,
		"amount", amount.StringFixed(2),
	)
	return settlement, nil
}

// ListSettlements retrieves the group's settlements, newest first.
func (s *SettlementService) ListSettlements(ctx context.Context, userID, groupID string) ([]*models.Settlement, error) {
	if err := s.requireMembership(ctx, userID, groupID); err != nil {
		return nil, err
	}
	return s.store.ListSettlementsByGroup(ctx, groupID)
}

// ClearSettlements deletes all of a group's settlements, returning the
// number removed.
func (s *SettlementService) ClearSettlements(ctx context.Context, userID, groupID string) (int64, error) {
	if err := s.requireMembership(ctx, userID, groupID); err != nil {
		return 0, err
	}
	cleared, err := s.store.ClearGroupSettlements(ctx, groupID)
	if err != nil {
		slog.Error("ClearSettlements failed", "group_id", groupID, "error", err)
		return 0, err
	}
	slog.Info("Settlements cleared", "group_id", groupID, "count", cleared)
	return cleared, nil
}

package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/splitscan/splitscan/internal/ledger"
	"github.com/splitscan/splitscan/internal/storage"
)

// Period selects the lookback window for group stats.
type Period string

const (
	PeriodDay   Period = "1d"
	PeriodMonth Period = "1mo"
	PeriodYear  Period = "1yr"
)

// start returns the Unix time the period begins at.
func (p Period) start(now time.Time) int64 {
	switch p {
	case PeriodDay:
		return now.AddDate(0, 0, -1).Unix()
	case PeriodMonth:
		return now.AddDate(0, 0, -30).Unix()
	default:
		return now.AddDate(0, 0, -365).Unix()
	}
}

// UserSpending is one user's row in the stats breakdown, amounts as 2dp
// strings in the group's base currency.
type UserSpending struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Amount      string `json:"amount"`
	Paid        string `json:"paid"`
	Balance     string `json:"balance"`
}

// GroupStats is the per-period spending summary for a group.
type GroupStats struct {
	Period         Period         `json:"period"`
	TotalSpending  string         `json:"total_spending"`
	ReceiptCount   int            `json:"receipt_count"`
	SpendingByUser []UserSpending `json:"spending_by_user"`
	BaseCurrency   string         `json:"base_currency"`
}

// StatsService computes spending summaries over a lookback window.
type StatsService struct {
	store storage.Store
}

// NewStatsService creates a new StatsService with the given storage backend.
func NewStatsService(store storage.Store) *StatsService {
	return &StatsService{store: store}
}

// GetGroupStats summarizes the group's spending for the period: overall
// base-currency total, receipt count and a per-user spent/paid/balance
// breakdown sorted by amount spent descending.
func (s *StatsService) GetGroupStats(ctx context.Context, userID, groupID string, period Period) (*GroupStats, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !isMember(userID, group.MemberIDs) {
		return nil, ErrPermissionDenied
	}

	since := period.start(time.Now())

	total, count, err := s.store.GroupReceiptTotals(ctx, groupID, since)
	if err != nil {
		slog.Error("GetGroupStats failed", "group_id", groupID, "error", err)
		return nil, err
	}

	stats := &GroupStats{
		Period:         period,
		TotalSpending:  total.StringFixed(2),
		ReceiptCount:   count,
		SpendingByUser: []UserSpending{},
		BaseCurrency:   group.BaseCurrency,
	}
	if count == 0 {
		return stats, nil
	}

	assignments, err := s.store.ListAssignmentRows(ctx, groupID, since)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListPaymentRows(ctx, groupID, since)
	if err != nil {
		return nil, err
	}

	// Settlements are excluded here: stats describe spending, not debt state.
	snapshots := ledger.Aggregate(assignments, payments, nil)
	rows := make([]UserSpending, 0, len(snapshots))
	sorted := make([]*ledger.Snapshot, 0, len(snapshots))
	for _, snapshot := range snapshots {
		sorted = append(sorted, snapshot)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Spent.Equal(sorted[j].Spent) {
			return sorted[i].UserID < sorted[j].UserID
		}
		return sorted[i].Spent.GreaterThan(sorted[j].Spent)
	})
	for _, snapshot := range sorted {
		rows = append(rows, UserSpending{
			UserID:      snapshot.UserID,
			DisplayName: snapshot.DisplayName,
			Amount:      snapshot.Spent.StringFixed(2),
			Paid:        snapshot.Paid.StringFixed(2),
			Balance:     snapshot.Paid.Sub(snapshot.Spent).StringFixed(2),
		})
	}
	stats.SpendingByUser = rows

	return stats, nil
}

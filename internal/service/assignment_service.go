package service

import (
	"context"
	"log/slog"

	"github.com/splitscan/splitscan/internal/models"
	"github.com/splitscan/splitscan/internal/storage"
)

// AssignmentService mutates line-item assignments through the storage
// layer's version-guarded operations. On storage.ErrVersionConflict the
// caller refetches the receipt and retries with the fresh version; the
// service never retries on its own.
type AssignmentService struct {
	store storage.Store
}

// NewAssignmentService creates a new AssignmentService with the given
// storage backend.
func NewAssignmentService(store storage.Store) *AssignmentService {
	return &AssignmentService{store: store}
}

func (s *AssignmentService) requireMembership(ctx context.Context, userID, receiptID string) error {
	receipt, err := s.store.GetReceipt(ctx, receiptID)
	if err != nil {
		return err
	}
	group, err := s.store.GetGroup(ctx, receipt.GroupID)
	if err != nil {
		return err
	}
	if !isMember(userID, group.MemberIDs) {
		return ErrPermissionDenied
	}
	return nil
}

// BulkAssign replaces all assignments on the receipt's line items.
func (s *AssignmentService) BulkAssign(ctx context.Context, userID, receiptID string, entries []storage.BulkAssignEntry, expectedVersion int64) ([]models.LineItemAssignment, error) {
	if err := s.requireMembership(ctx, userID, receiptID); err != nil {
		return nil, err
	}

	assignments, err := s.store.BulkAssign(ctx, receiptID, entries, expectedVersion)
	if err != nil {
		slog.Warn("BulkAssign failed", "receipt_id", receiptID, "expected_version", expectedVersion, "error", err)
		return nil, err
	}

	slog.Info("Assignments replaced", "receipt_id", receiptID, "count", len(assignments))
	return assignments, nil
}

// ToggleAssignment flips one user on or off a line item and returns the
// item's recomputed assignment set.
func (s *AssignmentService) ToggleAssignment(ctx context.Context, userID, receiptID, lineItemID, targetUserID string, expectedVersion int64) (*storage.ToggleResult, error) {
	if err := s.requireMembership(ctx, userID, receiptID); err != nil {
		return nil, err
	}

	result, err := s.store.ToggleAssignment(ctx, receiptID, lineItemID, targetUserID, expectedVersion)
	if err != nil {
		slog.Warn("ToggleAssignment failed", "receipt_id", receiptID, "line_item_id", lineItemID, "error", err)
		return nil, err
	}

	slog.Info("Assignment toggled",
		"receipt_id", receiptID,
		"line_item_id", lineItemID,
		"target_user_id", targetUserID,
		"assigned", result.Assigned,
		"new_version", result.NewVersion,
	)
	return result, nil
}

// AssignAllToAll splits every line item among every group member.
func (s *AssignmentService) AssignAllToAll(ctx context.Context, userID, receiptID string, expectedVersion int64) ([]models.LineItemAssignment, error) {
	if err := s.requireMembership(ctx, userID, receiptID); err != nil {
		return nil, err
	}

	assignments, err := s.store.AssignAllToAll(ctx, receiptID, expectedVersion)
	if err != nil {
		slog.Warn("AssignAllToAll failed", "receipt_id", receiptID, "error", err)
		return nil, err
	}

	slog.Info("Assigned all items to all members", "receipt_id", receiptID, "count", len(assignments))
	return assignments, nil
}

// ListAssignments retrieves all assignments on a receipt.
func (s *AssignmentService) ListAssignments(ctx context.Context, userID, receiptID string) ([]models.LineItemAssignment, error) {
	if err := s.requireMembership(ctx, userID, receiptID); err != nil {
		return nil, err
	}
	return s.store.ListAssignmentsByReceipt(ctx, receiptID)
}

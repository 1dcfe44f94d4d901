package service

import (
	"context"
	"log/slog"

	"github.com/splitscan/splitscan/internal/currency"
	"github.com/splitscan/splitscan/internal/models"
	"github.com/splitscan/splitscan/internal/storage"
)

// ReceiptService manages receipts and their line items. All mutations to a
// receipt after creation go through the version gate in storage.
type ReceiptService struct {
	store storage.Store
	rates currency.Resolver
}

// NewReceiptService creates a new ReceiptService with the given storage
// backend and exchange-rate resolver.
func NewReceiptService(store storage.Store, rates currency.Resolver) *ReceiptService {
	return &ReceiptService{store: store, rates: rates}
}

// requireMembership loads the group and checks the user belongs to it.
func (s *ReceiptService) requireMembership(ctx context.Context, userID, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !isMember(userID, group.MemberIDs) {
		return nil, ErrPermissionDenied
	}
	return group, nil
}

// CreateReceipt creates a receipt in the group. The receipt starts at
// version 1 in status processing unless the caller supplies extracted data.
func (s *ReceiptService) CreateReceipt(ctx context.Context, userID string, receipt *models.Receipt) (*models.Receipt, error) {
	group, err := s.requireMembership(ctx, userID, receipt.GroupID)
	if err != nil {
		return nil, err
	}

	receipt.UploadedBy = userID
	if receipt.Currency == "" {
		receipt.Currency = group.BaseCurrency
	}
	if err := s.resolveRate(ctx, receipt, group.BaseCurrency); err != nil {
		return nil, err
	}
	if err := s.store.CreateReceipt(ctx, receipt); err != nil {
		slog.Error("CreateReceipt failed", "group_id", receipt.GroupID, "error", err)
		return nil, err
	}

	slog.Info("Receipt created", "receipt_id", receipt.ID, "group_id", receipt.GroupID)
	return receipt, nil
}

// resolveRate fills the exchange rate to base currency when the caller did
// not supply one. A client-supplied rate always wins so historical receipts
// keep the rate in effect when they were entered.
func (s *ReceiptService) resolveRate(ctx context.Context, receipt *models.Receipt, baseCurrency string) error {
	if !receipt.ExchangeRate.IsZero() {
		return nil
	}
	if receipt.Currency == "" || baseCurrency == "" || receipt.Currency == baseCurrency {
		return nil
	}

	rate, err := s.rates.Rate(ctx, receipt.Currency, baseCurrency)
	if err != nil {
		slog.Warn("Exchange rate lookup failed, storing receipt unconverted",
			"currency", receipt.Currency,
			"base_currency", baseCurrency,
			"error", err,
		)
		return nil
	}
	receipt.ExchangeRate = rate
	return nil
}

// GetReceipt retrieves a receipt with line items and assignments.
func (s *ReceiptService) GetReceipt(ctx context.Context, userID, receiptID string) (*models.Receipt, error) {
	receipt, err := s.store.GetReceipt(ctx, receiptID)
	if err != nil {
		slog.Warn("GetReceipt failed", "receipt_id", receiptID, "error", err)
		return nil, err
	}
	if _, err := s.requireMembership(ctx, userID, receipt.GroupID); err != nil {
		return nil, err
	}
	return receipt, nil
}

// ListReceipts retrieves the group's receipts, newest first.
func (s *ReceiptService) ListReceipts(ctx context.Context, userID, groupID string) ([]*models.Receipt, error) {
	if _, err := s.requireMembership(ctx, userID, groupID); err != nil {
		return nil, err
	}
	receipts, err := s.store.ListReceiptsByGroup(ctx, groupID)
	if err != nil {
		slog.Error("ListReceipts failed", "group_id", groupID, "error", err)
		return nil, err
	}
	return receipts, nil
}

// UpdateReceipt applies edits to a receipt under the version gate.
// Returns the updated receipt, or storage.ErrVersionConflict when the
// caller's version is stale (in which case nothing changed).
func (s *ReceiptService) UpdateReceipt(ctx context.Context, userID string, receipt *models.Receipt, expectedVersion int64) (*models.Receipt, error) {
	existing, err := s.store.GetReceipt(ctx, receipt.ID)
	if err != nil {
		return nil, err
	}
	group, err := s.requireMembership(ctx, userID, existing.GroupID)
	if err != nil {
		return nil, err
	}
	if receipt.Currency == "" {
		receipt.Currency = existing.Currency
	}
	if err := s.resolveRate(ctx, receipt, group.BaseCurrency); err != nil {
		return nil, err
	}

	newVersion, err := s.store.UpdateReceipt(ctx, receipt, expectedVersion)
	if err != nil {
		slog.Warn("UpdateReceipt failed", "receipt_id", receipt.ID, "expected_version", expectedVersion, "error", err)
		return nil, err
	}

	slog.Info("Receipt updated", "receipt_id", receipt.ID, "new_version", newVersion)
	return s.store.GetReceipt(ctx, receipt.ID)
}

// DeleteReceipt removes a receipt along with its items, assignments and
// payments.
func (s *ReceiptService) DeleteReceipt(ctx context.Context, userID, receiptID string) error {
	receipt, err := s.store.GetReceipt(ctx, receiptID)
	if err != nil {
		return err
	}
	if _, err := s.requireMembership(ctx, userID, receipt.GroupID); err != nil {
		return err
	}
	if err := s.store.DeleteReceipt(ctx, receiptID); err != nil {
		slog.Error("DeleteReceipt failed", "receipt_id", receiptID, "error", err)
		return err
	}
	slog.Info("Receipt deleted", "receipt_id", receiptID)
	return nil
}

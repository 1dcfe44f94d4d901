package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/splitscan/splitscan/internal/models"
	"github.com/splitscan/splitscan/internal/storage"
)

// PaymentService records who paid toward receipts. The sum of a receipt's
// payments may never exceed its total.
type PaymentService struct {
	store storage.Store
}

// NewPaymentService creates a new PaymentService with the given storage
// backend.
func NewPaymentService(store storage.Store) *PaymentService {
	return &PaymentService{store: store}
}

// checkRemaining validates that adding amount (excluding one payment when
// updating) stays within the receipt total.
func (s *PaymentService) checkRemaining(ctx context.Context, receiptID, excludePaymentID string, amount decimal.Decimal) error {
	receipt, err := s.store.GetReceipt(ctx, receiptID)
	if err != nil {
		return err
	}
	paid, err := s.store.SumPaymentsByReceipt(ctx, receiptID, excludePaymentID)
	if err != nil {
		return err
	}
	if paid.Add(amount).GreaterThan(receipt.Total) {
		slog.Warn("Payment rejected: exceeds receipt total",
			"receipt_id", receiptID,
			"amount", amount.StringFixed(2),
			"remaining", receipt.Total.Sub(paid).StringFixed(2),
		)
		return ErrPaymentExceedsTotal
	}
	return nil
}

// RecordPayment records a payment against a receipt.
func (s *PaymentService) RecordPayment(ctx context.Context, receiptID, paidBy string, amount decimal.Decimal) (*models.Payment, error) {
	if err := s.checkRemaining(ctx, receiptID, "", amount); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ReceiptID: receiptID,
		PaidBy:    paidBy,
		Amount:    amount,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		slog.Error("RecordPayment failed", "receipt_id", receiptID, "error", err)
		return nil, err
	}

	slog.Info("Payment recorded", "payment_id", payment.ID, "receipt_id", receiptID, "amount", amount.StringFixed(2))
	return payment, nil
}

// UpdatePayment changes a payment's payer and amount, revalidating against
// the receipt total with the old amount excluded.
func (s *PaymentService) UpdatePayment(ctx context.Context, paymentID, paidBy string, amount decimal.Decimal) (*models.Payment, error) {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRemaining(ctx, payment.ReceiptID, paymentID, amount); err != nil {
		return nil, err
	}

	payment.PaidBy = paidBy
	payment.Amount = amount
	if err := s.store.UpdatePayment(ctx, payment); err != nil {
		slog.Error("UpdatePayment failed", "payment_id", paymentID, "error", err)
		return nil, err
	}

	slog.Info("Payment updated", "payment_id", paymentID, "amount", amount.StringFixed(2))
	return payment, nil
}

// DeletePayment removes a payment.
func (s *PaymentService) DeletePayment(ctx context.Context, paymentID string) error {
	if err := s.store.DeletePayment(ctx, paymentID); err != nil {
		slog.Warn("DeletePayment failed", "payment_id", paymentID, "error", err)
		return err
	}
	slog.Info("Payment deleted", "payment_id", paymentID)
	return nil
}

// ListPayments retrieves a receipt's payments, oldest first.
func (s *PaymentService) ListPayments(ctx context.Context, receiptID string) ([]*models.Payment, error) {
	return s.store.ListPaymentsByReceipt(ctx, receiptID)
}

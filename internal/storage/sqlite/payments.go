package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitscan/splitscan/internal/models"
	"github.com/splitscan/splitscan/internal/storage"
)

// CreatePayment persists a new payment.
func (s *SQLiteStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.CreatedAt == 0 {
		payment.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO payments (id, receipt_id, paid_by, amount, created_at) VALUES (?, ?, ?, ?, ?)",
		payment.ID, payment.ReceiptID, payment.PaidBy, payment.Amount.String(), payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// GetPayment retrieves a payment by ID.
func (s *SQLiteStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment := &models.Payment{}
	var amount string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, receipt_id, paid_by, amount, created_at FROM payments WHERE id = ?",
		paymentID,
	).Scan(&payment.ID, &payment.ReceiptID, &payment.PaidBy, &amount, &payment.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	return payment, nil
}

// ListPaymentsByReceipt retrieves a receipt's payments, oldest first.
func (s *SQLiteStore) ListPaymentsByReceipt(ctx context.Context, receiptID string) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, receipt_id, paid_by, amount, created_at FROM payments WHERE receipt_id = ? ORDER BY created_at",
		receiptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment := &models.Payment{}
		var amount string
		if err := rows.Scan(&payment.ID, &payment.ReceiptID, &payment.PaidBy, &amount, &payment.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		if payment.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

// UpdatePayment updates a payment's payer and amount.
func (s *SQLiteStore) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE payments SET paid_by = ?, amount = ? WHERE id = ?",
		payment.PaidBy, payment.Amount.String(), payment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("payment %s: %w", payment.ID, storage.ErrNotFound)
	}
	return nil
}

// DeletePayment removes a payment by ID.
func (s *SQLiteStore) DeletePayment(ctx context.Context, paymentID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM payments WHERE id = ?", paymentID)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	return nil
}

// SumPaymentsByReceipt totals a receipt's payments, optionally excluding one
// payment. Summation happens in Go so the decimal strings never round-trip
// through SQLite arithmetic.
func (s *SQLiteStore) SumPaymentsByReceipt(ctx context.Context, receiptID, excludePaymentID string) (decimal.Decimal, error) {
	query := "SELECT amount FROM payments WHERE receipt_id = ?"
	args := []any{receiptID}
	if excludePaymentID != "" {
		query += " AND id != ?"
		args = append(args, excludePaymentID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payments: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan payment amount: %w", err)
		}
		amount, err := parseDecimal(amountStr)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return total, nil
}

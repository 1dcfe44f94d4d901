package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitscan/splitscan/internal/models"
	"github.com/splitscan/splitscan/internal/storage"
)

const receiptColumns = `id, group_id, uploaded_by, image_url, merchant_name, receipt_date,
	currency, exchange_rate, subtotal, tax, service_charge, total, status, version, created_at`

// CreateReceipt persists a new receipt and its line items in one transaction.
// The version always starts at 1.
func (s *SQLiteStore) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.New().String()
	}
	if receipt.CreatedAt == 0 {
		receipt.CreatedAt = time.Now().Unix()
	}
	if receipt.Status == "" {
		receipt.Status = models.StatusProcessing
	}
	if receipt.ExchangeRate.IsZero() {
		receipt.ExchangeRate = decimalOne
	}
	receipt.Version = 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO receipts (`+receiptColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.ID, receipt.GroupID, receipt.UploadedBy, receipt.ImageURL,
		receipt.MerchantName, receipt.ReceiptDate, receipt.Currency,
		receipt.ExchangeRate.String(), receipt.Subtotal.String(), receipt.Tax.String(),
		receipt.ServiceCharge.String(), receipt.Total.String(),
		string(receipt.Status), receipt.Version, receipt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	if err := insertLineItems(ctx, tx, receipt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetReceipt retrieves a receipt with its line items and their assignments.
func (s *SQLiteStore) GetReceipt(ctx context.Context, receiptID string) (*models.Receipt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+receiptColumns+` FROM receipts WHERE id = ?`, receiptID)
	receipt, err := scanReceipt(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("receipt %s: %w", receiptID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	items, err := s.loadLineItems(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	receipt.LineItems = items
	return receipt, nil
}

// ListReceiptsByGroup retrieves the group's receipts, newest first.
// Line items are not loaded; use GetReceipt for the full picture.
func (s *SQLiteStore) ListReceiptsByGroup(ctx context.Context, groupID string) ([]*models.Receipt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+receiptColumns+` FROM receipts WHERE group_id = ? ORDER BY created_at DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*models.Receipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}
	return receipts, nil
}

// UpdateReceipt applies the receipt's mutable fields under the version gate
// and, when line items are provided, replaces them wholesale (their
// assignments cascade away). Returns the new version, or ErrVersionConflict
// without any effect when the expected version is stale.
func (s *SQLiteStore) UpdateReceipt(ctx context.Context, receipt *models.Receipt, expectedVersion int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	newVersion, err := bumpVersion(ctx, tx, receipt.ID, expectedVersion)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE receipts SET merchant_name = ?, receipt_date = ?, currency = ?,
		 exchange_rate = ?, subtotal = ?, tax = ?, service_charge = ?, total = ?, status = ?
		 WHERE id = ?`,
		receipt.MerchantName, receipt.ReceiptDate, receipt.Currency,
		receipt.ExchangeRate.String(), receipt.Subtotal.String(), receipt.Tax.String(),
		receipt.ServiceCharge.String(), receipt.Total.String(), string(receipt.Status),
		receipt.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update receipt: %w", err)
	}

	if receipt.LineItems != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM line_items WHERE receipt_id = ?", receipt.ID); err != nil {
			return 0, fmt.Errorf("failed to delete line items: %w", err)
		}
		if err := insertLineItems(ctx, tx, receipt); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	receipt.Version = newVersion
	return newVersion, nil
}

// DeleteReceipt removes a receipt; line items, assignments and payments
// cascade.
func (s *SQLiteStore) DeleteReceipt(ctx context.Context, receiptID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM receipts WHERE id = ?", receiptID)
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("receipt %s: %w", receiptID, storage.ErrNotFound)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row scanner) (*models.Receipt, error) {
	receipt := &models.Receipt{}
	var uploadedBy sql.NullString
	var status, rate, subtotal, tax, serviceCharge, total string
	err := row.Scan(
		&receipt.ID, &receipt.GroupID, &uploadedBy, &receipt.ImageURL,
		&receipt.MerchantName, &receipt.ReceiptDate, &receipt.Currency,
		&rate, &subtotal, &tax, &serviceCharge, &total,
		&status, &receipt.Version, &receipt.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan receipt: %w", err)
	}
	receipt.UploadedBy = uploadedBy.String
	receipt.Status = models.ReceiptStatus(status)
	if receipt.ExchangeRate, err = parseDecimal(rate); err != nil {
		return nil, err
	}
	if receipt.Subtotal, err = parseDecimal(subtotal); err != nil {
		return nil, err
	}
	if receipt.Tax, err = parseDecimal(tax); err != nil {
		return nil, err
	}
	if receipt.ServiceCharge, err = parseDecimal(serviceCharge); err != nil {
		return nil, err
	}
	if receipt.Total, err = parseDecimal(total); err != nil {
		return nil, err
	}
	return receipt, nil
}

func insertLineItems(ctx context.Context, tx *sql.Tx, receipt *models.Receipt) error {
	for i := range receipt.LineItems {
		item := &receipt.LineItems[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.ReceiptID = receipt.ID
		if item.SortOrder == 0 {
			item.SortOrder = i
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO line_items (id, receipt_id, description, quantity, unit_price, amount, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.ReceiptID, item.Description,
			item.Quantity.String(), item.UnitPrice.String(), item.Amount.String(),
			item.SortOrder,
		)
		if err != nil {
			return fmt.Errorf("failed to insert line item: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) loadLineItems(ctx context.Context, receiptID string) ([]models.LineItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, receipt_id, description, quantity, unit_price, amount, sort_order
		 FROM line_items WHERE receipt_id = ? ORDER BY sort_order, id`,
		receiptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var item models.LineItem
		var quantity, unitPrice, amount string
		if err := rows.Scan(&item.ID, &item.ReceiptID, &item.Description, &quantity, &unitPrice, &amount, &item.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		if item.Quantity, err = parseDecimal(quantity); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = parseDecimal(unitPrice); err != nil {
			return nil, err
		}
		if item.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate line items: %w", err)
	}

	for i := range items {
		assignments, err := s.loadAssignments(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Assignments = assignments
	}
	return items, nil
}

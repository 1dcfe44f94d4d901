package server

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/splitscan/splitscan/internal/ledger"
	"github.com/splitscan/splitscan/internal/models"
)

// Monetary amounts cross the wire as decimal strings: two fractional digits
// for money, six for exchange rates. Floats never touch the ledger.

// parseMoney parses a client-supplied amount string. Empty means zero.
func parseMoney(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", field, value)
	}
	return d, nil
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}
}

type groupResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	BaseCurrency string   `json:"base_currency"`
	CreatedBy    string   `json:"created_by"`
	MemberIDs    []string `json:"member_ids"`
	CreatedAt    int64    `json:"created_at"`
}

func toGroupResponse(group *models.Group) groupResponse {
	return groupResponse{
		ID:           group.ID,
		Name:         group.Name,
		BaseCurrency: group.BaseCurrency,
		CreatedBy:    group.CreatedBy,
		MemberIDs:    group.MemberIDs,
		CreatedAt:    group.CreatedAt,
	}
}

type assignmentResponse struct {
	ID          string `json:"id"`
	LineItemID  string `json:"line_item_id"`
	UserID      string `json:"user_id"`
	ShareAmount string `json:"share_amount"`
}

func toAssignmentResponse(a models.LineItemAssignment) assignmentResponse {
	return assignmentResponse{
		ID:          a.ID,
		LineItemID:  a.LineItemID,
		UserID:      a.UserID,
		ShareAmount: a.ShareAmount.StringFixed(2),
	}
}

func toAssignmentResponses(assignments []models.LineItemAssignment) []assignmentResponse {
	out := make([]assignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentResponse(a))
	}
	return out
}

type lineItemResponse struct {
	ID          string               `json:"id"`
	Description string               `json:"description"`
	Quantity    string               `json:"quantity"`
	UnitPrice   string               `json:"unit_price"`
	Amount      string               `json:"amount"`
	SortOrder   int                  `json:"sort_order"`
	Assignments []assignmentResponse `json:"assignments"`
}

type receiptResponse struct {
	ID            string             `json:"id"`
	GroupID       string             `json:"group_id"`
	UploadedBy    string             `json:"uploaded_by"`
	ImageURL      string             `json:"image_url,omitempty"`
	MerchantName  string             `json:"merchant_name"`
	ReceiptDate   string             `json:"receipt_date"`
	Currency      string             `json:"currency"`
	ExchangeRate  string             `json:"exchange_rate"`
	Subtotal      string             `json:"subtotal"`
	Tax           string             `json:"tax"`
	ServiceCharge string             `json:"service_charge"`
	Total         string             `json:"total"`
	Status        string             `json:"status"`
	Version       int64              `json:"version"`
	CreatedAt     int64              `json:"created_at"`
	LineItems     []lineItemResponse `json:"line_items"`
}

func toReceiptResponse(receipt *models.Receipt) receiptResponse {
	items := make([]lineItemResponse, 0, len(receipt.LineItems))
	for _, item := range receipt.LineItems {
		items = append(items, lineItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Amount:      item.Amount.StringFixed(2),
			SortOrder:   item.SortOrder,
			Assignments: toAssignmentResponses(item.Assignments),
		})
	}
	return receiptResponse{
		ID:            receipt.ID,
		GroupID:       receipt.GroupID,
		UploadedBy:    receipt.UploadedBy,
		ImageURL:      receipt.ImageURL,
		MerchantName:  receipt.MerchantName,
		ReceiptDate:   receipt.ReceiptDate,
		Currency:      receipt.Currency,
		ExchangeRate:  receipt.ExchangeRate.StringFixed(6),
		Subtotal:      receipt.Subtotal.StringFixed(2),
		Tax:           receipt.Tax.StringFixed(2),
		ServiceCharge: receipt.ServiceCharge.StringFixed(2),
		Total:         receipt.Total.StringFixed(2),
		Status:        string(receipt.Status),
		Version:       receipt.Version,
		CreatedAt:     receipt.CreatedAt,
		LineItems:     items,
	}
}

type paymentResponse struct {
	ID        string `json:"id"`
	ReceiptID string `json:"receipt_id"`
	PaidBy    string `json:"paid_by"`
	Amount    string `json:"amount"`
	CreatedAt int64  `json:"created_at"`
}

func toPaymentResponse(payment *models.Payment) paymentResponse {
	return paymentResponse{
		ID:        payment.ID,
		ReceiptID: payment.ReceiptID,
		PaidBy:    payment.PaidBy,
		Amount:    payment.Amount.StringFixed(2),
		CreatedAt: payment.CreatedAt,
	}
}

type settlementResponse struct {
	ID        string `json:"id"`
	GroupID   string `json:"group_id"`
	FromUser  string `json:"from_user"`
	ToUser    string `json:"to_user"`
	Amount    string `json:"amount"`
	IsSettled bool   `json:"is_settled"`
	SettledAt int64  `json:"settled_at"`
	CreatedAt int64  `json:"created_at"`
}

func toSettlementResponse(settlement *models.Settlement) settlementResponse {
	return settlementResponse{
		ID:        settlement.ID,
		GroupID:   settlement.GroupID,
		FromUser:  settlement.FromUser,
		ToUser:    settlement.ToUser,
		Amount:    settlement.Amount.StringFixed(2),
		IsSettled: settlement.IsSettled,
		SettledAt: settlement.SettledAt,
		CreatedAt: settlement.CreatedAt,
	}
}

type snapshotResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Spent       string `json:"spent"`
	Paid        string `json:"paid"`
	SettledOut  string `json:"settled_out"`
	SettledIn   string `json:"settled_in"`
	NetBalance  string `json:"net_balance"`
}

func toSnapshotResponse(s *ledger.Snapshot) snapshotResponse {
	return snapshotResponse{
		UserID:      s.UserID,
		DisplayName: s.DisplayName,
		Spent:       s.Spent.StringFixed(2),
		Paid:        s.Paid.StringFixed(2),
		SettledOut:  s.SettledOut.StringFixed(2),
		SettledIn:   s.SettledIn.StringFixed(2),
		NetBalance:  s.NetBalance.StringFixed(2),
	}
}

type transferResponse struct {
	FromUserID   string `json:"from_user_id"`
	FromUserName string `json:"from_user_name"`
	ToUserID     string `json:"to_user_id"`
	ToUserName   string `json:"to_user_name"`
	Amount       string `json:"amount"`
}

type balancesResponse struct {
	Balances      []transferResponse `json:"balances"`
	TotalAssigned string             `json:"total_assigned"`
	TotalPaid     string             `json:"total_paid"`
}

func toBalancesResponse(result *ledger.Result) balancesResponse {
	transfers := make([]transferResponse, 0, len(result.Balances))
	for _, t := range result.Balances {
		transfers = append(transfers, transferResponse{
			FromUserID:   t.FromUserID,
			FromUserName: t.FromUserName,
			ToUserID:     t.ToUserID,
			ToUserName:   t.ToUserName,
			Amount:       t.Amount.StringFixed(2),
		})
	}
	return balancesResponse{
		Balances:      transfers,
		TotalAssigned: result.TotalAssigned.StringFixed(2),
		TotalPaid:     result.TotalPaid.StringFixed(2),
	}
}

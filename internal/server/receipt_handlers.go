package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/splitscan/splitscan/internal/middleware"
	"github.com/splitscan/splitscan/internal/models"
)

type lineItemRequest struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Amount      string `json:"amount" binding:"required"`
	SortOrder   int    `json:"sort_order"`
}

type createReceiptRequest struct {
	ImageURL      string            `json:"image_url"`
	MerchantName  string            `json:"merchant_name"`
	ReceiptDate   string            `json:"receipt_date"`
	Currency      string            `json:"currency"`
	ExchangeRate  string            `json:"exchange_rate"`
	Subtotal      string            `json:"subtotal"`
	Tax           string            `json:"tax"`
	ServiceCharge string            `json:"service_charge"`
	Total         string            `json:"total"`
	Status        string            `json:"status"`
	LineItems     []lineItemRequest `json:"line_items"`
}

type updateReceiptRequest struct {
	createReceiptRequest
	ExpectedVersion int64 `json:"expected_version" binding:"required"`
}

// toReceipt converts the request body into a model, parsing every monetary
// string. Line items are rebuilt wholesale on update.
func (r *createReceiptRequest) toReceipt() (*models.Receipt, error) {
	receipt := &models.Receipt{
		ImageURL:     r.ImageURL,
		MerchantName: r.MerchantName,
		ReceiptDate:  r.ReceiptDate,
		Currency:     r.Currency,
		Status:       models.ReceiptStatus(r.Status),
	}
	if receipt.Status == "" {
		receipt.Status = models.StatusProcessing
	}

	var err error
	for _, field := range []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"exchange_rate", r.ExchangeRate, &receipt.ExchangeRate},
		{"subtotal", r.Subtotal, &receipt.Subtotal},
		{"tax", r.Tax, &receipt.Tax},
		{"service_charge", r.ServiceCharge, &receipt.ServiceCharge},
		{"total", r.Total, &receipt.Total},
	} {
		if *field.dst, err = parseMoney(field.name, field.value); err != nil {
			return nil, err
		}
	}

	for _, item := range r.LineItems {
		lineItem := models.LineItem{
			ID:          item.ID,
			Description: item.Description,
			SortOrder:   item.SortOrder,
		}
		if lineItem.Quantity, err = parseMoney("quantity", item.Quantity); err != nil {
			return nil, err
		}
		if lineItem.UnitPrice, err = parseMoney("unit_price", item.UnitPrice); err != nil {
			return nil, err
		}
		if lineItem.Amount, err = parseMoney("amount", item.Amount); err != nil {
			return nil, err
		}
		receipt.LineItems = append(receipt.LineItems, lineItem)
	}
	return receipt, nil
}

func (s *Server) handleCreateReceipt(c *gin.Context) {
	var req createReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	receipt, err := req.toReceipt()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	receipt.GroupID = c.Param("groupID")

	created, err := s.receipts.CreateReceipt(c.Request.Context(), middleware.GetUserID(c), receipt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReceiptResponse(created))
}

func (s *Server) handleListReceipts(c *gin.Context) {
	receipts, err := s.receipts.ListReceipts(c.Request.Context(), middleware.GetUserID(c), c.Param("groupID"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]receiptResponse, 0, len(receipts))
	for _, receipt := range receipts {
		out = append(out, toReceiptResponse(receipt))
	}
	c.JSON(http.StatusOK, gin.H{"receipts": out})
}

func (s *Server) handleGetReceipt(c *gin.Context) {
	receipt, err := s.receipts.GetReceipt(c.Request.Context(), middleware.GetUserID(c), c.Param("receiptID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReceiptResponse(receipt))
}

func (s *Server) handleUpdateReceipt(c *gin.Context) {
	var req updateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	receipt, err := req.toReceipt()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	receipt.ID = c.Param("receiptID")

	updated, err := s.receipts.UpdateReceipt(c.Request.Context(), middleware.GetUserID(c), receipt, req.ExpectedVersion)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReceiptResponse(updated))
}

func (s *Server) handleDeleteReceipt(c *gin.Context) {
	if err := s.receipts.DeleteReceipt(c.Request.Context(), middleware.GetUserID(c), c.Param("receiptID")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

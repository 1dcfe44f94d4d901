package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splitscan/splitscan/internal/middleware"
)

type paymentRequest struct {
	PaidBy string `json:"paid_by"`
	Amount string `json:"amount" binding:"required"`
}

func (s *Server) handleRecordPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if !amount.IsPositive() {
		badRequest(c, "amount must be positive")
		return
	}

	paidBy := req.PaidBy
	if paidBy == "" {
		paidBy = middleware.GetUserID(c)
	}

	payment, err := s.payments.RecordPayment(c.Request.Context(), c.Param("receiptID"), paidBy, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentResponse(payment))
}

func (s *Server) handleListPayments(c *gin.Context) {
	payments, err := s.payments.ListPayments(c.Request.Context(), c.Param("receiptID"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, payment := range payments {
		out = append(out, toPaymentResponse(payment))
	}
	c.JSON(http.StatusOK, gin.H{"payments": out})
}

func (s *Server) handleUpdatePayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if !amount.IsPositive() {
		badRequest(c, "amount must be positive")
		return
	}

	paidBy := req.PaidBy
	if paidBy == "" {
		paidBy = middleware.GetUserID(c)
	}

	payment, err := s.payments.UpdatePayment(c.Request.Context(), c.Param("paymentID"), paidBy, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

func (s *Server) handleDeletePayment(c *gin.Context) {
	if err := s.payments.DeletePayment(c.Request.Context(), c.Param("paymentID")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

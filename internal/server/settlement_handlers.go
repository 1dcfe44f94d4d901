package server

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/splitscan/splitscan/internal/middleware"
	"github.com/splitscan/splitscan/internal/service"
)

type settleDebtRequest struct {
	FromUser string `json:"from_user" binding:"required"`
	ToUser   string `json:"to_user" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

func (s *Server) handleGroupFinancials(c *gin.Context) {
	snapshots, err := s.settlements.AggregateGroupFinancials(c.Request.Context(), middleware.GetUserID(c), c.Param("groupID"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]snapshotResponse, 0, len(snapshots))
	for _, snapshot := range snapshots {
		out = append(out, toSnapshotResponse(snapshot))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func (s *Server) handleGroupBalances(c *gin.Context) {
	result, err := s.settlements.SimplifyDebts(c.Request.Context(), middleware.GetUserID(c), c.Param("groupID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBalancesResponse(result))
}

func (s *Server) handleSettleDebt(c *gin.Context) {
	var req settleDebtRequest
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

	settlement, err := s.settlements.SettleDebt(c.Request.Context(), middleware.GetUserID(c), c.Param("groupID"), req.FromUser, req.ToUser, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSettlementResponse(settlement))
}

func (s *Server) handleListSettlements(c *gin.Context) {
	settlements, err := s.settlements.ListSettlements(c.Request.Context(), middleware.GetUserID(c), c.Param("groupID"))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]settlementResponse, 0, len(settlements))
	for _, settlement := range settlements {
		out = append(out, toSettlementResponse(settlement))
	}
	c.JSON(http.StatusOK, gin.H{"settlements": out})
}

func (s *Server) handleClearSettlements(c *gin.Context) {
	cleared, err := s.settlements.ClearSettlements(c.Request.Context(), middleware.GetUserID(c), c.Param("groupID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": cleared})
}

func (s *Server) handleGroupStats(c *gin.Context) {
	period := service.Period(c.DefaultQuery("period", string(service.PeriodMonth)))
	switch period {
	case service.PeriodDay, service.PeriodMonth, service.PeriodYear:
	default:
		badRequest(c, "period must be one of 1d, 1mo, 1yr")
		return
	}

	stats, err := s.stats.GetGroupStats(c.Request.Context(), middleware.GetUserID(c), c.Param("groupID"), period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

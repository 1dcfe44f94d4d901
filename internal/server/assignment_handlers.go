package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splitscan/splitscan/internal/middleware"
	"github.com/splitscan/splitscan/internal/storage"
)

type bulkAssignRequest struct {
	ExpectedVersion int64 `json:"expected_version" binding:"required"`
	Assignments     []struct {
		LineItemID string   `json:"line_item_id" binding:"required"`
		UserIDs    []string `json:"user_ids"`
	} `json:"assignments" binding:"required"`
}

type toggleAssignmentRequest struct {
	LineItemID      string `json:"line_item_id" binding:"required"`
	UserID          string `json:"user_id" binding:"required"`
	ExpectedVersion int64  `json:"expected_version" binding:"required"`
}

type assignAllRequest struct {
	ExpectedVersion int64 `json:"expected_version" binding:"required"`
}

func (s *Server) handleBulkAssign(c *gin.Context) {
	var req bulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	entries := make([]storage.BulkAssignEntry, 0, len(req.Assignments))
	for _, a := range req.Assignments {
		entries = append(entries, storage.BulkAssignEntry{
			LineItemID: a.LineItemID,
			UserIDs:    a.UserIDs,
		})
	}

	assignments, err := s.assignments.BulkAssign(c.Request.Context(), middleware.GetUserID(c), c.Param("receiptID"), entries, req.ExpectedVersion)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"assignments": toAssignmentResponses(assignments),
		"version":     req.ExpectedVersion + 1,
	})
}

func (s *Server) handleToggleAssignment(c *gin.Context) {
	var req toggleAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := s.assignments.ToggleAssignment(c.Request.Context(), middleware.GetUserID(c), c.Param("receiptID"), req.LineItemID, req.UserID, req.ExpectedVersion)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"assigned":    result.Assigned,
		"version":     result.NewVersion,
		"assignments": toAssignmentResponses(result.Assignments),
	})
}

func (s *Server) handleAssignAllToAll(c *gin.Context) {
	var req assignAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	assignments, err := s.assignments.AssignAllToAll(c.Request.Context(), middleware.GetUserID(c), c.Param("receiptID"), req.ExpectedVersion)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"assignments": toAssignmentResponses(assignments),
		"version":     req.ExpectedVersion + 1,
	})
}

func (s *Server) handleListAssignments(c *gin.Context) {
	assignments, err := s.assignments.ListAssignments(c.Request.Context(), middleware.GetUserID(c), c.Param("receiptID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": toAssignmentResponses(assignments)})
}

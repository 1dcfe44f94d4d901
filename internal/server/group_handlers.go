package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splitscan/splitscan/internal/middleware"
	"github.com/splitscan/splitscan/internal/models"
)

type createGroupRequest struct {
	Name         string   `json:"name" binding:"required"`
	BaseCurrency string   `json:"base_currency"`
	MemberIDs    []string `json:"member_ids"`
}

type updateGroupRequest struct {
	Name         string   `json:"name"`
	BaseCurrency string   `json:"base_currency"`
	MemberIDs    []string `json:"member_ids"`
}

type addMembersRequest struct {
	MemberIDs []string `json:"member_ids" binding:"required"`
}

func (s *Server) handleCreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	group, err := s.groups.CreateGroup(c.Request.Context(), middleware.GetUserID(c), req.Name, req.BaseCurrency, req.MemberIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toGroupResponse(group))
}

func (s *Server) handleListGroups(c *gin.Context) {
	groups, err := s.groups.ListGroups(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]groupResponse, 0, len(groups))
	for _, group := range groups {
		out = append(out, toGroupResponse(group))
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}

func (s *Server) handleGetGroup(c *gin.Context) {
	group, err := s.groups.GetGroup(c.Request.Context(), middleware.GetUserID(c), c.Param("groupID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGroupResponse(group))
}

func (s *Server) handleUpdateGroup(c *gin.Context) {
	var req updateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	group := &models.Group{
		ID:           c.Param("groupID"),
		Name:         req.Name,
		BaseCurrency: req.BaseCurrency,
		MemberIDs:    req.MemberIDs,
	}
	updated, err := s.groups.UpdateGroup(c.Request.Context(), middleware.GetUserID(c), group)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGroupResponse(updated))
}

func (s *Server) handleDeleteGroup(c *gin.Context) {
	if err := s.groups.DeleteGroup(c.Request.Context(), middleware.GetUserID(c), c.Param("groupID")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAddMembers(c *gin.Context) {
	var req addMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	group, err := s.groups.AddMembers(c.Request.Context(), middleware.GetUserID(c), c.Param("groupID"), req.MemberIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGroupResponse(group))
}

// Package server wires the application services into a gin JSON API.
package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splitscan/splitscan/internal/auth"
	"github.com/splitscan/splitscan/internal/middleware"
	"github.com/splitscan/splitscan/internal/service"
)

// Server holds the services the handlers dispatch to.
type Server struct {
	auths       *service.AuthService
	groups      *service.GroupService
	receipts    *service.ReceiptService
	assignments *service.AssignmentService
	payments    *service.PaymentService
	settlements *service.SettlementService
	stats       *service.StatsService
	jwtManager  *auth.JWTManager
	staticDir   string
}

// New creates a Server over the given services.
func New(
	auths *service.AuthService,
	groups *service.GroupService,
	receipts *service.ReceiptService,
	assignments *service.AssignmentService,
	payments *service.PaymentService,
	settlements *service.SettlementService,
	stats *service.StatsService,
	jwtManager *auth.JWTManager,
	staticDir string,
) *Server {
	return &Server{
		auths:       auths,
		groups:      groups,
		receipts:    receipts,
		assignments: assignments,
		payments:    payments,
		settlements: settlements,
		stats:       stats,
		jwtManager:  jwtManager,
		staticDir:   staticDir,
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", s.handleRegister)
		authRoutes.POST("/login", s.handleLogin)
	}

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(s.jwtManager))
	{
		authed.POST("/groups", s.handleCreateGroup)
		authed.GET("/groups", s.handleListGroups)
		authed.GET("/groups/:groupID", s.handleGetGroup)
		authed.PATCH("/groups/:groupID", s.handleUpdateGroup)
		authed.DELETE("/groups/:groupID", s.handleDeleteGroup)
		authed.POST("/groups/:groupID/members", s.handleAddMembers)

		authed.POST("/groups/:groupID/receipts", s.handleCreateReceipt)
		authed.GET("/groups/:groupID/receipts", s.handleListReceipts)
		authed.GET("/receipts/:receiptID", s.handleGetReceipt)
		authed.PATCH("/receipts/:receiptID", s.handleUpdateReceipt)
		authed.DELETE("/receipts/:receiptID", s.handleDeleteReceipt)

		authed.PUT("/receipts/:receiptID/assignments", s.handleBulkAssign)
		authed.POST("/receipts/:receiptID/assignments/toggle", s.handleToggleAssignment)
		authed.POST("/receipts/:receiptID/assignments/all", s.handleAssignAllToAll)
		authed.GET("/receipts/:receiptID/assignments", s.handleListAssignments)

		authed.POST("/receipts/:receiptID/payments", s.handleRecordPayment)
		authed.GET("/receipts/:receiptID/payments", s.handleListPayments)
		authed.PATCH("/payments/:paymentID", s.handleUpdatePayment)
		authed.DELETE("/payments/:paymentID", s.handleDeletePayment)

		authed.GET("/groups/:groupID/financials", s.handleGroupFinancials)
		authed.GET("/groups/:groupID/balances", s.handleGroupBalances)
		authed.POST("/groups/:groupID/settlements", s.handleSettleDebt)
		authed.GET("/groups/:groupID/settlements", s.handleListSettlements)
		authed.DELETE("/groups/:groupID/settlements", s.handleClearSettlements)

		authed.GET("/groups/:groupID/stats", s.handleGroupStats)
	}

	if s.staticDir != "" {
		s.mountStatic(router)
	}

	return router
}

// mountStatic serves the SPA frontend for non-API paths, falling back to
// index.html for client-side routes.
func (s *Server) mountStatic(router *gin.Engine) {
	staticDir, err := filepath.Abs(s.staticDir)
	if err != nil {
		return
	}
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		urlPath := c.Request.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}
		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			c.File(filepath.Join(staticDir, "index.html"))
			return
		}
		c.File(filePath)
	})
}

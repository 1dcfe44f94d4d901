package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splitscan/splitscan/internal/auth"
	"github.com/splitscan/splitscan/internal/currency"
	"github.com/splitscan/splitscan/internal/middleware"
	"github.com/splitscan/splitscan/internal/service"
	"github.com/splitscan/splitscan/internal/storage"
)

// respondError maps domain errors to HTTP statuses. Unknown errors become an
// opaque 500 so internals never leak to clients.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrVersionConflict):
		middleware.CountVersionConflict()
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrEmailExists),
		errors.Is(err, service.ErrPaymentExceedsTotal),
		errors.Is(err, currency.ErrUnknownCurrency):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

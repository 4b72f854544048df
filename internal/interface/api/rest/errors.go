package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"study-buddy-api/pkg/apperrors"
)

// respondError maps service errors onto status codes; anything unrecognised is logged and hidden behind a 500.
func respondError(c *gin.Context, logger *zap.Logger, op, failMsg string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": apperrors.Fields(err),
		})
	case errors.Is(err, apperrors.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, apperrors.ErrPermission):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperrors.ErrStorage):
		logger.Error(op+" storage error", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "file storage unavailable"})
	default:
		logger.Error(op+" error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": failMsg})
	}
}

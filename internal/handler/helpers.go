package handler

import (
	"net/http"
	"strings"

	"backend/internal/carrier"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError maps service-layer errors onto HTTP statuses: validation
// failures are 400, missing records 404, carrier failures 502, the rest 500.
func respondError(c *gin.Context, err error) {
	switch {
	case service.IsValidationError(err):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case strings.HasSuffix(err.Error(), "not found"):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case carrier.IsProviderError(err):
		c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

// currentUserID extracts the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

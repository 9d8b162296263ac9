package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProviderHandler struct {
	providerService service.ShippingProviderService
}

func NewProviderHandler(providerService service.ShippingProviderService) *ProviderHandler {
	return &ProviderHandler{providerService: providerService}
}

func (h *ProviderHandler) RegisterRoutes(router *gin.RouterGroup) {
	providers := router.Group("/api/shipping-providers")
	{
		providers.GET("", middleware.RequirePermission("providers.read"), h.ListProviders)
		providers.GET("/:id", middleware.RequirePermission("providers.read"), h.GetProvider)
		providers.POST("", middleware.RequirePermission("providers.write"), h.CreateProvider)
		providers.PUT("/:id", middleware.RequirePermission("providers.write"), h.UpdateProvider)
		providers.DELETE("/:id", middleware.RequirePermission("providers.write"), h.DeleteProvider)
		providers.POST("/:id/test-connection", middleware.RequirePermission("providers.write"), h.TestConnection)
	}
}

// ListProviders retrieves paginated carrier providers
// @Summary      List shipping providers
// @Tags         providers
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/shipping-providers [get]
func (h *ProviderHandler) ListProviders(c *gin.Context) {
	p := pagination.Parse(c)

	providers, total, err := h.providerService.ListProviders(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"providers": providers,
		"total":     total,
		"page":      p.Page,
		"limit":     p.Limit,
	}))
}

// GetProvider fetches a single provider by id
// @Summary      Get shipping provider
// @Tags         providers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Shipping Provider ID"
// @Success      200  {object}  response.Response{data=model.ShippingProvider}
// @Failure      404  {object}  response.Response
// @Router       /api/shipping-providers/{id} [get]
func (h *ProviderHandler) GetProvider(c *gin.Context) {
	provider, err := h.providerService.GetProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, provider))
}

// CreateProvider registers an external carrier configuration
// @Summary      Create shipping provider
// @Tags         providers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProviderRequest  true  "Create Provider Payload"
// @Success      201      {object}  response.Response{data=model.ShippingProvider}
// @Failure      400      {object}  response.Response
// @Router       /api/shipping-providers [post]
func (h *ProviderHandler) CreateProvider(c *gin.Context) {
	var req service.CreateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	provider, err := h.providerService.CreateProvider(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, provider))
}

// UpdateProvider updates carrier configuration; a blank api key keeps the stored secret
// @Summary      Update shipping provider
// @Tags         providers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Shipping Provider ID"
// @Param        payload  body      service.UpdateProviderRequest  true  "Update Provider Payload"
// @Success      200      {object}  response.Response{data=model.ShippingProvider}
// @Failure      400      {object}  response.Response
// @Router       /api/shipping-providers/{id} [put]
func (h *ProviderHandler) UpdateProvider(c *gin.Context) {
	var req service.UpdateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	provider, err := h.providerService.UpdateProvider(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, provider))
}

// DeleteProvider removes a provider
// @Summary      Delete shipping provider
// @Tags         providers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Shipping Provider ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/shipping-providers/{id} [delete]
func (h *ProviderHandler) DeleteProvider(c *gin.Context) {
	if err := h.providerService.DeleteProvider(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Shipping provider deleted successfully"))
}

// TestConnection pings the carrier API with the stored credentials
// @Summary      Test provider connection
// @Description  Attempts a live call against the carrier; a failed connection is reported in the body, not as an HTTP error
// @Tags         providers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Shipping Provider ID"
// @Success      200  {object}  response.Response{data=service.TestConnectionResult}
// @Failure      404  {object}  response.Response
// @Router       /api/shipping-providers/{id}/test-connection [post]
func (h *ProviderHandler) TestConnection(c *gin.Context) {
	result, err := h.providerService.TestConnection(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

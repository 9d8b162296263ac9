package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ShippingHandler struct {
	zoneService service.ShippingZoneService
	rateService service.ShippingRateService
}

func NewShippingHandler(zoneService service.ShippingZoneService, rateService service.ShippingRateService) *ShippingHandler {
	return &ShippingHandler{zoneService: zoneService, rateService: rateService}
}

func (h *ShippingHandler) RegisterRoutes(router *gin.RouterGroup) {
	zones := router.Group("/api/shipping-zones")
	{
		zones.GET("", middleware.RequirePermission("shipping.read"), h.ListZones)
		zones.GET("/:id", middleware.RequirePermission("shipping.read"), h.GetZone)
		zones.POST("", middleware.RequirePermission("shipping.write"), h.CreateZone)
		zones.PUT("/:id", middleware.RequirePermission("shipping.write"), h.UpdateZone)
		zones.DELETE("/:id", middleware.RequirePermission("shipping.write"), h.DeleteZone)
	}

	rates := router.Group("/api/shipping-rates")
	{
		rates.GET("", middleware.RequirePermission("shipping.read"), h.ListRates)
		rates.POST("", middleware.RequirePermission("shipping.write"), h.CreateRate)
		rates.PUT("/:id", middleware.RequirePermission("shipping.write"), h.UpdateRate)
		rates.DELETE("/:id", middleware.RequirePermission("shipping.write"), h.DeleteRate)
	}

	shipping := router.Group("/api/shipping")
	shipping.Use(middleware.RequireRole("admin", "manager", "staff"))
	{
		shipping.POST("/rates", h.QuoteRates)
	}
}

// ListZones retrieves paginated shipping zones
// @Summary      List shipping zones
// @Tags         shipping
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/shipping-zones [get]
func (h *ShippingHandler) ListZones(c *gin.Context) {
	p := pagination.Parse(c)

	zones, total, err := h.zoneService.ListZones(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"zones": zones,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

// GetZone fetches a single zone by id
// @Summary      Get shipping zone
// @Tags         shipping
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Shipping Zone ID"
// @Success      200  {object}  response.Response{data=model.ShippingZone}
// @Failure      404  {object}  response.Response
// @Router       /api/shipping-zones/{id} [get]
func (h *ShippingHandler) GetZone(c *gin.Context) {
	zone, err := h.zoneService.GetZone(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, zone))
}

// CreateZone creates a geographic match pattern for rates
// @Summary      Create shipping zone
// @Tags         shipping
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateShippingZoneRequest  true  "Create Shipping Zone Payload"
// @Success      201      {object}  response.Response{data=model.ShippingZone}
// @Failure      400      {object}  response.Response
// @Router       /api/shipping-zones [post]
func (h *ShippingHandler) CreateZone(c *gin.Context) {
	var req service.CreateShippingZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	zone, err := h.zoneService.CreateZone(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, zone))
}

// UpdateZone replaces a zone's match patterns
// @Summary      Update shipping zone
// @Tags         shipping
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                             true  "Shipping Zone ID"
// @Param        payload  body      service.UpdateShippingZoneRequest  true  "Update Shipping Zone Payload"
// @Success      200      {object}  response.Response{data=model.ShippingZone}
// @Failure      400      {object}  response.Response
// @Router       /api/shipping-zones/{id} [put]
func (h *ShippingHandler) UpdateZone(c *gin.Context) {
	var req service.UpdateShippingZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	zone, err := h.zoneService.UpdateZone(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, zone))
}

// DeleteZone removes a zone and its rates
// @Summary      Delete shipping zone
// @Tags         shipping
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Shipping Zone ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/shipping-zones/{id} [delete]
func (h *ShippingHandler) DeleteZone(c *gin.Context) {
	if err := h.zoneService.DeleteZone(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Shipping zone deleted successfully"))
}

// ListRates retrieves paginated shipping rates
// @Summary      List shipping rates
// @Tags         shipping
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/shipping-rates [get]
func (h *ShippingHandler) ListRates(c *gin.Context) {
	p := pagination.Parse(c)

	rates, total, err := h.zoneService.ListRates(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"rates": rates,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

// CreateRate creates a priced option inside a zone
// @Summary      Create shipping rate
// @Description  Creates a rate; only the parameters of the chosen type may be set
// @Tags         shipping
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateShippingRateRequest  true  "Create Shipping Rate Payload"
// @Success      201      {object}  response.Response{data=model.ShippingRate}
// @Failure      400      {object}  response.Response
// @Router       /api/shipping-rates [post]
func (h *ShippingHandler) CreateRate(c *gin.Context) {
	var req service.CreateShippingRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rate, err := h.zoneService.CreateRate(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rate))
}

// UpdateRate replaces a rate's pricing parameters
// @Summary      Update shipping rate
// @Tags         shipping
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                             true  "Shipping Rate ID"
// @Param        payload  body      service.UpdateShippingRateRequest  true  "Update Shipping Rate Payload"
// @Success      200      {object}  response.Response{data=model.ShippingRate}
// @Failure      400      {object}  response.Response
// @Router       /api/shipping-rates/{id} [put]
func (h *ShippingHandler) UpdateRate(c *gin.Context) {
	var req service.UpdateShippingRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rate, err := h.zoneService.UpdateRate(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rate))
}

// DeleteRate removes a rate
// @Summary      Delete shipping rate
// @Tags         shipping
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Shipping Rate ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/shipping-rates/{id} [delete]
func (h *ShippingHandler) DeleteRate(c *gin.Context) {
	if err := h.zoneService.DeleteRate(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Shipping rate deleted successfully"))
}

// QuoteRates matches zones and prices eligible rates for a destination
// @Summary      Quote shipping rates
// @Description  Matches the address against active zones and returns eligible rates sorted by cost. Returns an empty list with a message when nothing matches.
// @Tags         shipping
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ShippingQuoteRequest  true  "Shipping Quote Payload"
// @Success      200      {object}  response.Response{data=service.ShippingQuoteResponse}
// @Failure      400      {object}  response.Response
// @Failure      502      {object}  response.Response  "Carrier failure on calculated rates"
// @Router       /api/shipping/rates [post]
func (h *ShippingHandler) QuoteRates(c *gin.Context) {
	var req service.ShippingQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quote, err := h.rateService.QuoteShippingRates(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quote))
}

package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxHandler struct {
	regionService service.TaxRegionService
	calcService   service.TaxCalculationService
}

func NewTaxHandler(regionService service.TaxRegionService, calcService service.TaxCalculationService) *TaxHandler {
	return &TaxHandler{regionService: regionService, calcService: calcService}
}

func (h *TaxHandler) RegisterRoutes(router *gin.RouterGroup) {
	regions := router.Group("/api/tax-regions")
	{
		regions.GET("", middleware.RequirePermission("tax_regions.read"), h.ListTaxRegions)
		regions.GET("/:id", middleware.RequirePermission("tax_regions.read"), h.GetTaxRegion)
		regions.POST("", middleware.RequirePermission("tax_regions.write"), h.CreateTaxRegion)
		regions.PUT("/:id", middleware.RequirePermission("tax_regions.write"), h.UpdateTaxRegion)
		regions.DELETE("/:id", middleware.RequirePermission("tax_regions.write"), h.DeleteTaxRegion)
	}

	tax := router.Group("/api/tax")
	tax.Use(middleware.RequireRole("admin", "manager", "staff"))
	{
		tax.POST("/calculate", h.CalculateTax)
	}
}

// ListTaxRegions returns the region hierarchy with overrides preloaded
// @Summary      List tax regions
// @Description  Retrieves a paginated list of tax regions with their overrides
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/tax-regions [get]
func (h *TaxHandler) ListTaxRegions(c *gin.Context) {
	p := pagination.Parse(c)

	regions, total, err := h.regionService.ListTaxRegions(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"regions": regions,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}

// GetTaxRegion fetches a single region by id
// @Summary      Get tax region
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Tax Region ID"
// @Success      200  {object}  response.Response{data=model.TaxRegion}
// @Failure      404  {object}  response.Response
// @Router       /api/tax-regions/{id} [get]
func (h *TaxHandler) GetTaxRegion(c *gin.Context) {
	region, err := h.regionService.GetTaxRegion(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, region))
}

// CreateTaxRegion creates a country or subdivision region with overrides
// @Summary      Create tax region
// @Description  Creates a tax region; subdivision regions require a country-level parent
// @Tags         tax
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateTaxRegionRequest  true  "Create Tax Region Payload"
// @Success      201      {object}  response.Response{data=model.TaxRegion}
// @Failure      400      {object}  response.Response
// @Router       /api/tax-regions [post]
func (h *TaxHandler) CreateTaxRegion(c *gin.Context) {
	var req service.CreateTaxRegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	region, err := h.regionService.CreateTaxRegion(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, region))
}

// UpdateTaxRegion replaces a region's fields and override list
// @Summary      Update tax region
// @Tags         tax
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Tax Region ID"
// @Param        payload  body      service.UpdateTaxRegionRequest  true  "Update Tax Region Payload"
// @Success      200      {object}  response.Response{data=model.TaxRegion}
// @Failure      400      {object}  response.Response
// @Router       /api/tax-regions/{id} [put]
func (h *TaxHandler) UpdateTaxRegion(c *gin.Context) {
	var req service.UpdateTaxRegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	region, err := h.regionService.UpdateTaxRegion(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, region))
}

// DeleteTaxRegion removes a region and its overrides
// @Summary      Delete tax region
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Tax Region ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/tax-regions/{id} [delete]
func (h *TaxHandler) DeleteTaxRegion(c *gin.Context) {
	if err := h.regionService.DeleteTaxRegion(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Tax region deleted successfully"))
}

// CalculateTax resolves the applicable region and computes tax for an amount
// @Summary      Calculate tax
// @Description  Resolves the most specific active tax region for the address and returns rate, amount and breakdown. Returns null data when no region applies.
// @Tags         tax
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CalculateTaxRequest  true  "Calculate Tax Payload"
// @Success      200      {object}  response.Response{data=service.TaxCalculationResult}
// @Failure      400      {object}  response.Response
// @Router       /api/tax/calculate [post]
func (h *TaxHandler) CalculateTax(c *gin.Context) {
	var req service.CalculateTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.calcService.CalculateTax(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	// A nil result is a valid outcome: no tax region covers the address.
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ShipmentHandler struct {
	shipmentService service.ShipmentService
}

func NewShipmentHandler(shipmentService service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipmentService: shipmentService}
}

func (h *ShipmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	shipments := router.Group("/api/shipments")
	{
		shipments.GET("", middleware.RequirePermission("shipments.read"), h.ListShipments)
		shipments.GET("/:id", middleware.RequirePermission("shipments.read"), h.GetShipment)
		shipments.GET("/tracking/:code", middleware.RequirePermission("shipments.read"), h.GetByTracking)
		shipments.POST("", middleware.RequirePermission("shipments.write"), h.CreateShipment)
		shipments.PATCH("/:id/status", middleware.RequirePermission("shipments.write"), h.UpdateStatus)
	}

	router.GET("/api/orders/:id/shipments", middleware.RequirePermission("shipments.read"), h.ListShipmentsByOrder)
}

// ListShipments retrieves paginated shipments, optionally filtered by status
// @Summary      List shipments
// @Tags         shipments
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        status  query     string  false  "Filter by shipment status"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/shipments [get]
func (h *ShipmentHandler) ListShipments(c *gin.Context) {
	p := pagination.Parse(c)
	status := c.Query("status")

	shipments, total, err := h.shipmentService.ListShipments(c.Request.Context(), p.Page, p.Limit, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"shipments": shipments,
		"total":     total,
		"page":      p.Page,
		"limit":     p.Limit,
	}))
}

// GetShipment fetches a single shipment by id
// @Summary      Get shipment
// @Tags         shipments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Shipment ID"
// @Success      200  {object}  response.Response{data=model.Shipment}
// @Failure      404  {object}  response.Response
// @Router       /api/shipments/{id} [get]
func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	shipment, err := h.shipmentService.GetShipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, shipment))
}

// GetByTracking looks up a shipment by its carrier tracking code
// @Summary      Get shipment by tracking code
// @Tags         shipments
// @Security     BearerAuth
// @Produce      json
// @Param        code  path      string  true  "Tracking Code"
// @Success      200   {object}  response.Response{data=model.Shipment}
// @Failure      404   {object}  response.Response
// @Router       /api/shipments/tracking/{code} [get]
func (h *ShipmentHandler) GetByTracking(c *gin.Context) {
	shipment, err := h.shipmentService.GetShipmentByTracking(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, shipment))
}

// ListShipmentsByOrder lists all shipments for an order
// @Summary      List shipments for order
// @Tags         shipments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]model.Shipment}
// @Router       /api/orders/{id}/shipments [get]
func (h *ShipmentHandler) ListShipmentsByOrder(c *gin.Context) {
	shipments, err := h.shipmentService.ListShipmentsByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, shipments))
}

// CreateShipment dispatches a confirmed order
// @Summary      Create shipment
// @Description  Creates a PENDING shipment for a CONFIRMED order and assigns a daily-sequenced shipment number
// @Tags         shipments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateShipmentRequest  true  "Create Shipment Payload"
// @Success      201      {object}  response.Response{data=model.Shipment}
// @Failure      400      {object}  response.Response
// @Router       /api/shipments [post]
func (h *ShipmentHandler) CreateShipment(c *gin.Context) {
	var req service.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	shipment, err := h.shipmentService.CreateShipment(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, shipment))
}

// UpdateStatus advances the shipment lifecycle and propagates to the order
// @Summary      Update shipment status
// @Description  Allowed transitions: PENDING to SHIPPED or FAILED, SHIPPED to DELIVERED or FAILED; SHIPPED and DELIVERED propagate to the order
// @Tags         shipments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                               true  "Shipment ID"
// @Param        payload  body      service.UpdateShipmentStatusRequest  true  "Update Status Payload"
// @Success      200      {object}  response.Response{data=model.Shipment}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/shipments/{id}/status [patch]
func (h *ShipmentHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateShipmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	shipment, err := h.shipmentService.UpdateShipmentStatus(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, shipment))
}

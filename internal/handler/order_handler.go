package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService    service.OrderService
	orderTaxService service.OrderTaxService
}

func NewOrderHandler(orderService service.OrderService, orderTaxService service.OrderTaxService) *OrderHandler {
	return &OrderHandler{orderService: orderService, orderTaxService: orderTaxService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.GET("", middleware.RequirePermission("orders.read"), h.ListOrders)
		orders.GET("/:id", middleware.RequirePermission("orders.read"), h.GetOrder)
		orders.POST("", middleware.RequirePermission("orders.write"), h.CreateOrder)
		orders.POST("/:id/shipping-rate", middleware.RequirePermission("orders.write"), h.SelectShippingRate)
		orders.POST("/:id/taxes", middleware.RequirePermission("orders.write"), h.ApplyTaxes)
		orders.PATCH("/:id/status", middleware.RequirePermission("orders.write"), h.UpdateStatus)
	}
}

// ListOrders retrieves paginated orders, optionally filtered by status
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        status  query     string  false  "Filter by order status"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	p := pagination.Parse(c)
	status := c.Query("status")

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), p.Page, p.Limit, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   p.Page,
		"limit":  p.Limit,
	}))
}

// GetOrder fetches a single order with items, customer and shipping rate
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CreateOrder creates a draft order with item snapshots
// @Summary      Create order
// @Description  Creates a DRAFT order; item unit prices are snapshotted from the catalog
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// SelectShippingRate attaches a shipping rate to the order and prices it
// @Summary      Select shipping rate for order
// @Description  Re-prices the chosen rate against the order's subtotal and weight, then stores the cost
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Order ID"
// @Param        payload  body      service.SelectShippingRateRequest  true  "Select Shipping Rate Payload"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/orders/{id}/shipping-rate [post]
func (h *OrderHandler) SelectShippingRate(c *gin.Context) {
	var req service.SelectShippingRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.SelectShippingRate(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ApplyTaxes resolves the order's tax region and writes per-line tax amounts
// @Summary      Apply taxes to order
// @Description  Resolves the destination's tax region, computes per-item tax and updates the order totals
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.ApplyTaxesResult}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/taxes [post]
func (h *OrderHandler) ApplyTaxes(c *gin.Context) {
	result, err := h.orderTaxService.ApplyOrderTaxes(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UpdateStatus transitions the order through its lifecycle
// @Summary      Update order status
// @Description  Allowed transitions: DRAFT to PENDING, PENDING to CONFIRMED, CONFIRMED to SHIPPED, SHIPPED to DELIVERED; CANCELLED is reachable before shipping
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Order ID"
// @Param        payload  body      service.UpdateOrderStatusRequest  true  "Update Status Payload"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), currentUserID(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

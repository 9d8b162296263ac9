package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customerService service.CustomerService
}

func NewCustomerHandler(customerService service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup) {
	customers := router.Group("/api/customers")
	{
		customers.GET("", middleware.RequirePermission("customers.read"), h.ListCustomers)
		customers.GET("/:id", middleware.RequirePermission("customers.read"), h.GetCustomer)
		customers.POST("", middleware.RequirePermission("customers.write"), h.CreateCustomer)
		customers.PUT("/:id", middleware.RequirePermission("customers.write"), h.UpdateCustomer)
		customers.DELETE("/:id", middleware.RequirePermission("customers.write"), h.DeleteCustomer)

		customers.POST("/:id/addresses", middleware.RequirePermission("customers.write"), h.AddAddress)
		customers.PUT("/:id/addresses/:addressId", middleware.RequirePermission("customers.write"), h.UpdateAddress)
		customers.DELETE("/:id/addresses/:addressId", middleware.RequirePermission("customers.write"), h.DeleteAddress)
	}
}

// ListCustomers retrieves paginated customers, optionally filtered by search term
// @Summary      List customers
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by name or email"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	p := pagination.Parse(c)
	search := c.Query("search")

	customers, total, err := h.customerService.ListCustomers(c.Request.Context(), p.Page, p.Limit, search)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"customers": customers,
		"total":     total,
		"page":      p.Page,
		"limit":     p.Limit,
	}))
}

// GetCustomer fetches a single customer with addresses
// @Summary      Get customer
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=model.Customer}
// @Failure      404  {object}  response.Response
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customer, err := h.customerService.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// CreateCustomer registers a customer record
// @Summary      Create customer
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCustomerRequest  true  "Create Customer Payload"
// @Success      201      {object}  response.Response{data=model.Customer}
// @Failure      400      {object}  response.Response
// @Router       /api/customers [post]
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, customer))
}

// UpdateCustomer updates a customer's base fields
// @Summary      Update customer
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Customer ID"
// @Param        payload  body      service.UpdateCustomerRequest  true  "Update Customer Payload"
// @Success      200      {object}  response.Response{data=model.Customer}
// @Failure      400      {object}  response.Response
// @Router       /api/customers/{id} [put]
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var req service.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// DeleteCustomer soft deletes a customer
// @Summary      Delete customer
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/customers/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	if err := h.customerService.DeleteCustomer(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Customer deleted successfully"))
}

// AddAddress attaches an address to a customer
// @Summary      Add customer address
// @Description  Adds a billing or shipping address; marking it default displaces the previous default of that type
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Customer ID"
// @Param        payload  body      service.CreateAddressRequest  true  "Create Address Payload"
// @Success      201      {object}  response.Response{data=model.CustomerAddress}
// @Failure      400      {object}  response.Response
// @Router       /api/customers/{id}/addresses [post]
func (h *CustomerHandler) AddAddress(c *gin.Context) {
	var req service.CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	address, err := h.customerService.AddAddress(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, address))
}

// UpdateAddress replaces a customer's address
// @Summary      Update customer address
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id         path      string                        true  "Customer ID"
// @Param        addressId  path      string                        true  "Address ID"
// @Param        payload    body      service.UpdateAddressRequest  true  "Update Address Payload"
// @Success      200        {object}  response.Response{data=model.CustomerAddress}
// @Failure      400        {object}  response.Response
// @Router       /api/customers/{id}/addresses/{addressId} [put]
func (h *CustomerHandler) UpdateAddress(c *gin.Context) {
	var req service.UpdateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	address, err := h.customerService.UpdateAddress(c.Request.Context(), c.Param("id"), c.Param("addressId"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, address))
}

// DeleteAddress removes a customer's address
// @Summary      Delete customer address
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id         path      string  true  "Customer ID"
// @Param        addressId  path      string  true  "Address ID"
// @Success      200        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /api/customers/{id}/addresses/{addressId} [delete]
func (h *CustomerHandler) DeleteAddress(c *gin.Context) {
	if err := h.customerService.DeleteAddress(c.Request.Context(), c.Param("id"), c.Param("addressId")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Address deleted successfully"))
}

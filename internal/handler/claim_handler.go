package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ClaimHandler struct {
	claimService service.ClaimService
}

func NewClaimHandler(claimService service.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService}
}

func (h *ClaimHandler) RegisterRoutes(router *gin.RouterGroup) {
	claims := router.Group("/api/claims")
	{
		claims.GET("", middleware.RequirePermission("claims.read"), h.ListClaims)
		claims.GET("/:id", middleware.RequirePermission("claims.read"), h.GetClaim)
		claims.POST("", middleware.RequirePermission("claims.write"), h.CreateClaim)
		claims.POST("/:id/approve", middleware.RequirePermission("claims.resolve"), h.ApproveClaim)
		claims.POST("/:id/reject", middleware.RequirePermission("claims.resolve"), h.RejectClaim)
	}

	router.GET("/api/orders/:id/claims", middleware.RequirePermission("claims.read"), h.ListClaimsByOrder)
}

// ListClaims retrieves paginated claims, optionally filtered by status
// @Summary      List claims
// @Tags         claims
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        status  query     string  false  "Filter by claim status"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/claims [get]
func (h *ClaimHandler) ListClaims(c *gin.Context) {
	p := pagination.Parse(c)
	status := c.Query("status")

	claims, total, err := h.claimService.ListClaims(c.Request.Context(), p.Page, p.Limit, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"claims": claims,
		"total":  total,
		"page":   p.Page,
		"limit":  p.Limit,
	}))
}

// GetClaim fetches a single claim by id
// @Summary      Get claim
// @Tags         claims
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Claim ID"
// @Success      200  {object}  response.Response{data=model.Claim}
// @Failure      404  {object}  response.Response
// @Router       /api/claims/{id} [get]
func (h *ClaimHandler) GetClaim(c *gin.Context) {
	claim, err := h.claimService.GetClaim(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, claim))
}

// ListClaimsByOrder lists all claims filed against a delivered order
// @Summary      List claims for order
// @Tags         claims
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]model.Claim}
// @Router       /api/orders/{id}/claims [get]
func (h *ClaimHandler) ListClaimsByOrder(c *gin.Context) {
	claims, err := h.claimService.ListClaimsByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, claims))
}

// CreateClaim files a return, exchange or refund against a delivered order
// @Summary      Create claim
// @Description  Claims can only be filed against DELIVERED orders; claimed quantities cannot exceed ordered quantities
// @Tags         claims
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateClaimRequest  true  "Create Claim Payload"
// @Success      201      {object}  response.Response{data=model.Claim}
// @Failure      400      {object}  response.Response
// @Router       /api/claims [post]
func (h *ClaimHandler) CreateClaim(c *gin.Context) {
	var req service.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	claim, err := h.claimService.CreateClaim(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, claim))
}

// ApproveClaim resolves a pending claim as approved
// @Summary      Approve claim
// @Tags         claims
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Claim ID"
// @Success      200  {object}  response.Response{data=model.Claim}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/claims/{id}/approve [post]
func (h *ClaimHandler) ApproveClaim(c *gin.Context) {
	claim, err := h.claimService.ApproveClaim(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, claim))
}

// RejectClaim resolves a pending claim as rejected with a reason
// @Summary      Reject claim
// @Tags         claims
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Claim ID"
// @Param        payload  body      service.RejectClaimRequest  true  "Reject Claim Payload"
// @Success      200      {object}  response.Response{data=model.Claim}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/claims/{id}/reject [post]
func (h *ClaimHandler) RejectClaim(c *gin.Context) {
	var req service.RejectClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	claim, err := h.claimService.RejectClaim(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, claim))
}

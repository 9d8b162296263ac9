package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type ClaimItemRequest struct {
	OrderItemID string `json:"order_item_id" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
}

type CreateClaimRequest struct {
	OrderID      string             `json:"order_id" binding:"required"`
	Kind         string             `json:"kind" binding:"required,oneof=RETURN EXCHANGE REFUND"`
	Reason       string             `json:"reason" binding:"required"`
	Items        []ClaimItemRequest `json:"items" binding:"required,min=1,dive"`
	RefundAmount string             `json:"refund_amount"` // required for REFUND
}

type RejectClaimRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ClaimService handles the return/exchange/refund workflow. Claims are raised
// against delivered orders and resolved by a manager.
type ClaimService interface {
	CreateClaim(ctx context.Context, userID string, req CreateClaimRequest) (*model.Claim, error)
	ApproveClaim(ctx context.Context, userID string, claimID string) (*model.Claim, error)
	RejectClaim(ctx context.Context, userID string, claimID string, req RejectClaimRequest) (*model.Claim, error)
	GetClaim(ctx context.Context, id string) (*model.Claim, error)
	ListClaims(ctx context.Context, page, limit int, status string) ([]model.Claim, int64, error)
	ListClaimsByOrder(ctx context.Context, orderID string) ([]model.Claim, error)
}

type claimService struct {
	claimRepo repository.ClaimRepository
	orderRepo repository.OrderRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewClaimService(
	claimRepo repository.ClaimRepository,
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ClaimService {
	return &claimService{
		claimRepo: claimRepo,
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		txManager: txManager,
	}
}

func (s *claimService) CreateClaim(ctx context.Context, userID string, req CreateClaimRequest) (*model.Claim, error) {
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, newValidationError("invalid order_id")
	}

	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newValidationError("order not found")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.Status != model.OrderStatusDelivered {
		return nil, newValidationError("claims can only be raised against delivered orders")
	}

	// Every claimed line must belong to the order and stay within its quantity.
	itemsByID := make(map[string]*model.OrderItem, len(order.Items))
	for i := range order.Items {
		itemsByID[order.Items[i].ID.String()] = &order.Items[i]
	}
	for _, claimed := range req.Items {
		item, ok := itemsByID[claimed.OrderItemID]
		if !ok {
			return nil, newValidationError(fmt.Sprintf("order item %s does not belong to this order", claimed.OrderItemID))
		}
		if claimed.Quantity > item.Quantity {
			return nil, newValidationError(fmt.Sprintf("claimed quantity exceeds ordered quantity for item %s", claimed.OrderItemID))
		}
	}

	refund := decimal.Zero
	if req.Kind == model.ClaimKindRefund {
		if req.RefundAmount == "" {
			return nil, newValidationError("refund_amount is required for REFUND claims")
		}
		refund, err = decimal.NewFromString(req.RefundAmount)
		if err != nil {
			return nil, newValidationError("refund_amount must be a decimal number")
		}
		if refund.IsNegative() {
			return nil, newValidationError("refund_amount must not be negative")
		}
		if refund.GreaterThan(order.TotalAmount) {
			return nil, newValidationError("refund_amount exceeds the order total")
		}
	}

	itemsData, _ := json.Marshal(req.Items)

	var uid *uuid.UUID
	if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
		uid = &parsed
	}

	claim := &model.Claim{
		OrderID:      order.ID,
		Kind:         req.Kind,
		Reason:       req.Reason,
		ItemsData:    string(itemsData),
		RefundAmount: refund,
		Status:       model.ClaimPending,
		RequestedBy:  uid,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.claimRepo.Create(txCtx, claim); createErr != nil {
			return fmt.Errorf("failed to create claim: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"order_code":    order.OrderCode,
			"kind":          req.Kind,
			"reason":        req.Reason,
			"refund_amount": refund.StringFixed(2),
		})
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionCreateClaim,
			EntityID:   claim.ID.String(),
			EntityName: order.OrderCode,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.claimRepo.FindByID(ctx, claim.ID)
}

func (s *claimService) ApproveClaim(ctx context.Context, userID string, claimID string) (*model.Claim, error) {
	return s.resolveClaim(ctx, userID, claimID, model.ClaimApproved, "")
}

func (s *claimService) RejectClaim(ctx context.Context, userID string, claimID string, req RejectClaimRequest) (*model.Claim, error) {
	return s.resolveClaim(ctx, userID, claimID, model.ClaimRejected, req.Reason)
}

func (s *claimService) resolveClaim(ctx context.Context, userID, claimID, status, rejectionReason string) (*model.Claim, error) {
	claim, err := s.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status != model.ClaimPending {
		return nil, newValidationError("claim has already been resolved")
	}

	resolverID, err := uuid.Parse(userID)
	if err != nil {
		return nil, newValidationError("invalid resolver id")
	}

	now := time.Now()
	claim.Status = status
	claim.ResolvedBy = &resolverID
	claim.ResolvedAt = &now
	claim.RejectionReason = rejectionReason

	action := model.ActionApproveClaim
	if status == model.ClaimRejected {
		action = model.ActionRejectClaim
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.claimRepo.Update(txCtx, claim); updateErr != nil {
			return fmt.Errorf("failed to update claim: %w", updateErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"kind":             claim.Kind,
			"status":           status,
			"rejection_reason": rejectionReason,
			"refund_amount":    claim.RefundAmount.StringFixed(2),
		})
		audit := &model.AuditLog{
			UserID:     &resolverID,
			Action:     action,
			EntityID:   claim.ID.String(),
			EntityName: claim.Kind,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.claimRepo.FindByID(ctx, claim.ID)
}

func (s *claimService) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	claimID, err := uuid.Parse(id)
	if err != nil {
		return nil, newValidationError("invalid claim id")
	}
	claim, err := s.claimRepo.FindByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("claim not found")
		}
		return nil, fmt.Errorf("failed to load claim: %w", err)
	}
	return claim, nil
}

func (s *claimService) ListClaims(ctx context.Context, page, limit int, status string) ([]model.Claim, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.claimRepo.List(ctx, page, limit, status)
}

func (s *claimService) ListClaimsByOrder(ctx context.Context, orderID string) ([]model.Claim, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, newValidationError("invalid order id")
	}
	return s.claimRepo.ListByOrder(ctx, oid)
}

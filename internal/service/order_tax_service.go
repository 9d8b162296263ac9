package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Websocket Payload
type OrderEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// ApplyTaxesResult summarizes a tax application run over an order.
type ApplyTaxesResult struct {
	OrderID     string `json:"order_id"`
	RegionID    string `json:"region_id,omitempty"`
	RegionName  string `json:"region_name,omitempty"`
	Subtotal    string `json:"subtotal"`
	TaxAmount   string `json:"tax_amount"`
	TotalAmount string `json:"total_amount"`
}

// OrderTaxService applies the tax engine's result to a persisted order: the
// region is resolved once from the order's shipping address, each line is
// taxed through the region, and the order totals are written in one
// transaction.
type OrderTaxService interface {
	ApplyOrderTaxes(ctx context.Context, userID string, orderID string) (*ApplyTaxesResult, error)
}

type orderTaxService struct {
	orderRepo repository.OrderRepository
	taxSvc    TaxCalculationService
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewOrderTaxService(
	orderRepo repository.OrderRepository,
	taxSvc TaxCalculationService,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) OrderTaxService {
	return &orderTaxService{
		orderRepo: orderRepo,
		taxSvc:    taxSvc,
		auditRepo: auditRepo,
		txManager: txManager,
		hub:       hub,
	}
}

func (s *orderTaxService) ApplyOrderTaxes(ctx context.Context, userID string, orderID string) (*ApplyTaxesResult, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, newValidationError("invalid order id")
	}

	order, err := s.orderRepo.FindByIDWithItems(ctx, oid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("order not found")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.ShipCountryCode == "" {
		return nil, newValidationError("order has no shipping country; set the shipping address first")
	}

	region, err := s.taxSvc.FindApplicableTaxRegion(ctx, order.ShipCountryCode, order.ShipState)
	if err != nil {
		return nil, err
	}

	// Tax every line through the resolved region. No region means the order
	// legitimately carries zero tax, which is still recorded.
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for i := range order.Items {
		item := &order.Items[i]
		lineTotal := item.LineTotal()
		subtotal = subtotal.Add(lineTotal)

		if region == nil {
			item.TaxAmount = decimal.Zero
			continue
		}

		calc, calcErr := s.taxSvc.CalculateTaxForRegion(ctx, region, item.ProductID.String(), item.Product.ProductType, lineTotal)
		if calcErr != nil {
			return nil, calcErr
		}
		lineTax, parseErr := decimal.NewFromString(calc.TaxAmount)
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse calculated tax amount: %w", parseErr)
		}
		item.TaxAmount = lineTax
		taxTotal = taxTotal.Add(lineTax)
	}

	order.Subtotal = subtotal
	order.TaxAmount = taxTotal
	if region != nil {
		regionID := region.ID
		order.TaxRegionID = &regionID
	} else {
		order.TaxRegionID = nil
	}
	if subtotal.IsPositive() {
		order.TaxRate = taxTotal.DivRound(subtotal, 6)
	} else {
		order.TaxRate = decimal.Zero
	}
	order.TotalAmount = subtotal.Add(taxTotal).Add(order.ShippingCost)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i := range order.Items {
			if updateErr := s.orderRepo.UpdateItem(txCtx, &order.Items[i]); updateErr != nil {
				return fmt.Errorf("failed to update order item: %w", updateErr)
			}
		}
		if updateErr := s.orderRepo.Update(txCtx, order); updateErr != nil {
			return fmt.Errorf("failed to update order totals: %w", updateErr)
		}

		var uid *uuid.UUID
		if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
			uid = &parsed
		}

		regionName := ""
		if region != nil {
			regionName = region.Name
		}
		details, _ := json.Marshal(map[string]interface{}{
			"order_code": order.OrderCode,
			"region":     regionName,
			"subtotal":   subtotal.StringFixed(2),
			"tax_amount": taxTotal.StringFixed(2),
		})
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionApplyTaxes,
			EntityID:   order.ID.String(),
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

	result := &ApplyTaxesResult{
		OrderID:     order.ID.String(),
		Subtotal:    subtotal.StringFixed(2),
		TaxAmount:   taxTotal.StringFixed(2),
		TotalAmount: order.TotalAmount.StringFixed(2),
	}
	if region != nil {
		result.RegionID = region.ID.String()
		result.RegionName = region.Name
	}

	s.broadcast("order.taxes_applied", map[string]interface{}{
		"order_id":     result.OrderID,
		"order_code":   order.OrderCode,
		"tax_amount":   result.TaxAmount,
		"total_amount": result.TotalAmount,
	})

	return result, nil
}

func (s *orderTaxService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(OrderEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}

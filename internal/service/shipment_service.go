package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type CreateShipmentRequest struct {
	OrderID      string `json:"order_id" binding:"required"`
	Carrier      string `json:"carrier"`
	TrackingCode string `json:"tracking_code"`
	Note         string `json:"note"`
}

type UpdateShipmentStatusRequest struct {
	Status       string `json:"status" binding:"required,oneof=PENDING SHIPPED DELIVERED FAILED"`
	TrackingCode string `json:"tracking_code"`
}

var shipmentTransitions = map[string][]string{
	model.ShipmentPending: {model.ShipmentShipped, model.ShipmentFailed},
	model.ShipmentShipped: {model.ShipmentDelivered, model.ShipmentFailed},
}

// ShipmentService tracks physical shipments for confirmed orders. Shipment
// status drives the order status: SHIPPED and DELIVERED propagate upward.
type ShipmentService interface {
	CreateShipment(ctx context.Context, userID string, req CreateShipmentRequest) (*model.Shipment, error)
	UpdateShipmentStatus(ctx context.Context, userID string, shipmentID string, req UpdateShipmentStatusRequest) (*model.Shipment, error)
	GetShipment(ctx context.Context, id string) (*model.Shipment, error)
	GetShipmentByTracking(ctx context.Context, trackingCode string) (*model.Shipment, error)
	ListShipments(ctx context.Context, page, limit int, status string) ([]model.Shipment, int64, error)
	ListShipmentsByOrder(ctx context.Context, orderID string) ([]model.Shipment, error)
}

type shipmentService struct {
	shipmentRepo repository.ShipmentRepository
	orderRepo    repository.OrderRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewShipmentService(
	shipmentRepo repository.ShipmentRepository,
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ShipmentService {
	return &shipmentService{
		shipmentRepo: shipmentRepo,
		orderRepo:    orderRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

func (s *shipmentService) CreateShipment(ctx context.Context, userID string, req CreateShipmentRequest) (*model.Shipment, error) {
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
	if order.Status != model.OrderStatusConfirmed {
		return nil, newValidationError("shipments can only be created for confirmed orders")
	}

	shipment := &model.Shipment{
		OrderID:        order.ID,
		ShippingRateID: order.ShippingRateID,
		Carrier:        req.Carrier,
		TrackingCode:   req.TrackingCode,
		Status:         model.ShipmentPending,
		Note:           req.Note,
	}

	var uid *uuid.UUID
	if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
		uid = &parsed
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		seq, countErr := s.shipmentRepo.CountCreatedToday(txCtx)
		if countErr != nil {
			return fmt.Errorf("failed to count shipments: %w", countErr)
		}
		shipment.ShipmentNo = fmt.Sprintf("SHP-%s-%04d", time.Now().Format("20060102"), seq+1)

		if createErr := s.shipmentRepo.Create(txCtx, shipment); createErr != nil {
			return fmt.Errorf("failed to create shipment: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"order_code":    order.OrderCode,
			"carrier":       req.Carrier,
			"tracking_code": req.TrackingCode,
		})
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionCreateShipment,
			EntityID:   shipment.ID.String(),
			EntityName: shipment.ShipmentNo,
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

	s.broadcast("shipment.created", map[string]interface{}{
		"shipment_id": shipment.ID.String(),
		"shipment_no": shipment.ShipmentNo,
		"order_id":    order.ID.String(),
	})

	return s.shipmentRepo.FindByID(ctx, shipment.ID)
}

func (s *shipmentService) UpdateShipmentStatus(ctx context.Context, userID string, shipmentID string, req UpdateShipmentStatusRequest) (*model.Shipment, error) {
	shipment, err := s.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	if !shipmentTransitionAllowed(shipment.Status, req.Status) {
		return nil, newValidationError(fmt.Sprintf("cannot transition shipment from %s to %s", shipment.Status, req.Status))
	}

	now := time.Now()
	shipment.Status = req.Status
	if req.TrackingCode != "" {
		shipment.TrackingCode = req.TrackingCode
	}
	switch req.Status {
	case model.ShipmentShipped:
		shipment.ShippedAt = &now
	case model.ShipmentDelivered:
		shipment.DeliveredAt = &now
	}

	var uid *uuid.UUID
	if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
		uid = &parsed
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.shipmentRepo.Update(txCtx, shipment); updateErr != nil {
			return fmt.Errorf("failed to update shipment: %w", updateErr)
		}

		// Keep the order in step with its shipment.
		switch req.Status {
		case model.ShipmentShipped:
			if statusErr := s.orderRepo.UpdateStatus(txCtx, shipment.OrderID, model.OrderStatusShipped); statusErr != nil {
				return fmt.Errorf("failed to update order status: %w", statusErr)
			}
		case model.ShipmentDelivered:
			if statusErr := s.orderRepo.UpdateStatus(txCtx, shipment.OrderID, model.OrderStatusDelivered); statusErr != nil {
				return fmt.Errorf("failed to update order status: %w", statusErr)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"status":        req.Status,
			"tracking_code": shipment.TrackingCode,
		})
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionUpdateShipment,
			EntityID:   shipment.ID.String(),
			EntityName: shipment.ShipmentNo,
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

	s.broadcast("shipment.status_changed", map[string]interface{}{
		"shipment_id": shipment.ID.String(),
		"shipment_no": shipment.ShipmentNo,
		"status":      req.Status,
	})

	return shipment, nil
}

func (s *shipmentService) GetShipment(ctx context.Context, id string) (*model.Shipment, error) {
	shipmentID, err := uuid.Parse(id)
	if err != nil {
		return nil, newValidationError("invalid shipment id")
	}
	shipment, err := s.shipmentRepo.FindByID(ctx, shipmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("shipment not found")
		}
		return nil, fmt.Errorf("failed to load shipment: %w", err)
	}
	return shipment, nil
}

func (s *shipmentService) GetShipmentByTracking(ctx context.Context, trackingCode string) (*model.Shipment, error) {
	if trackingCode == "" {
		return nil, newValidationError("tracking code is required")
	}
	shipment, err := s.shipmentRepo.FindByTrackingCode(ctx, trackingCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("shipment not found")
		}
		return nil, fmt.Errorf("failed to load shipment: %w", err)
	}
	return shipment, nil
}

func (s *shipmentService) ListShipments(ctx context.Context, page, limit int, status string) ([]model.Shipment, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.shipmentRepo.List(ctx, page, limit, status)
}

func (s *shipmentService) ListShipmentsByOrder(ctx context.Context, orderID string) ([]model.Shipment, error) {
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, newValidationError("invalid order id")
	}
	return s.shipmentRepo.ListByOrder(ctx, oid)
}

func shipmentTransitionAllowed(from, to string) bool {
	for _, allowed := range shipmentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *shipmentService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(OrderEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}

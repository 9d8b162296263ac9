package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type OrderAddressRequest struct {
	AddressLine string `json:"address_line" binding:"required"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code" binding:"required"`
}

type CreateOrderRequest struct {
	OrderCode  string             `json:"order_code" binding:"required"`
	CustomerID string             `json:"customer_id"`
	Note       string             `json:"note"`
	Items      []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	// Address overrides the customer's default shipping address when set.
	Address *OrderAddressRequest `json:"address"`
}

type SelectShippingRateRequest struct {
	ShippingRateID string `json:"shipping_rate_id" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=DRAFT PENDING CONFIRMED SHIPPED DELIVERED CANCELLED"`
}

// allowed status transitions
var orderTransitions = map[string][]string{
	model.OrderStatusDraft:     {model.OrderStatusPending, model.OrderStatusCancelled},
	model.OrderStatusPending:   {model.OrderStatusConfirmed, model.OrderStatusCancelled},
	model.OrderStatusConfirmed: {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:   {model.OrderStatusDelivered},
}

type OrderService interface {
	CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, page, limit int, status string) ([]model.Order, int64, error)
	// SelectShippingRate prices the chosen rate against the order and persists
	// the shipping cost into the totals.
	SelectShippingRate(ctx context.Context, userID string, orderID string, req SelectShippingRateRequest) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, userID string, orderID string, status string) (*model.Order, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	shippingSvc  ShippingRateService
	rateRepo     repository.ShippingRateRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	shippingSvc ShippingRateService,
	rateRepo repository.ShippingRateRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		shippingSvc:  shippingSvc,
		rateRepo:     rateRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, userID string, req CreateOrderRequest) (*model.Order, error) {
	order := model.Order{
		OrderCode: strings.TrimSpace(req.OrderCode),
		Status:    model.OrderStatusDraft,
		Note:      req.Note,
	}

	if req.CustomerID != "" {
		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, newValidationError("invalid customer_id")
		}
		if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newValidationError("customer not found")
			}
			return nil, fmt.Errorf("failed to load customer: %w", err)
		}
		order.CustomerID = &customerID
	}

	if err := s.snapshotAddress(ctx, &order, req.Address); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		subtotal := decimal.Zero
		totalWeight := 0.0

		type lineAudit struct {
			ProductID   string `json:"product_id"`
			ProductName string `json:"product_name"`
			Quantity    int    `json:"quantity"`
			UnitPrice   string `json:"unit_price"`
		}
		var auditItems []lineAudit
		var productNames []string

		// Resolve products first so a bad item fails before the order row exists.
		type pendingItem struct {
			product  *model.Product
			quantity int
		}
		pending := make([]pendingItem, 0, len(req.Items))
		for _, itemReq := range req.Items {
			pid, parseErr := uuid.Parse(itemReq.ProductID)
			if parseErr != nil {
				return newValidationError("invalid product_id")
			}
			product, findErr := s.productRepo.FindByID(txCtx, pid)
			if findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return fmt.Errorf("product not found: %s", itemReq.ProductID)
				}
				return fmt.Errorf("failed to find product %s: %w", itemReq.ProductID, findErr)
			}
			if !product.IsActive {
				return newValidationError(fmt.Sprintf("product %s is not active", product.SKU))
			}
			pending = append(pending, pendingItem{product: product, quantity: itemReq.Quantity})
		}

		if createErr := s.orderRepo.Create(txCtx, &order); createErr != nil {
			return fmt.Errorf("failed to create order: %w", createErr)
		}

		for _, p := range pending {
			unitPrice := decimal.NewFromFloat(p.product.Price)
			item := &model.OrderItem{
				OrderID:   order.ID,
				ProductID: p.product.ID,
				Quantity:  p.quantity,
				UnitPrice: unitPrice,
			}
			if itemErr := s.orderRepo.CreateItem(txCtx, item); itemErr != nil {
				return fmt.Errorf("failed to create order item: %w", itemErr)
			}

			subtotal = subtotal.Add(item.LineTotal())
			totalWeight += p.product.Weight * float64(p.quantity)
			productNames = append(productNames, p.product.Name)
			auditItems = append(auditItems, lineAudit{
				ProductID:   p.product.ID.String(),
				ProductName: p.product.Name,
				Quantity:    p.quantity,
				UnitPrice:   unitPrice.StringFixed(2),
			})
		}

		order.Subtotal = subtotal
		order.TotalWeight = totalWeight
		order.TotalAmount = subtotal
		if updateErr := s.orderRepo.Update(txCtx, &order); updateErr != nil {
			return fmt.Errorf("failed to store order totals: %w", updateErr)
		}

		var uid *uuid.UUID
		if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
			uid = &parsed
		}
		details, _ := json.Marshal(map[string]interface{}{
			"order_code": order.OrderCode,
			"note":       req.Note,
			"items":      auditItems,
			"subtotal":   subtotal.StringFixed(2),
		})
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionCreateOrder,
			EntityID:   order.ID.String(),
			EntityName: strings.Join(productNames, ", "),
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to record audit transaction: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("order.created", map[string]interface{}{
		"order_id":   order.ID.String(),
		"order_code": order.OrderCode,
		"subtotal":   order.Subtotal.StringFixed(2),
	})

	return s.orderRepo.FindByIDWithItems(ctx, order.ID)
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, newValidationError("invalid order id")
	}
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("order not found")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, page, limit int, status string) ([]model.Order, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.orderRepo.List(ctx, page, limit, status)
}

func (s *orderService) SelectShippingRate(ctx context.Context, userID string, orderID string, req SelectShippingRateRequest) (*model.Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusDraft && order.Status != model.OrderStatusPending {
		return nil, newValidationError("shipping can only be selected on draft or pending orders")
	}

	rateID, err := uuid.Parse(req.ShippingRateID)
	if err != nil {
		return nil, newValidationError("invalid shipping_rate_id")
	}
	rate, err := s.rateRepo.FindByID(ctx, rateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newValidationError("shipping rate not found")
		}
		return nil, fmt.Errorf("failed to load shipping rate: %w", err)
	}

	// Re-price the chosen rate against the order so the stored cost cannot
	// drift from what the quote endpoint showed.
	subtotal, _ := order.Subtotal.Float64()
	weight := order.TotalWeight
	priced := s.shippingSvc.CalculateRates([]model.ShippingRate{*rate}, RateContext{
		Subtotal: subtotal,
		Weight:   &weight,
	})
	if len(priced) == 0 {
		return nil, newValidationError("shipping rate is not eligible for this order")
	}

	order.ShippingRateID = &rate.ID
	order.ShippingCost = decimal.NewFromFloat(priced[0].Cost)
	order.TotalAmount = order.Subtotal.Add(order.TaxAmount).Add(order.ShippingCost)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.orderRepo.Update(txCtx, order); updateErr != nil {
			return fmt.Errorf("failed to update order: %w", updateErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, userID string, orderID string, status string) (*model.Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(order.Status, status) {
		return nil, newValidationError(fmt.Sprintf("cannot transition order from %s to %s", order.Status, status))
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.orderRepo.UpdateStatus(txCtx, order.ID, status); updateErr != nil {
			return fmt.Errorf("failed to update order status: %w", updateErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Status = status

	s.broadcast("order.status_changed", map[string]interface{}{
		"order_id":   order.ID.String(),
		"order_code": order.OrderCode,
		"status":     status,
	})

	return order, nil
}

// snapshotAddress copies the shipping destination onto the order: either the
// explicit request address or the customer's default shipping address.
func (s *orderService) snapshotAddress(ctx context.Context, order *model.Order, addr *OrderAddressRequest) error {
	if addr != nil {
		countryCode := strings.ToUpper(strings.TrimSpace(addr.CountryCode))
		if !countryCodePattern.MatchString(countryCode) {
			return newValidationError("address country_code must be a two-letter ISO 3166-1 alpha-2 code")
		}
		order.ShipAddressLine = addr.AddressLine
		order.ShipCity = addr.City
		order.ShipState = strings.ToUpper(strings.TrimSpace(addr.State))
		order.ShipPostalCode = addr.PostalCode
		order.ShipCountryCode = countryCode
		return nil
	}

	if order.CustomerID == nil {
		return nil // draft without a destination yet
	}

	def, err := s.customerRepo.FindDefaultShippingAddress(ctx, *order.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load default shipping address: %w", err)
	}
	order.ShipAddressLine = def.AddressLine
	order.ShipCity = def.City
	order.ShipState = strings.ToUpper(strings.TrimSpace(def.State))
	order.ShipPostalCode = def.PostalCode
	order.ShipCountryCode = def.CountryCode
	return nil
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *orderService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(OrderEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}

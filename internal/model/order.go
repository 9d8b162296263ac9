package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus constants
const (
	OrderStatusDraft     = "DRAFT" // cart
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

// Order represents a customer order (or a draft cart) with a shipping address
// snapshot and persisted tax/shipping totals.
type Order struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderCode  string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"order_code"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	Customer   *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Status     string     `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`

	// Shipping address snapshot (copied from the customer's address book at checkout)
	ShipAddressLine string `gorm:"type:varchar(255)" json:"ship_address_line"`
	ShipCity        string `gorm:"type:varchar(100)" json:"ship_city"`
	ShipState       string `gorm:"type:varchar(100)" json:"ship_state"`
	ShipPostalCode  string `gorm:"type:varchar(20)" json:"ship_postal_code"`
	ShipCountryCode string `gorm:"type:varchar(2)" json:"ship_country_code"`

	// Totals. Tax fields are written by the order tax service, never by handlers.
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"subtotal"`
	TaxRegionID *uuid.UUID      `gorm:"type:uuid" json:"tax_region_id"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(10,6);not null;default:0" json:"tax_rate"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`

	ShippingRateID *uuid.UUID      `gorm:"type:uuid" json:"shipping_rate_id"`
	ShippingCost   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"shipping_cost"`

	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`
	TotalWeight float64         `gorm:"type:decimal(10,3);default:0" json:"total_weight"`

	Note      string      `gorm:"type:text" json:"note"`
	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderItem represents a line item within an Order
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   Product         `gorm:"foreignKey:ProductID" json:"-"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
}

// LineTotal returns quantity * unit price.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

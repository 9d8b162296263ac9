package model

import (
	"time"

	"github.com/google/uuid"
)

// ShipmentStatus enum constants
const (
	ShipmentPending   = "PENDING"
	ShipmentShipped   = "SHIPPED"
	ShipmentDelivered = "DELIVERED"
	ShipmentFailed    = "FAILED"
)

// Shipment represents a physical shipment for an order, carrying the selected
// shipping rate and carrier tracking state.
type Shipment struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShipmentNo     string        `gorm:"type:varchar(30);uniqueIndex;not null" json:"shipment_no"`
	OrderID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"order_id"`
	Order          *Order        `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	ShippingRateID *uuid.UUID    `gorm:"type:uuid" json:"shipping_rate_id"`
	ShippingRate   *ShippingRate `gorm:"foreignKey:ShippingRateID" json:"shipping_rate,omitempty"`
	Carrier        string        `gorm:"type:varchar(64)" json:"carrier"`
	TrackingCode   string        `gorm:"type:varchar(256);index" json:"tracking_code"`
	Status         string        `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ShippedAt      *time.Time    `json:"shipped_at"`
	DeliveredAt    *time.Time    `json:"delivered_at"`
	Note           string        `gorm:"type:text" json:"note"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

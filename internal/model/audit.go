package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateProduct = "CREATE_PRODUCT"
	ActionUpdateProduct = "UPDATE_PRODUCT"
	ActionDeleteProduct = "DELETE_PRODUCT"

	ActionCreateOrder = "CREATE_ORDER"
	ActionApplyTaxes  = "APPLY_ORDER_TAXES"

	ActionCreateTaxRegion = "CREATE_TAX_REGION"
	ActionUpdateTaxRegion = "UPDATE_TAX_REGION"
	ActionDeleteTaxRegion = "DELETE_TAX_REGION"

	ActionCreateShippingZone = "CREATE_SHIPPING_ZONE"
	ActionUpdateShippingZone = "UPDATE_SHIPPING_ZONE"
	ActionDeleteShippingZone = "DELETE_SHIPPING_ZONE"
	ActionCreateShippingRate = "CREATE_SHIPPING_RATE"
	ActionUpdateShippingRate = "UPDATE_SHIPPING_RATE"
	ActionDeleteShippingRate = "DELETE_SHIPPING_RATE"

	ActionCreateProvider = "CREATE_SHIPPING_PROVIDER"
	ActionUpdateProvider = "UPDATE_SHIPPING_PROVIDER"
	ActionDeleteProvider = "DELETE_SHIPPING_PROVIDER"

	// Claims workflow actions
	ActionCreateClaim  = "CREATE_CLAIM"
	ActionApproveClaim = "APPROVE_CLAIM"
	ActionRejectClaim  = "REJECT_CLAIM"

	ActionCreateShipment = "CREATE_SHIPMENT"
	ActionUpdateShipment = "UPDATE_SHIPMENT_STATUS"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddressType enum constants
const (
	AddressTypeBilling  = "BILLING"
	AddressTypeShipping = "SHIPPING"
)

// Customer represents a storefront customer managed through the back office
type Customer struct {
	ID        uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string            `gorm:"type:varchar(255);not null" json:"name"`
	Email     string            `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string            `gorm:"type:varchar(50)" json:"phone"`
	IsActive  bool              `gorm:"default:true" json:"is_active"`
	Addresses []CustomerAddress `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"addresses"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeletedAt gorm.DeletedAt    `gorm:"index" json:"-"`
}

// CustomerAddress represents an address book entry (Billing or Shipping).
// The fields mirror what zone matching and tax region lookup consume.
type CustomerAddress struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID  uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	AddressType string    `gorm:"type:varchar(20);not null" json:"address_type"` // BILLING, SHIPPING
	AddressLine string    `gorm:"type:varchar(255);not null" json:"address_line"`
	City        string    `gorm:"type:varchar(100)" json:"city"`
	State       string    `gorm:"type:varchar(100)" json:"state"`
	PostalCode  string    `gorm:"type:varchar(20)" json:"postal_code"`
	CountryCode string    `gorm:"type:varchar(2);not null" json:"country_code"`
	IsDefault   bool      `gorm:"default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

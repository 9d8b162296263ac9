package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product represents a sellable catalog item. ProductType feeds tax override
// matching; Weight feeds WEIGHT_BASED shipping eligibility.
type Product struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU         string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	ProductType string         `gorm:"type:varchar(100);index" json:"product_type"` // e.g. "digital", "luxury_goods"
	Price       float64        `gorm:"type:decimal(10,2);not null" json:"price"`
	Weight      float64        `gorm:"type:decimal(10,3);default:0" json:"weight"` // kg
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRegionStatus enum constants
const (
	TaxRegionStatusActive   = "active"
	TaxRegionStatusInactive = "inactive"
)

// TaxOverrideTargetType enum constants
const (
	TaxOverrideTargetProduct     = "product"
	TaxOverrideTargetProductType = "product_type"
)

// TaxRegion represents a geographic tax scope: either a country-level region or a
// subdivision (state/province) pointing back to its country-level parent.
// SubdivisionCode is set iff ParentRegionID is set.
type TaxRegion struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string     `gorm:"type:varchar(255);not null" json:"name"`
	CountryCode     string     `gorm:"type:varchar(2);not null;index" json:"country_code"`            // ISO 3166-1 alpha-2, uppercase
	SubdivisionCode *string    `gorm:"type:varchar(10);index" json:"subdivision_code"`                // "{country}-{state}", e.g. US-CA
	Status          string     `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	IsDefault       bool       `gorm:"default:false" json:"is_default"` // fallback region for its country
	ParentRegionID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_region_id"`
	Parent          *TaxRegion `gorm:"foreignKey:ParentRegionID" json:"parent,omitempty"`

	// Base rate descriptor. Rate is nullable: a region without a default rate is valid.
	DefaultTaxRateName          string           `gorm:"type:varchar(255)" json:"default_tax_rate_name"`
	DefaultTaxRate              *decimal.Decimal `gorm:"type:decimal(10,6)" json:"default_tax_rate"` // fraction, 0.075 = 7.5%
	DefaultTaxCode              string           `gorm:"type:varchar(50)" json:"default_tax_code"`
	DefaultCombinableWithParent bool             `gorm:"default:false" json:"default_combinable_with_parent"`

	Overrides []TaxRateOverride `gorm:"foreignKey:RegionID;constraint:OnDelete:CASCADE" json:"overrides"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaxRateOverride replaces the region's default rate for matching products.
// Overrides are evaluated in Position order and the first match wins.
type TaxRateOverride struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RegionID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"region_id"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	Rate       decimal.Decimal `gorm:"type:decimal(10,6);not null" json:"rate"`
	Code       string          `gorm:"type:varchar(50)" json:"code"`
	Combinable bool            `gorm:"default:false" json:"combinable"` // stored but currently replace-only
	Position   int             `gorm:"not null;default:0" json:"position"`

	Targets []TaxOverrideTarget `gorm:"foreignKey:OverrideID;constraint:OnDelete:CASCADE" json:"targets"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaxOverrideTarget binds an override to a product or a product type.
type TaxOverrideTarget struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OverrideID uuid.UUID `gorm:"type:uuid;not null;index" json:"override_id"`
	TargetType string    `gorm:"type:varchar(20);not null" json:"target_type"` // product, product_type
	TargetID   string    `gorm:"type:varchar(100);not null" json:"target_id"`  // product uuid or product type code
}

// MatchesProduct reports whether any of the override's targets applies to the
// given product id / product type.
func (o *TaxRateOverride) MatchesProduct(productID, productType string) bool {
	for _, t := range o.Targets {
		switch t.TargetType {
		case TaxOverrideTargetProduct:
			if productID != "" && t.TargetID == productID {
				return true
			}
		case TaxOverrideTargetProductType:
			if productType != "" && t.TargetID == productType {
				return true
			}
		}
	}
	return false
}

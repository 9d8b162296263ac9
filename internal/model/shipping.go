package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ShippingRateType enum constants — mutually exclusive pricing strategies
const (
	ShippingRateFlat       = "FLAT_RATE"
	ShippingRateWeight     = "WEIGHT_BASED"
	ShippingRatePrice      = "PRICE_BASED"
	ShippingRateFree       = "FREE"
	ShippingRateCalculated = "CALCULATED"
)

// PostalWildcard matches any postal code when present in a zone's postal_codes set.
const PostalWildcard = "*"

// ShippingZone is a geographic match pattern used to select candidate shipping rates.
// Empty pattern sets act as wildcards for their dimension, except countries which
// must contain the address country.
type ShippingZone struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Countries   pq.StringArray `gorm:"type:text[]" json:"countries"`    // ISO alpha-2, uppercase
	States      pq.StringArray `gorm:"type:text[]" json:"states"`       // empty = wildcard
	Cities      pq.StringArray `gorm:"type:text[]" json:"cities"`       // empty = wildcard, matched case-insensitively
	PostalCodes pq.StringArray `gorm:"type:text[]" json:"postal_codes"` // prefixes, or "*"
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`
	Priority    int            `gorm:"default:0" json:"priority"` // higher preferred

	Rates []ShippingRate `gorm:"foreignKey:ShippingZoneID;constraint:OnDelete:CASCADE" json:"rates,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ShippingRate is a priced shipping option tied to a zone. Only the parameters of
// its Type are populated; the rest stay NULL.
type ShippingRate struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ShippingZoneID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"shipping_zone_id"`
	ShippingProviderID *uuid.UUID `gorm:"type:uuid;index" json:"shipping_provider_id"` // required for CALCULATED
	Name               string     `gorm:"type:varchar(255);not null" json:"name"`
	Type               string     `gorm:"type:varchar(20);not null" json:"type"`

	FlatRate *float64 `gorm:"type:decimal(10,2)" json:"flat_rate"`

	WeightRate *float64 `gorm:"type:decimal(10,2)" json:"weight_rate"` // per weight unit
	MinWeight  *float64 `gorm:"type:decimal(10,2)" json:"min_weight"`
	MaxWeight  *float64 `gorm:"type:decimal(10,2)" json:"max_weight"`

	PriceRate *float64 `gorm:"type:decimal(10,2)" json:"price_rate"` // percentage of subtotal
	MinPrice  *float64 `gorm:"type:decimal(10,2)" json:"min_price"`
	MaxPrice  *float64 `gorm:"type:decimal(10,2)" json:"max_price"`

	FreeShippingThreshold *float64 `gorm:"type:decimal(10,2)" json:"free_shipping_threshold"`

	MinDeliveryDays int `gorm:"default:1" json:"min_delivery_days"`
	MaxDeliveryDays int `gorm:"default:7" json:"max_delivery_days"`

	IsActive bool `gorm:"default:true;index" json:"is_active"`
	Priority int  `gorm:"default:0" json:"priority"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ShippingProvider holds the configuration of a real-time carrier integration
// (UPS/FedEx-style). CALCULATED rates defer to the provider's adapter.
type ShippingProvider struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name               string         `gorm:"type:varchar(255);not null" json:"name"`
	Code               string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g. "ups", "fedex"
	BaseURL            string         `gorm:"type:text" json:"base_url"`
	APIKey             string         `gorm:"type:text" json:"-"` // never exposed in JSON
	IsTestMode         bool           `gorm:"default:true" json:"is_test_mode"`
	IsActive           bool           `gorm:"default:true;index" json:"is_active"`
	SupportedCountries pq.StringArray `gorm:"type:text[]" json:"supported_countries"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasCredentials reports whether the provider can be used for live rate calls.
func (p *ShippingProvider) HasCredentials() bool {
	return p.APIKey != "" && p.BaseURL != ""
}

// Package carrier defines the adapter contract for real-time shipping carriers
// (UPS/FedEx-style). CALCULATED shipping rates defer to an Adapter; everything
// else in the rate engine is computed locally.
package carrier

import (
	"context"
	"errors"
	"fmt"
)

// Credentials carries what an adapter needs to call the carrier API.
type Credentials struct {
	APIKey   string
	BaseURL  string
	TestMode bool
}

// Address is the minimal address shape carriers accept for rating.
type Address struct {
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
}

// Package describes one parcel to rate.
type Package struct {
	WeightKg float64 `json:"weight_kg"`
	LengthCm float64 `json:"length_cm,omitempty"`
	WidthCm  float64 `json:"width_cm,omitempty"`
	HeightCm float64 `json:"height_cm,omitempty"`
}

// RateRequest asks the carrier to price a shipment.
type RateRequest struct {
	FromAddress Address   `json:"from_address"`
	ToAddress   Address   `json:"to_address"`
	Packages    []Package `json:"packages"`
	Services    []string  `json:"services,omitempty"` // empty = all services
}

// Rate is a single carrier quote.
type Rate struct {
	Provider      string  `json:"provider"`
	ServiceLevel  string  `json:"service_level"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	EstimatedDays int     `json:"estimated_days"`
	RateID        string  `json:"rate_id"`
}

// ConnectionStatus is the outcome of a credentials check.
type ConnectionStatus struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Adapter is the uniform contract every carrier integration implements.
type Adapter interface {
	TestConnection(ctx context.Context, creds Credentials) (ConnectionStatus, error)
	GetRates(ctx context.Context, creds Credentials, req RateRequest) ([]Rate, error)
}

// ErrMissingCredentials signals an unusable provider configuration.
var ErrMissingCredentials = errors.New("carrier credentials are not configured")

// ProviderError wraps a carrier-side failure so callers can distinguish it
// from local errors (rendered as 502 at the handler).
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("carrier %s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("carrier %s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError reports whether err originated from a carrier adapter.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

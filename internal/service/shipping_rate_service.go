package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"backend/internal/carrier"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

// ShippingAddress is the destination being quoted.
type ShippingAddress struct {
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code" binding:"required"`
}

type ShippingQuoteRequest struct {
	Address  ShippingAddress `json:"address" binding:"required"`
	Subtotal float64         `json:"subtotal" binding:"min=0"`
	Weight   *float64        `json:"weight"` // total weight; nil excludes WEIGHT_BASED rates
	// IncludeCalculated additionally fetches live quotes for CALCULATED rates
	// via the carrier adapter. Off by default: carrier calls are slow.
	IncludeCalculated bool `json:"include_calculated"`
}

// RateContext is the computation context a candidate rate is evaluated against.
type RateContext struct {
	Subtotal float64
	Weight   *float64
}

// PricedRate is one usable shipping option.
type PricedRate struct {
	RateID          string  `json:"rate_id"`
	Name            string  `json:"name"`
	Cost            float64 `json:"cost"`
	MinDeliveryDays int     `json:"min_delivery_days"`
	MaxDeliveryDays int     `json:"max_delivery_days"`
	ZoneID          string  `json:"zone_id"`
	Carrier         string  `json:"carrier,omitempty"` // set for live carrier quotes
}

type ShippingQuoteResponse struct {
	Rates   []PricedRate `json:"rates"`
	Message string       `json:"message,omitempty"` // set when no rates are available
}

// --- Interface ---

// ShippingRateService matches shipping zones against an address and prices the
// zones' rates for a cart context.
type ShippingRateService interface {
	QuoteShippingRates(ctx context.Context, req ShippingQuoteRequest) (*ShippingQuoteResponse, error)
	FindMatchingZones(ctx context.Context, address ShippingAddress) ([]model.ShippingZone, error)
	// CalculateRates is the pure rate evaluation: eligibility gating, per-type
	// cost, threshold override, ascending stable sort. Exposed for reuse by
	// the order flow.
	CalculateRates(rates []model.ShippingRate, rctx RateContext) []PricedRate
}

type shippingRateService struct {
	zoneRepo     repository.ShippingZoneRepository
	rateRepo     repository.ShippingRateRepository
	providerRepo repository.ShippingProviderRepository
	adapter      carrier.Adapter
}

func NewShippingRateService(
	zoneRepo repository.ShippingZoneRepository,
	rateRepo repository.ShippingRateRepository,
	providerRepo repository.ShippingProviderRepository,
	adapter carrier.Adapter,
) ShippingRateService {
	return &shippingRateService{
		zoneRepo:     zoneRepo,
		rateRepo:     rateRepo,
		providerRepo: providerRepo,
		adapter:      adapter,
	}
}

// --- Implementation ---

func (s *shippingRateService) QuoteShippingRates(ctx context.Context, req ShippingQuoteRequest) (*ShippingQuoteResponse, error) {
	countryCode := strings.ToUpper(strings.TrimSpace(req.Address.CountryCode))
	if !countryCodePattern.MatchString(countryCode) {
		return nil, newValidationError("address country_code must be a two-letter ISO 3166-1 alpha-2 code")
	}
	if req.Subtotal < 0 {
		return nil, newValidationError("subtotal must not be negative")
	}
	if req.Weight != nil && *req.Weight < 0 {
		return nil, newValidationError("weight must not be negative")
	}
	req.Address.CountryCode = countryCode

	zones, err := s.FindMatchingZones(ctx, req.Address)
	if err != nil {
		return nil, err
	}
	if len(zones) == 0 {
		return &ShippingQuoteResponse{Rates: []PricedRate{}, Message: "no shipping available for this address"}, nil
	}

	zoneIDs := make([]uuid.UUID, 0, len(zones))
	for _, z := range zones {
		zoneIDs = append(zoneIDs, z.ID)
	}

	candidates, err := s.rateRepo.ListActiveByZoneIDs(ctx, zoneIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipping rates: %w", err)
	}

	priced := s.CalculateRates(candidates, RateContext{Subtotal: req.Subtotal, Weight: req.Weight})

	if req.IncludeCalculated {
		live, err := s.fetchCalculatedRates(ctx, candidates, req)
		if err != nil {
			return nil, err
		}
		priced = append(priced, live...)
		sort.SliceStable(priced, func(i, j int) bool { return priced[i].Cost < priced[j].Cost })
	}

	if len(priced) == 0 {
		return &ShippingQuoteResponse{Rates: []PricedRate{}, Message: "no shipping rates match this order"}, nil
	}

	return &ShippingQuoteResponse{Rates: priced}, nil
}

// FindMatchingZones returns every active zone matching the address, most
// specific constraints first by zone priority (descending, stable). Country
// membership is mandatory; empty state/city/postal sets act as wildcards.
func (s *shippingRateService) FindMatchingZones(ctx context.Context, address ShippingAddress) ([]model.ShippingZone, error) {
	countryCode := strings.ToUpper(strings.TrimSpace(address.CountryCode))

	zones, err := s.zoneRepo.ListActiveByCountry(ctx, countryCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipping zones: %w", err)
	}

	matched := make([]model.ShippingZone, 0, len(zones))
	for _, zone := range zones {
		if !zoneMatchesState(zone, address.State) {
			continue
		}
		if !zoneMatchesCity(zone, address.City) {
			continue
		}
		if !zoneMatchesPostalCode(zone, address.PostalCode) {
			continue
		}
		matched = append(matched, zone)
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Priority > matched[j].Priority })
	return matched, nil
}

func zoneMatchesState(zone model.ShippingZone, state string) bool {
	if state == "" || len(zone.States) == 0 {
		return true
	}
	for _, s := range zone.States {
		if strings.EqualFold(s, state) {
			return true
		}
	}
	return false
}

func zoneMatchesCity(zone model.ShippingZone, city string) bool {
	if city == "" || len(zone.Cities) == 0 {
		return true
	}
	for _, c := range zone.Cities {
		if strings.EqualFold(c, city) {
			return true
		}
	}
	return false
}

func zoneMatchesPostalCode(zone model.ShippingZone, postalCode string) bool {
	if postalCode == "" || len(zone.PostalCodes) == 0 {
		return true
	}
	for _, pattern := range zone.PostalCodes {
		if pattern == model.PostalWildcard || strings.HasPrefix(postalCode, pattern) {
			return true
		}
	}
	return false
}

// CalculateRates evaluates each candidate against the context. Ineligible
// rates are skipped, never errors. CALCULATED rates are excluded here: live
// carrier pricing is a separate, explicitly requested path.
func (s *shippingRateService) CalculateRates(rates []model.ShippingRate, rctx RateContext) []PricedRate {
	priced := make([]PricedRate, 0, len(rates))

	for _, rate := range rates {
		if !rate.IsActive {
			continue
		}

		cost, eligible := evaluateRate(rate, rctx)
		if !eligible {
			continue
		}

		// Threshold override beats the computed cost for every type.
		if rate.FreeShippingThreshold != nil && rctx.Subtotal >= *rate.FreeShippingThreshold {
			cost = 0
		}

		priced = append(priced, PricedRate{
			RateID:          rate.ID.String(),
			Name:            rate.Name,
			Cost:            cost,
			MinDeliveryDays: rate.MinDeliveryDays,
			MaxDeliveryDays: rate.MaxDeliveryDays,
			ZoneID:          rate.ShippingZoneID.String(),
		})
	}

	sort.SliceStable(priced, func(i, j int) bool { return priced[i].Cost < priced[j].Cost })
	return priced
}

// evaluateRate applies one pricing strategy. The second return value is false
// when the rate's preconditions are not met for this context.
func evaluateRate(rate model.ShippingRate, rctx RateContext) (float64, bool) {
	switch rate.Type {
	case model.ShippingRateFlat:
		if rate.FlatRate == nil {
			return 0, true
		}
		return *rate.FlatRate, true

	case model.ShippingRateWeight:
		if rctx.Weight == nil {
			return 0, false
		}
		w := *rctx.Weight
		if rate.MinWeight != nil && w < *rate.MinWeight {
			return 0, false
		}
		if rate.MaxWeight != nil && w > *rate.MaxWeight {
			return 0, false
		}
		if rate.WeightRate == nil {
			return 0, true
		}
		return *rate.WeightRate * w, true

	case model.ShippingRatePrice:
		if rate.MinPrice != nil && rctx.Subtotal < *rate.MinPrice {
			return 0, false
		}
		if rate.MaxPrice != nil && rctx.Subtotal > *rate.MaxPrice {
			return 0, false
		}
		if rate.PriceRate == nil {
			return 0, true
		}
		return rctx.Subtotal * (*rate.PriceRate / 100), true

	case model.ShippingRateFree:
		if rate.FreeShippingThreshold == nil || rctx.Subtotal < *rate.FreeShippingThreshold {
			return 0, false
		}
		return 0, true

	case model.ShippingRateCalculated:
		// Live carrier pricing is never part of the local evaluation.
		return 0, false
	}

	return 0, false
}

// fetchCalculatedRates prices CALCULATED candidates through their providers'
// carrier adapters. Adapter failures propagate as ProviderError.
func (s *shippingRateService) fetchCalculatedRates(ctx context.Context, candidates []model.ShippingRate, req ShippingQuoteRequest) ([]PricedRate, error) {
	var priced []PricedRate

	for _, rate := range candidates {
		if rate.Type != model.ShippingRateCalculated || !rate.IsActive || rate.ShippingProviderID == nil {
			continue
		}

		provider, err := s.providerRepo.FindByID(ctx, *rate.ShippingProviderID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up shipping provider: %w", err)
		}
		if !provider.IsActive || !provider.HasCredentials() {
			continue
		}

		weight := 0.0
		if req.Weight != nil {
			weight = *req.Weight
		}

		quotes, err := s.adapter.GetRates(ctx, carrier.Credentials{
			APIKey:   provider.APIKey,
			BaseURL:  provider.BaseURL,
			TestMode: provider.IsTestMode,
		}, carrier.RateRequest{
			ToAddress: carrier.Address{
				AddressLine: req.Address.AddressLine,
				City:        req.Address.City,
				State:       req.Address.State,
				PostalCode:  req.Address.PostalCode,
				CountryCode: req.Address.CountryCode,
			},
			Packages: []carrier.Package{{WeightKg: weight}},
		})
		if err != nil {
			return nil, err
		}

		for _, q := range quotes {
			priced = append(priced, PricedRate{
				RateID:          rate.ID.String(),
				Name:            rate.Name + " - " + q.ServiceLevel,
				Cost:            q.Amount,
				MinDeliveryDays: q.EstimatedDays,
				MaxDeliveryDays: q.EstimatedDays,
				ZoneID:          rate.ShippingZoneID.String(),
				Carrier:         q.Provider,
			})
		}
	}

	return priced, nil
}

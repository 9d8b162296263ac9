package service

import (
	"context"
	"testing"

	"backend/internal/carrier"
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShippingService(zones []model.ShippingZone, rates []model.ShippingRate, providers []*model.ShippingProvider, adapter carrier.Adapter) ShippingRateService {
	if adapter == nil {
		adapter = carrier.NewMockAdapter()
	}
	return NewShippingRateService(
		&fakeShippingZoneRepo{zones: zones},
		&fakeShippingRateRepo{rates: rates},
		&fakeProviderRepo{providers: providers},
		adapter,
	)
}

func usAddress() ShippingAddress {
	return ShippingAddress{
		AddressLine: "1 Market St",
		City:        "San Francisco",
		State:       "CA",
		PostalCode:  "94105",
		CountryCode: "US",
	}
}

func TestFindMatchingZones_CountryMembershipIsMandatory(t *testing.T) {
	usZone := model.ShippingZone{ID: uuid.New(), Name: "US", Countries: pq.StringArray{"US"}, IsActive: true}
	euZone := model.ShippingZone{ID: uuid.New(), Name: "EU", Countries: pq.StringArray{"DE", "FR"}, IsActive: true}
	svc := newShippingService([]model.ShippingZone{usZone, euZone}, nil, nil, nil)

	zones, err := svc.FindMatchingZones(context.Background(), usAddress())
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, usZone.ID, zones[0].ID)
}

func TestFindMatchingZones_EmptyPatternSetsAreWildcards(t *testing.T) {
	zone := model.ShippingZone{
		ID:        uuid.New(),
		Name:      "US anywhere",
		Countries: pq.StringArray{"US"},
		IsActive:  true,
		// States, Cities, PostalCodes empty: match everything
	}
	svc := newShippingService([]model.ShippingZone{zone}, nil, nil, nil)

	zones, err := svc.FindMatchingZones(context.Background(), usAddress())
	require.NoError(t, err)
	assert.Len(t, zones, 1)
}

func TestFindMatchingZones_StateAndCityMatchCaseInsensitively(t *testing.T) {
	zone := model.ShippingZone{
		ID:        uuid.New(),
		Countries: pq.StringArray{"US"},
		States:    pq.StringArray{"CA"},
		Cities:    pq.StringArray{"SAN FRANCISCO"},
		IsActive:  true,
	}
	svc := newShippingService([]model.ShippingZone{zone}, nil, nil, nil)

	addr := usAddress()
	addr.State = "ca"
	addr.City = "San Francisco"
	zones, err := svc.FindMatchingZones(context.Background(), addr)
	require.NoError(t, err)
	assert.Len(t, zones, 1)

	addr.City = "Los Angeles"
	zones, err = svc.FindMatchingZones(context.Background(), addr)
	require.NoError(t, err)
	assert.Empty(t, zones)
}

func TestFindMatchingZones_PostalCodePrefixAndWildcard(t *testing.T) {
	prefixZone := model.ShippingZone{
		ID:          uuid.New(),
		Countries:   pq.StringArray{"US"},
		PostalCodes: pq.StringArray{"941"},
		IsActive:    true,
	}
	wildcardZone := model.ShippingZone{
		ID:          uuid.New(),
		Countries:   pq.StringArray{"US"},
		PostalCodes: pq.StringArray{model.PostalWildcard},
		IsActive:    true,
	}
	svc := newShippingService([]model.ShippingZone{prefixZone, wildcardZone}, nil, nil, nil)

	zones, err := svc.FindMatchingZones(context.Background(), usAddress()) // 94105
	require.NoError(t, err)
	assert.Len(t, zones, 2)

	addr := usAddress()
	addr.PostalCode = "10001"
	zones, err = svc.FindMatchingZones(context.Background(), addr)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, wildcardZone.ID, zones[0].ID)
}

func TestFindMatchingZones_SortedByPriorityDescending(t *testing.T) {
	low := model.ShippingZone{ID: uuid.New(), Name: "low", Countries: pq.StringArray{"US"}, IsActive: true, Priority: 1}
	high := model.ShippingZone{ID: uuid.New(), Name: "high", Countries: pq.StringArray{"US"}, IsActive: true, Priority: 10}
	svc := newShippingService([]model.ShippingZone{low, high}, nil, nil, nil)

	zones, err := svc.FindMatchingZones(context.Background(), usAddress())
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "high", zones[0].Name)
	assert.Equal(t, "low", zones[1].Name)
}

func TestCalculateRates_FlatRate(t *testing.T) {
	zoneID := uuid.New()
	svc := newShippingService(nil, nil, nil, nil)

	rates := []model.ShippingRate{
		{ID: uuid.New(), ShippingZoneID: zoneID, Name: "Standard", Type: model.ShippingRateFlat, FlatRate: float64Ptr(9.99), IsActive: true},
		{ID: uuid.New(), ShippingZoneID: zoneID, Name: "Unset", Type: model.ShippingRateFlat, IsActive: true},
	}
	priced := svc.CalculateRates(rates, RateContext{Subtotal: 50})
	require.Len(t, priced, 2)

	// Nil flat rate prices at zero and sorts first.
	assert.Equal(t, "Unset", priced[0].Name)
	assert.Equal(t, 0.0, priced[0].Cost)
	assert.Equal(t, 9.99, priced[1].Cost)
}

func TestCalculateRates_WeightBased(t *testing.T) {
	zoneID := uuid.New()
	svc := newShippingService(nil, nil, nil, nil)
	rate := model.ShippingRate{
		ID:             uuid.New(),
		ShippingZoneID: zoneID,
		Name:           "By weight",
		Type:           model.ShippingRateWeight,
		WeightRate:     float64Ptr(2.5),
		MinWeight:      float64Ptr(1),
		MaxWeight:      float64Ptr(10),
		IsActive:       true,
	}

	// No weight in context: ineligible, not an error.
	priced := svc.CalculateRates([]model.ShippingRate{rate}, RateContext{Subtotal: 50})
	assert.Empty(t, priced)

	// Below min and above max: ineligible.
	priced = svc.CalculateRates([]model.ShippingRate{rate}, RateContext{Subtotal: 50, Weight: float64Ptr(0.5)})
	assert.Empty(t, priced)
	priced = svc.CalculateRates([]model.ShippingRate{rate}, RateContext{Subtotal: 50, Weight: float64Ptr(11)})
	assert.Empty(t, priced)

	// In range: weight * rate.
	priced = svc.CalculateRates([]model.ShippingRate{rate}, RateContext{Subtotal: 50, Weight: float64Ptr(4)})
	require.Len(t, priced, 1)
	assert.Equal(t, 10.0, priced[0].Cost)
}

func TestCalculateRates_PriceBased(t *testing.T) {
	zoneID := uuid.New()
	svc := newShippingService(nil, nil, nil, nil)
	rate := model.ShippingRate{
		ID:             uuid.New(),
		ShippingZoneID: zoneID,
		Name:           "Percent of subtotal",
		Type:           model.ShippingRatePrice,
		PriceRate:      float64Ptr(10), // 10%
		MinPrice:       float64Ptr(20),
		MaxPrice:       float64Ptr(200),
		IsActive:       true,
	}

	priced := svc.CalculateRates([]model.ShippingRate{rate}, RateContext{Subtotal: 10})
	assert.Empty(t, priced)
	priced = svc.CalculateRates([]model.ShippingRate{rate}, RateContext{Subtotal: 500})
	assert.Empty(t, priced)

	priced = svc.CalculateRates([]model.ShippingRate{rate}, RateContext{Subtotal: 100})
	require.Len(t, priced, 1)
	assert.Equal(t, 10.0, priced[0].Cost)
}

func TestCalculateRates_FreeRequiresThreshold(t *testing.T) {
	zoneID := uuid.New()
	svc := newShippingService(nil, nil, nil, nil)
	rate := model.ShippingRate{
		ID:                    uuid.New(),
		ShippingZoneID:        zoneID,
		Name:                  "Free over 50",
		Type:                  model.ShippingRateFree,
		FreeShippingThreshold: float64Ptr(50),
		IsActive:              true,
	}

	priced := svc.CalculateRates([]model.ShippingRate{rate}, RateContext{Subtotal: 49.99})
	assert.Empty(t, priced)

	priced = svc.CalculateRates([]model.ShippingRate{rate}, RateContext{Subtotal: 50})
	require.Len(t, priced, 1)
	assert.Equal(t, 0.0, priced[0].Cost)

	// A FREE rate without a threshold can never apply.
	rate.FreeShippingThreshold = nil
	priced = svc.CalculateRates([]model.ShippingRate{rate}, RateContext{Subtotal: 1000})
	assert.Empty(t, priced)
}

func TestCalculateRates_ThresholdOverridesComputedCost(t *testing.T) {
	zoneID := uuid.New()
	svc := newShippingService(nil, nil, nil, nil)
	rate := model.ShippingRate{
		ID:                    uuid.New(),
		ShippingZoneID:        zoneID,
		Name:                  "Flat, free over 100",
		Type:                  model.ShippingRateFlat,
		FlatRate:              float64Ptr(15),
		FreeShippingThreshold: float64Ptr(100),
		IsActive:              true,
	}

	priced := svc.CalculateRates([]model.ShippingRate{rate}, RateContext{Subtotal: 99})
	require.Len(t, priced, 1)
	assert.Equal(t, 15.0, priced[0].Cost)

	priced = svc.CalculateRates([]model.ShippingRate{rate}, RateContext{Subtotal: 100})
	require.Len(t, priced, 1)
	assert.Equal(t, 0.0, priced[0].Cost)
}

func TestCalculateRates_SkipsInactiveAndCalculated(t *testing.T) {
	zoneID := uuid.New()
	svc := newShippingService(nil, nil, nil, nil)
	providerID := uuid.New()
	rates := []model.ShippingRate{
		{ID: uuid.New(), ShippingZoneID: zoneID, Name: "Inactive", Type: model.ShippingRateFlat, FlatRate: float64Ptr(5), IsActive: false},
		{ID: uuid.New(), ShippingZoneID: zoneID, Name: "Live", Type: model.ShippingRateCalculated, ShippingProviderID: &providerID, IsActive: true},
		{ID: uuid.New(), ShippingZoneID: zoneID, Name: "Flat", Type: model.ShippingRateFlat, FlatRate: float64Ptr(7), IsActive: true},
	}

	priced := svc.CalculateRates(rates, RateContext{Subtotal: 50})
	require.Len(t, priced, 1)
	assert.Equal(t, "Flat", priced[0].Name)
}

func TestCalculateRates_SortedByCostAscending(t *testing.T) {
	zoneID := uuid.New()
	svc := newShippingService(nil, nil, nil, nil)
	rates := []model.ShippingRate{
		{ID: uuid.New(), ShippingZoneID: zoneID, Name: "Express", Type: model.ShippingRateFlat, FlatRate: float64Ptr(25), IsActive: true},
		{ID: uuid.New(), ShippingZoneID: zoneID, Name: "Standard", Type: model.ShippingRateFlat, FlatRate: float64Ptr(10), IsActive: true},
		{ID: uuid.New(), ShippingZoneID: zoneID, Name: "Economy", Type: model.ShippingRateFlat, FlatRate: float64Ptr(5), IsActive: true},
	}

	priced := svc.CalculateRates(rates, RateContext{Subtotal: 50})
	require.Len(t, priced, 3)
	assert.Equal(t, []string{"Economy", "Standard", "Express"}, []string{priced[0].Name, priced[1].Name, priced[2].Name})
}

func TestQuoteShippingRates_NoZonesReturnsMessageNotError(t *testing.T) {
	svc := newShippingService(nil, nil, nil, nil)

	quote, err := svc.QuoteShippingRates(context.Background(), ShippingQuoteRequest{
		Address:  usAddress(),
		Subtotal: 50,
	})
	require.NoError(t, err)
	require.NotNil(t, quote)
	assert.Empty(t, quote.Rates)
	assert.NotEmpty(t, quote.Message)
}

func TestQuoteShippingRates_EndToEnd(t *testing.T) {
	zone := model.ShippingZone{ID: uuid.New(), Name: "US", Countries: pq.StringArray{"US"}, IsActive: true}
	rates := []model.ShippingRate{
		{ID: uuid.New(), ShippingZoneID: zone.ID, Name: "Standard", Type: model.ShippingRateFlat, FlatRate: float64Ptr(9.99), IsActive: true, MinDeliveryDays: 3, MaxDeliveryDays: 7},
		{ID: uuid.New(), ShippingZoneID: zone.ID, Name: "Free over 50", Type: model.ShippingRateFree, FreeShippingThreshold: float64Ptr(50), IsActive: true},
	}
	svc := newShippingService([]model.ShippingZone{zone}, rates, nil, nil)

	quote, err := svc.QuoteShippingRates(context.Background(), ShippingQuoteRequest{
		Address:  usAddress(),
		Subtotal: 60,
	})
	require.NoError(t, err)
	require.Len(t, quote.Rates, 2)
	assert.Equal(t, "Free over 50", quote.Rates[0].Name)
	assert.Equal(t, 0.0, quote.Rates[0].Cost)
	assert.Equal(t, 9.99, quote.Rates[1].Cost)
	assert.Equal(t, zone.ID.String(), quote.Rates[1].ZoneID)
}

func TestQuoteShippingRates_RejectsInvalidInput(t *testing.T) {
	svc := newShippingService(nil, nil, nil, nil)

	_, err := svc.QuoteShippingRates(context.Background(), ShippingQuoteRequest{
		Address:  ShippingAddress{CountryCode: "USA"},
		Subtotal: 10,
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = svc.QuoteShippingRates(context.Background(), ShippingQuoteRequest{
		Address:  usAddress(),
		Subtotal: -1,
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestQuoteShippingRates_IncludeCalculatedMergesLiveQuotes(t *testing.T) {
	zone := model.ShippingZone{ID: uuid.New(), Countries: pq.StringArray{"US"}, IsActive: true}
	provider := &model.ShippingProvider{
		ID:       uuid.New(),
		Name:     "UPS",
		Code:     "ups",
		BaseURL:  "https://api.example.test",
		APIKey:   "key",
		IsActive: true,
	}
	providerID := provider.ID
	rates := []model.ShippingRate{
		{ID: uuid.New(), ShippingZoneID: zone.ID, Name: "Standard", Type: model.ShippingRateFlat, FlatRate: float64Ptr(20), IsActive: true},
		{ID: uuid.New(), ShippingZoneID: zone.ID, Name: "UPS Live", Type: model.ShippingRateCalculated, ShippingProviderID: &providerID, IsActive: true},
	}
	adapter := carrier.NewMockAdapter(
		carrier.Rate{Provider: "ups", ServiceLevel: "Ground", Amount: 12.5, Currency: "USD", EstimatedDays: 4},
	)
	svc := newShippingService([]model.ShippingZone{zone}, rates, []*model.ShippingProvider{provider}, adapter)

	quote, err := svc.QuoteShippingRates(context.Background(), ShippingQuoteRequest{
		Address:           usAddress(),
		Subtotal:          60,
		Weight:            float64Ptr(2),
		IncludeCalculated: true,
	})
	require.NoError(t, err)
	require.Len(t, quote.Rates, 2)

	// Live quote sorts between/under local rates by cost.
	assert.Equal(t, "UPS Live - Ground", quote.Rates[0].Name)
	assert.Equal(t, 12.5, quote.Rates[0].Cost)
	assert.Equal(t, "ups", quote.Rates[0].Carrier)
	assert.Equal(t, 20.0, quote.Rates[1].Cost)
}

func TestQuoteShippingRates_CarrierFailurePropagatesAsProviderError(t *testing.T) {
	zone := model.ShippingZone{ID: uuid.New(), Countries: pq.StringArray{"US"}, IsActive: true}
	provider := &model.ShippingProvider{
		ID:       uuid.New(),
		Code:     "ups",
		BaseURL:  "https://api.example.test",
		APIKey:   "key",
		IsActive: true,
	}
	providerID := provider.ID
	rates := []model.ShippingRate{
		{ID: uuid.New(), ShippingZoneID: zone.ID, Name: "UPS Live", Type: model.ShippingRateCalculated, ShippingProviderID: &providerID, IsActive: true},
	}
	adapter := carrier.NewMockAdapter()
	adapter.RatesErr = &carrier.ProviderError{Provider: "ups", Message: "gateway timeout"}
	svc := newShippingService([]model.ShippingZone{zone}, rates, []*model.ShippingProvider{provider}, adapter)

	_, err := svc.QuoteShippingRates(context.Background(), ShippingQuoteRequest{
		Address:           usAddress(),
		Subtotal:          60,
		IncludeCalculated: true,
	})
	require.Error(t, err)
	assert.True(t, carrier.IsProviderError(err))
}

func TestQuoteShippingRates_SkipsProvidersWithoutCredentials(t *testing.T) {
	zone := model.ShippingZone{ID: uuid.New(), Countries: pq.StringArray{"US"}, IsActive: true}
	provider := &model.ShippingProvider{ID: uuid.New(), Code: "ups", IsActive: true} // no credentials
	providerID := provider.ID
	rates := []model.ShippingRate{
		{ID: uuid.New(), ShippingZoneID: zone.ID, Name: "UPS Live", Type: model.ShippingRateCalculated, ShippingProviderID: &providerID, IsActive: true},
	}
	svc := newShippingService([]model.ShippingZone{zone}, rates, []*model.ShippingProvider{provider}, nil)

	quote, err := svc.QuoteShippingRates(context.Background(), ShippingQuoteRequest{
		Address:           usAddress(),
		Subtotal:          60,
		IncludeCalculated: true,
	})
	require.NoError(t, err)
	assert.Empty(t, quote.Rates)
	assert.NotEmpty(t, quote.Message)
}

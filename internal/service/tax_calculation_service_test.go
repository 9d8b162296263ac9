package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringPtr(s string) *string {
	return &s
}

// usHierarchy builds a country-level US default region (5%) and a US-CA
// subdivision (7.25%) pointing back to it.
func usHierarchy(combinable bool) (*model.TaxRegion, *model.TaxRegion) {
	us := &model.TaxRegion{
		ID:                 uuid.New(),
		Name:               "United States",
		CountryCode:        "US",
		Status:             model.TaxRegionStatusActive,
		IsDefault:          true,
		DefaultTaxRateName: "US Federal Tax",
		DefaultTaxRate:     decimalPtr("0.05"),
	}
	parentID := us.ID
	ca := &model.TaxRegion{
		ID:                          uuid.New(),
		Name:                        "California",
		CountryCode:                 "US",
		SubdivisionCode:             stringPtr("US-CA"),
		Status:                      model.TaxRegionStatusActive,
		ParentRegionID:              &parentID,
		DefaultTaxRateName:          "CA Sales Tax",
		DefaultTaxRate:              decimalPtr("0.0725"),
		DefaultCombinableWithParent: combinable,
	}
	return us, ca
}

func TestCalculateTax_SubdivisionWinsOverCountryDefault(t *testing.T) {
	us, ca := usHierarchy(false)
	svc := NewTaxCalculationService(&fakeTaxRegionRepo{regions: []*model.TaxRegion{us, ca}})

	result, err := svc.CalculateTax(context.Background(), CalculateTaxRequest{
		CountryCode:     "US",
		SubdivisionCode: "CA",
		Amount:          "100.00",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, ca.ID.String(), result.RegionID)
	assert.Equal(t, "California", result.RegionName)
	assert.Equal(t, "0.0725", result.TaxRate)
	assert.Equal(t, "7.25", result.TaxAmount)
	assert.Equal(t, "107.25", result.TotalAmount)
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, TaxSourceDefault, result.Breakdown[0].Source)
	assert.Equal(t, "CA Sales Tax", result.Breakdown[0].Name)
}

func TestCalculateTax_AcceptsQualifiedSubdivisionCode(t *testing.T) {
	us, ca := usHierarchy(false)
	svc := NewTaxCalculationService(&fakeTaxRegionRepo{regions: []*model.TaxRegion{us, ca}})

	bare, err := svc.CalculateTax(context.Background(), CalculateTaxRequest{
		CountryCode: "US", SubdivisionCode: "CA", Amount: "50",
	})
	require.NoError(t, err)
	qualified, err := svc.CalculateTax(context.Background(), CalculateTaxRequest{
		CountryCode: "US", SubdivisionCode: "US-CA", Amount: "50",
	})
	require.NoError(t, err)

	assert.Equal(t, bare.RegionID, qualified.RegionID)
	assert.Equal(t, bare.TaxAmount, qualified.TaxAmount)
}

func TestCalculateTax_FallsBackToCountryDefault(t *testing.T) {
	us, ca := usHierarchy(false)
	svc := NewTaxCalculationService(&fakeTaxRegionRepo{regions: []*model.TaxRegion{us, ca}})

	result, err := svc.CalculateTax(context.Background(), CalculateTaxRequest{
		CountryCode:     "US",
		SubdivisionCode: "NY", // no NY region configured
		Amount:          "100.00",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, us.ID.String(), result.RegionID)
	assert.Equal(t, "0.05", result.TaxRate)
	assert.Equal(t, "5.00", result.TaxAmount)
}

func TestCalculateTax_NoRegionReturnsNilResult(t *testing.T) {
	us, ca := usHierarchy(false)
	svc := NewTaxCalculationService(&fakeTaxRegionRepo{regions: []*model.TaxRegion{us, ca}})

	result, err := svc.CalculateTax(context.Background(), CalculateTaxRequest{
		CountryCode: "FR",
		Amount:      "100.00",
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCalculateTax_InactiveRegionIsNeverMatched(t *testing.T) {
	us, ca := usHierarchy(false)
	ca.Status = model.TaxRegionStatusInactive
	svc := NewTaxCalculationService(&fakeTaxRegionRepo{regions: []*model.TaxRegion{us, ca}})

	result, err := svc.CalculateTax(context.Background(), CalculateTaxRequest{
		CountryCode:     "US",
		SubdivisionCode: "CA",
		Amount:          "100.00",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	// Falls through to the country default instead.
	assert.Equal(t, us.ID.String(), result.RegionID)

	us.Status = model.TaxRegionStatusInactive
	result, err = svc.CalculateTax(context.Background(), CalculateTaxRequest{
		CountryCode: "US", SubdivisionCode: "CA", Amount: "100.00",
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCalculateTax_CombinesWithParent(t *testing.T) {
	us, ca := usHierarchy(true)
	svc := NewTaxCalculationService(&fakeTaxRegionRepo{regions: []*model.TaxRegion{us, ca}})

	result, err := svc.CalculateTax(context.Background(), CalculateTaxRequest{
		CountryCode:     "US",
		SubdivisionCode: "CA",
		Amount:          "100.00",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "0.1225", result.TaxRate)
	assert.Equal(t, "12.25", result.TaxAmount)
	assert.Equal(t, "112.25", result.TotalAmount)

	// Parent contribution first, own rate second.
	require.Len(t, result.Breakdown, 2)
	assert.Equal(t, TaxSourceParent, result.Breakdown[0].Source)
	assert.Equal(t, "US Federal Tax", result.Breakdown[0].Name)
	assert.Equal(t, "5.00", result.Breakdown[0].Amount)
	assert.Equal(t, TaxSourceDefault, result.Breakdown[1].Source)
	assert.Equal(t, "7.25", result.Breakdown[1].Amount)
}

func TestCalculateTax_ParentIgnoredWhenNotCombinable(t *testing.T) {
	us, ca := usHierarchy(false)
	svc := NewTaxCalculationService(&fakeTaxRegionRepo{regions: []*model.TaxRegion{us, ca}})

	result, err := svc.CalculateTax(context.Background(), CalculateTaxRequest{
		CountryCode: "US", SubdivisionCode: "CA", Amount: "100.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "0.0725", result.TaxRate)
	require.Len(t, result.Breakdown, 1)
}

func TestCalculateTax_ZeroParentRateContributesNothing(t *testing.T) {
	us, ca := usHierarchy(true)
	us.DefaultTaxRate = decimalPtr("0")
	svc := NewTaxCalculationService(&fakeTaxRegionRepo{regions: []*model.TaxRegion{us, ca}})

	result, err := svc.CalculateTax(context.Background(), CalculateTaxRequest{
		CountryCode: "US", SubdivisionCode: "CA", Amount: "100.00",
	})
	require.NoError(t, err)

	assert.Equal(t, "0.0725", result.TaxRate)
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, TaxSourceDefault, result.Breakdown[0].Source)
}

func TestCalculateTax_OverrideFirstMatchWins(t *testing.T) {
	us, ca := usHierarchy(false)
	ca.Overrides = []model.TaxRateOverride{
		{
			Name:     "Reduced Digital Rate",
			Rate:     mustDecimal("0.01"),
			Position: 0,
			Targets: []model.TaxOverrideTarget{
				{TargetType: model.TaxOverrideTargetProductType, TargetID: "digital"},
			},
		},
		{
			Name:     "Other Digital Rate",
			Rate:     mustDecimal("0.02"),
			Position: 1,
			Targets: []model.TaxOverrideTarget{
				{TargetType: model.TaxOverrideTargetProductType, TargetID: "digital"},
			},
		},
	}
	svc := NewTaxCalculationService(&fakeTaxRegionRepo{regions: []*model.TaxRegion{us, ca}})

	result, err := svc.CalculateTax(context.Background(), CalculateTaxRequest{
		CountryCode:     "US",
		SubdivisionCode: "CA",
		ProductType:     "digital",
		Amount:          "100.00",
	})
	require.NoError(t, err)

	assert.Equal(t, "0.01", result.TaxRate)
	assert.Equal(t, "1.00", result.TaxAmount)
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, TaxSourceOverride, result.Breakdown[0].Source)
	assert.Equal(t, "Reduced Digital Rate", result.Breakdown[0].Name)
}

func TestCalculateTax_OverrideByProductID(t *testing.T) {
	productID := uuid.NewString()
	us, ca := usHierarchy(false)
	ca.Overrides = []model.TaxRateOverride{
		{
			Name: "Exempt Product",
			Rate: mustDecimal("0"),
			Targets: []model.TaxOverrideTarget{
				{TargetType: model.TaxOverrideTargetProduct, TargetID: productID},
			},
		},
	}
	svc := NewTaxCalculationService(&fakeTaxRegionRepo{regions: []*model.TaxRegion{us, ca}})

	result, err := svc.CalculateTax(context.Background(), CalculateTaxRequest{
		CountryCode:     "US",
		SubdivisionCode: "CA",
		ProductID:       productID,
		Amount:          "100.00",
	})
	require.NoError(t, err)

	// Zero override rate: no tax and no breakdown entry.
	assert.Equal(t, "0", result.TaxRate)
	assert.Equal(t, "0.00", result.TaxAmount)
	assert.Equal(t, "100.00", result.TotalAmount)
	assert.Empty(t, result.Breakdown)

	// A different product still gets the default rate.
	result, err = svc.CalculateTax(context.Background(), CalculateTaxRequest{
		CountryCode:     "US",
		SubdivisionCode: "CA",
		ProductID:       uuid.NewString(),
		Amount:          "100.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "7.25", result.TaxAmount)
}

func TestCalculateTax_RegionWithoutDefaultRate(t *testing.T) {
	region := &model.TaxRegion{
		ID:          uuid.New(),
		Name:        "Duty Free",
		CountryCode: "AE",
		Status:      model.TaxRegionStatusActive,
		IsDefault:   true,
	}
	svc := NewTaxCalculationService(&fakeTaxRegionRepo{regions: []*model.TaxRegion{region}})

	result, err := svc.CalculateTax(context.Background(), CalculateTaxRequest{
		CountryCode: "AE",
		Amount:      "100.00",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "0.00", result.TaxAmount)
	assert.Empty(t, result.Breakdown)
}

func TestCalculateTax_NormalizesCasingAndWhitespace(t *testing.T) {
	us, ca := usHierarchy(false)
	svc := NewTaxCalculationService(&fakeTaxRegionRepo{regions: []*model.TaxRegion{us, ca}})

	result, err := svc.CalculateTax(context.Background(), CalculateTaxRequest{
		CountryCode:     " us ",
		SubdivisionCode: " ca ",
		Amount:          "100.00",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, ca.ID.String(), result.RegionID)
}

func TestCalculateTax_RejectsInvalidInput(t *testing.T) {
	svc := NewTaxCalculationService(&fakeTaxRegionRepo{})

	cases := []struct {
		name string
		req  CalculateTaxRequest
	}{
		{"bad country code", CalculateTaxRequest{CountryCode: "USA", Amount: "100"}},
		{"non-decimal amount", CalculateTaxRequest{CountryCode: "US", Amount: "abc"}},
		{"negative amount", CalculateTaxRequest{CountryCode: "US", Amount: "-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.CalculateTax(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Nil(t, result)
		})
	}
}

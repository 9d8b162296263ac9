package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Breakdown entry sources
const (
	TaxSourceParent   = "parent"
	TaxSourceDefault  = "default"
	TaxSourceOverride = "override"
)

var countryCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)

// --- DTOs ---

type CalculateTaxRequest struct {
	CountryCode     string `json:"country_code" binding:"required"`
	SubdivisionCode string `json:"subdivision_code"` // state part only, e.g. "CA"
	ProductID       string `json:"product_id"`
	ProductType     string `json:"product_type"`
	Amount          string `json:"amount" binding:"required"` // decimal string, e.g. "100.00"
}

// TaxBreakdownEntry is one contributing rate in a calculation, in the order it
// was applied: parent contribution first, then the region's own rate.
type TaxBreakdownEntry struct {
	Name   string `json:"name"`
	Rate   string `json:"rate"`
	Amount string `json:"amount"`
	Source string `json:"source"` // parent, default, override
}

type TaxCalculationResult struct {
	RegionID    string              `json:"region_id"`
	RegionName  string              `json:"region_name"`
	TaxRate     string              `json:"tax_rate"`
	TaxAmount   string              `json:"tax_amount"`
	TotalAmount string              `json:"total_amount"`
	Breakdown   []TaxBreakdownEntry `json:"breakdown"`
}

// --- Interface ---

// TaxCalculationService resolves the applicable tax region for an address and
// computes the effective tax for an amount, honouring per-product overrides
// and parent-region combination.
type TaxCalculationService interface {
	// CalculateTax returns (nil, nil) when no region applies — a legitimate
	// business outcome, not an error.
	CalculateTax(ctx context.Context, req CalculateTaxRequest) (*TaxCalculationResult, error)
	CalculateTaxForRegion(ctx context.Context, region *model.TaxRegion, productID, productType string, amount decimal.Decimal) (*TaxCalculationResult, error)
	// FindApplicableTaxRegion returns (nil, nil) when neither a subdivision
	// region nor a country default matches.
	FindApplicableTaxRegion(ctx context.Context, countryCode, subdivisionCode string) (*model.TaxRegion, error)
}

type taxCalculationService struct {
	regionRepo repository.TaxRegionRepository
}

func NewTaxCalculationService(regionRepo repository.TaxRegionRepository) TaxCalculationService {
	return &taxCalculationService{regionRepo: regionRepo}
}

// --- Implementation ---

func (s *taxCalculationService) CalculateTax(ctx context.Context, req CalculateTaxRequest) (*TaxCalculationResult, error) {
	countryCode := strings.ToUpper(strings.TrimSpace(req.CountryCode))
	if !countryCodePattern.MatchString(countryCode) {
		return nil, newValidationError("country_code must be a two-letter ISO 3166-1 alpha-2 code")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, newValidationError("amount must be a decimal number")
	}
	if amount.IsNegative() {
		return nil, newValidationError("amount must not be negative")
	}

	region, err := s.FindApplicableTaxRegion(ctx, countryCode, req.SubdivisionCode)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return nil, nil // no tax applicable
	}

	return s.CalculateTaxForRegion(ctx, region, req.ProductID, req.ProductType, amount)
}

// FindApplicableTaxRegion prefers the most specific active region: an exact
// (country, subdivision) match wins; otherwise the country's active default
// region is the fallback. The hierarchy is two levels only.
func (s *taxCalculationService) FindApplicableTaxRegion(ctx context.Context, countryCode, subdivisionCode string) (*model.TaxRegion, error) {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	subdivisionCode = strings.ToUpper(strings.TrimSpace(subdivisionCode))

	if subdivisionCode != "" {
		// Subdivision codes are stored fully qualified ("US-CA"); accept both
		// the bare state part and the qualified form from callers.
		if !strings.HasPrefix(subdivisionCode, countryCode+"-") {
			subdivisionCode = countryCode + "-" + subdivisionCode
		}

		region, err := s.regionRepo.FindActiveBySubdivision(ctx, countryCode, subdivisionCode)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up tax region: %w", err)
		}
		if region != nil {
			return region, nil
		}
	}

	region, err := s.regionRepo.FindActiveDefaultForCountry(ctx, countryCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up default tax region: %w", err)
	}
	return region, nil
}

// CalculateTaxForRegion computes the effective tax for an amount within a
// resolved region. Breakdown entries are appended in application order:
//  1. the parent region's contribution when the region combines with its parent
//  2. the region's own effective rate (first matching override, else default)
//
// Zero rates contribute no breakdown entry.
func (s *taxCalculationService) CalculateTaxForRegion(ctx context.Context, region *model.TaxRegion, productID, productType string, amount decimal.Decimal) (*TaxCalculationResult, error) {
	totalRate := decimal.Zero
	breakdown := make([]TaxBreakdownEntry, 0, 2)

	if region.ParentRegionID != nil && region.DefaultCombinableWithParent {
		parent, err := s.regionRepo.FindByID(ctx, *region.ParentRegionID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up parent tax region: %w", err)
		}
		// A missing parent degrades to no contribution; parents are
		// country-level, so there is no further combination above them.
		if parent != nil && parent.DefaultTaxRate != nil && parent.DefaultTaxRate.IsPositive() {
			parentRate, parentName, _ := effectiveRate(parent, productID, productType)
			if parentRate.IsPositive() {
				breakdown = append(breakdown, TaxBreakdownEntry{
					Name:   parentName,
					Rate:   parentRate.String(),
					Amount: amount.Mul(parentRate).StringFixed(2),
					Source: TaxSourceParent,
				})
				totalRate = totalRate.Add(parentRate)
			}
		}
	}

	rate, name, source := effectiveRate(region, productID, productType)
	if rate.IsPositive() {
		breakdown = append(breakdown, TaxBreakdownEntry{
			Name:   name,
			Rate:   rate.String(),
			Amount: amount.Mul(rate).StringFixed(2),
			Source: source,
		})
		totalRate = totalRate.Add(rate)
	}

	taxAmount := amount.Mul(totalRate)

	return &TaxCalculationResult{
		RegionID:    region.ID.String(),
		RegionName:  region.Name,
		TaxRate:     totalRate.String(),
		TaxAmount:   taxAmount.StringFixed(2),
		TotalAmount: amount.Add(taxAmount).StringFixed(2),
		Breakdown:   breakdown,
	}, nil
}

// effectiveRate resolves a region's own rate for a product: the first override
// (in declaration order) with a matching target supersedes the default rate.
// The override's combinable flag is recorded but does not stack rates.
func effectiveRate(region *model.TaxRegion, productID, productType string) (decimal.Decimal, string, string) {
	for i := range region.Overrides {
		if region.Overrides[i].MatchesProduct(productID, productType) {
			return region.Overrides[i].Rate, region.Overrides[i].Name, TaxSourceOverride
		}
	}

	if region.DefaultTaxRate == nil {
		return decimal.Zero, region.DefaultTaxRateName, TaxSourceDefault
	}
	return *region.DefaultTaxRate, region.DefaultTaxRateName, TaxSourceDefault
}

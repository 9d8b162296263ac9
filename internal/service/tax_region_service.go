package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type TaxOverrideTargetInput struct {
	TargetType string `json:"target_type" binding:"required,oneof=product product_type"`
	TargetID   string `json:"target_id" binding:"required"`
}

// TaxOverrideInput declares one override; list order is evaluation order.
type TaxOverrideInput struct {
	Name       string                   `json:"name" binding:"required"`
	Rate       string                   `json:"rate" binding:"required"` // decimal fraction, e.g. "0.05"
	Code       string                   `json:"code"`
	Combinable bool                     `json:"combinable"`
	Targets    []TaxOverrideTargetInput `json:"targets" binding:"required,min=1,dive"`
}

type CreateTaxRegionRequest struct {
	Name                        string             `json:"name" binding:"required"`
	CountryCode                 string             `json:"country_code" binding:"required"`
	SubdivisionCode             string             `json:"subdivision_code"`
	ParentRegionID              string             `json:"parent_region_id"`
	Status                      string             `json:"status"`
	IsDefault                   bool               `json:"is_default"`
	DefaultTaxRateName          string             `json:"default_tax_rate_name"`
	DefaultTaxRate              *string            `json:"default_tax_rate"` // nullable decimal fraction
	DefaultTaxCode              string             `json:"default_tax_code"`
	DefaultCombinableWithParent bool               `json:"default_combinable_with_parent"`
	Overrides                   []TaxOverrideInput `json:"overrides" binding:"dive"`
}

type UpdateTaxRegionRequest = CreateTaxRegionRequest

// --- Interface ---

// TaxRegionService is the admin surface for the tax region hierarchy.
type TaxRegionService interface {
	CreateTaxRegion(ctx context.Context, userID string, req CreateTaxRegionRequest) (*model.TaxRegion, error)
	UpdateTaxRegion(ctx context.Context, userID string, id string, req UpdateTaxRegionRequest) (*model.TaxRegion, error)
	DeleteTaxRegion(ctx context.Context, userID string, id string) error
	GetTaxRegion(ctx context.Context, id string) (*model.TaxRegion, error)
	ListTaxRegions(ctx context.Context, page, limit int) ([]model.TaxRegion, int64, error)
}

type taxRegionService struct {
	regionRepo repository.TaxRegionRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewTaxRegionService(
	regionRepo repository.TaxRegionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) TaxRegionService {
	return &taxRegionService{
		regionRepo: regionRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
	}
}

// --- Implementation ---

func (s *taxRegionService) CreateTaxRegion(ctx context.Context, userID string, req CreateTaxRegionRequest) (*model.TaxRegion, error) {
	region, overrides, err := s.buildRegion(ctx, nil, req)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.regionRepo.Create(txCtx, region); createErr != nil {
			return fmt.Errorf("failed to create tax region: %w", createErr)
		}
		if replaceErr := s.regionRepo.ReplaceOverrides(txCtx, region.ID, overrides); replaceErr != nil {
			return fmt.Errorf("failed to store tax overrides: %w", replaceErr)
		}
		return s.logRegionAudit(txCtx, userID, model.ActionCreateTaxRegion, region, req)
	})
	if err != nil {
		return nil, err
	}

	return s.regionRepo.FindByID(ctx, region.ID)
}

func (s *taxRegionService) UpdateTaxRegion(ctx context.Context, userID string, id string, req UpdateTaxRegionRequest) (*model.TaxRegion, error) {
	regionID, err := uuid.Parse(id)
	if err != nil {
		return nil, newValidationError("invalid tax region id")
	}

	existing, err := s.regionRepo.FindByID(ctx, regionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("tax region not found")
		}
		return nil, fmt.Errorf("failed to load tax region: %w", err)
	}

	region, overrides, err := s.buildRegion(ctx, &existing.ID, req)
	if err != nil {
		return nil, err
	}
	region.ID = existing.ID
	region.CreatedAt = existing.CreatedAt

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.regionRepo.Update(txCtx, region); updateErr != nil {
			return fmt.Errorf("failed to update tax region: %w", updateErr)
		}
		if replaceErr := s.regionRepo.ReplaceOverrides(txCtx, region.ID, overrides); replaceErr != nil {
			return fmt.Errorf("failed to store tax overrides: %w", replaceErr)
		}
		return s.logRegionAudit(txCtx, userID, model.ActionUpdateTaxRegion, region, req)
	})
	if err != nil {
		return nil, err
	}

	return s.regionRepo.FindByID(ctx, region.ID)
}

func (s *taxRegionService) DeleteTaxRegion(ctx context.Context, userID string, id string) error {
	regionID, err := uuid.Parse(id)
	if err != nil {
		return newValidationError("invalid tax region id")
	}

	region, err := s.regionRepo.FindByID(ctx, regionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("tax region not found")
		}
		return fmt.Errorf("failed to load tax region: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.regionRepo.Delete(txCtx, regionID); deleteErr != nil {
			return fmt.Errorf("failed to delete tax region: %w", deleteErr)
		}

		var uid *uuid.UUID
		if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
			uid = &parsed
		}
		audit := &model.AuditLog{
			UserID:     uid,
			Action:     model.ActionDeleteTaxRegion,
			EntityID:   region.ID.String(),
			EntityName: region.Name,
			Details:    `{"deleted": true}`,
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
}

func (s *taxRegionService) GetTaxRegion(ctx context.Context, id string) (*model.TaxRegion, error) {
	regionID, err := uuid.Parse(id)
	if err != nil {
		return nil, newValidationError("invalid tax region id")
	}
	region, err := s.regionRepo.FindByID(ctx, regionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("tax region not found")
		}
		return nil, fmt.Errorf("failed to load tax region: %w", err)
	}
	return region, nil
}

func (s *taxRegionService) ListTaxRegions(ctx context.Context, page, limit int) ([]model.TaxRegion, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.regionRepo.List(ctx, page, limit)
}

// buildRegion validates a request into a model region plus its override list.
// excludeID is set on updates so the single-default check ignores the region
// being edited.
func (s *taxRegionService) buildRegion(ctx context.Context, excludeID *uuid.UUID, req CreateTaxRegionRequest) (*model.TaxRegion, []model.TaxRateOverride, error) {
	countryCode := strings.ToUpper(strings.TrimSpace(req.CountryCode))
	if !countryCodePattern.MatchString(countryCode) {
		return nil, nil, newValidationError("country_code must be a two-letter ISO 3166-1 alpha-2 code")
	}

	status := req.Status
	if status == "" {
		status = model.TaxRegionStatusActive
	}
	if status != model.TaxRegionStatusActive && status != model.TaxRegionStatusInactive {
		return nil, nil, newValidationError("status must be active or inactive")
	}

	subdivision := strings.ToUpper(strings.TrimSpace(req.SubdivisionCode))
	hasParent := req.ParentRegionID != ""

	// A subdivision region always hangs off a country-level parent; a
	// country-level region never carries a subdivision code.
	if subdivision != "" && !hasParent {
		return nil, nil, newValidationError("subdivision regions require a parent_region_id")
	}
	if subdivision == "" && hasParent {
		return nil, nil, newValidationError("regions with a parent require a subdivision_code")
	}

	region := &model.TaxRegion{
		Name:                        strings.TrimSpace(req.Name),
		CountryCode:                 countryCode,
		Status:                      status,
		IsDefault:                   req.IsDefault,
		DefaultTaxRateName:          req.DefaultTaxRateName,
		DefaultTaxCode:              req.DefaultTaxCode,
		DefaultCombinableWithParent: req.DefaultCombinableWithParent,
	}

	if subdivision != "" {
		if !strings.HasPrefix(subdivision, countryCode+"-") {
			subdivision = countryCode + "-" + subdivision
		}
		region.SubdivisionCode = &subdivision

		parentID, err := uuid.Parse(req.ParentRegionID)
		if err != nil {
			return nil, nil, newValidationError("invalid parent_region_id")
		}
		parent, err := s.regionRepo.FindByID(ctx, parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, newValidationError("parent region not found")
			}
			return nil, nil, fmt.Errorf("failed to load parent region: %w", err)
		}
		if parent.ParentRegionID != nil {
			return nil, nil, newValidationError("parent region must be a country-level region")
		}
		if parent.CountryCode != countryCode {
			return nil, nil, newValidationError("parent region belongs to a different country")
		}
		region.ParentRegionID = &parent.ID

		if req.IsDefault {
			return nil, nil, newValidationError("only country-level regions can be the country default")
		}
	}

	if req.IsDefault && status == model.TaxRegionStatusActive {
		count, err := s.regionRepo.CountActiveDefaultsForCountry(ctx, countryCode, excludeID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check existing default regions: %w", err)
		}
		if count > 0 {
			return nil, nil, newValidationError("country already has an active default tax region")
		}
	}

	if req.DefaultTaxRate != nil {
		rate, err := decimal.NewFromString(*req.DefaultTaxRate)
		if err != nil {
			return nil, nil, newValidationError("default_tax_rate must be a decimal number")
		}
		if rate.IsNegative() {
			return nil, nil, newValidationError("default_tax_rate must not be negative")
		}
		region.DefaultTaxRate = &rate
	}

	overrides := make([]model.TaxRateOverride, 0, len(req.Overrides))
	for i, in := range req.Overrides {
		rate, err := decimal.NewFromString(in.Rate)
		if err != nil {
			return nil, nil, newValidationError(fmt.Sprintf("override %d: rate must be a decimal number", i))
		}
		if rate.IsNegative() {
			return nil, nil, newValidationError(fmt.Sprintf("override %d: rate must not be negative", i))
		}

		targets := make([]model.TaxOverrideTarget, 0, len(in.Targets))
		for _, t := range in.Targets {
			if t.TargetType != model.TaxOverrideTargetProduct && t.TargetType != model.TaxOverrideTargetProductType {
				return nil, nil, newValidationError(fmt.Sprintf("override %d: target_type must be product or product_type", i))
			}
			if strings.TrimSpace(t.TargetID) == "" {
				return nil, nil, newValidationError(fmt.Sprintf("override %d: target_id is required", i))
			}
			targets = append(targets, model.TaxOverrideTarget{
				TargetType: t.TargetType,
				TargetID:   strings.TrimSpace(t.TargetID),
			})
		}

		overrides = append(overrides, model.TaxRateOverride{
			Name:       in.Name,
			Rate:       rate,
			Code:       in.Code,
			Combinable: in.Combinable,
			Position:   i,
			Targets:    targets,
		})
	}

	return region, overrides, nil
}

func (s *taxRegionService) logRegionAudit(ctx context.Context, userID, action string, region *model.TaxRegion, req CreateTaxRegionRequest) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	details, _ := json.Marshal(map[string]interface{}{
		"country_code":     req.CountryCode,
		"subdivision_code": req.SubdivisionCode,
		"is_default":       req.IsDefault,
		"override_count":   len(req.Overrides),
	})
	audit := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   region.ID.String(),
		EntityName: region.Name,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

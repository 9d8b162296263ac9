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
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateShippingZoneRequest struct {
	Name        string   `json:"name" binding:"required"`
	Countries   []string `json:"countries" binding:"required,min=1"`
	States      []string `json:"states"`
	Cities      []string `json:"cities"`
	PostalCodes []string `json:"postal_codes"`
	IsActive    *bool    `json:"is_active"`
	Priority    int      `json:"priority"`
}

type UpdateShippingZoneRequest = CreateShippingZoneRequest

type CreateShippingRateRequest struct {
	ShippingZoneID     string `json:"shipping_zone_id" binding:"required"`
	ShippingProviderID string `json:"shipping_provider_id"`
	Name               string `json:"name" binding:"required"`
	Type               string `json:"type" binding:"required"`

	FlatRate *float64 `json:"flat_rate"`

	WeightRate *float64 `json:"weight_rate"`
	MinWeight  *float64 `json:"min_weight"`
	MaxWeight  *float64 `json:"max_weight"`

	PriceRate *float64 `json:"price_rate"`
	MinPrice  *float64 `json:"min_price"`
	MaxPrice  *float64 `json:"max_price"`

	FreeShippingThreshold *float64 `json:"free_shipping_threshold"`

	MinDeliveryDays int   `json:"min_delivery_days"`
	MaxDeliveryDays int   `json:"max_delivery_days"`
	IsActive        *bool `json:"is_active"`
	Priority        int   `json:"priority"`
}

type UpdateShippingRateRequest = CreateShippingRateRequest

// --- Interface ---

// ShippingZoneService is the admin surface for zones and their rates.
type ShippingZoneService interface {
	CreateZone(ctx context.Context, userID string, req CreateShippingZoneRequest) (*model.ShippingZone, error)
	UpdateZone(ctx context.Context, userID string, id string, req UpdateShippingZoneRequest) (*model.ShippingZone, error)
	DeleteZone(ctx context.Context, userID string, id string) error
	GetZone(ctx context.Context, id string) (*model.ShippingZone, error)
	ListZones(ctx context.Context, page, limit int) ([]model.ShippingZone, int64, error)

	CreateRate(ctx context.Context, userID string, req CreateShippingRateRequest) (*model.ShippingRate, error)
	UpdateRate(ctx context.Context, userID string, id string, req UpdateShippingRateRequest) (*model.ShippingRate, error)
	DeleteRate(ctx context.Context, userID string, id string) error
	ListRates(ctx context.Context, page, limit int) ([]model.ShippingRate, int64, error)
}

type shippingZoneService struct {
	zoneRepo     repository.ShippingZoneRepository
	rateRepo     repository.ShippingRateRepository
	providerRepo repository.ShippingProviderRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewShippingZoneService(
	zoneRepo repository.ShippingZoneRepository,
	rateRepo repository.ShippingRateRepository,
	providerRepo repository.ShippingProviderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ShippingZoneService {
	return &shippingZoneService{
		zoneRepo:     zoneRepo,
		rateRepo:     rateRepo,
		providerRepo: providerRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

// --- Zones ---

func (s *shippingZoneService) CreateZone(ctx context.Context, userID string, req CreateShippingZoneRequest) (*model.ShippingZone, error) {
	zone, err := buildZone(req)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.zoneRepo.Create(txCtx, zone); createErr != nil {
			return fmt.Errorf("failed to create shipping zone: %w", createErr)
		}
		return s.logAudit(txCtx, userID, model.ActionCreateShippingZone, zone.ID.String(), zone.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return zone, nil
}

func (s *shippingZoneService) UpdateZone(ctx context.Context, userID string, id string, req UpdateShippingZoneRequest) (*model.ShippingZone, error) {
	zoneID, err := uuid.Parse(id)
	if err != nil {
		return nil, newValidationError("invalid shipping zone id")
	}

	existing, err := s.zoneRepo.FindByID(ctx, zoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("shipping zone not found")
		}
		return nil, fmt.Errorf("failed to load shipping zone: %w", err)
	}

	zone, err := buildZone(req)
	if err != nil {
		return nil, err
	}
	zone.ID = existing.ID
	zone.CreatedAt = existing.CreatedAt

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.zoneRepo.Update(txCtx, zone); updateErr != nil {
			return fmt.Errorf("failed to update shipping zone: %w", updateErr)
		}
		return s.logAudit(txCtx, userID, model.ActionUpdateShippingZone, zone.ID.String(), zone.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return zone, nil
}

func (s *shippingZoneService) DeleteZone(ctx context.Context, userID string, id string) error {
	zoneID, err := uuid.Parse(id)
	if err != nil {
		return newValidationError("invalid shipping zone id")
	}

	zone, err := s.zoneRepo.FindByID(ctx, zoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("shipping zone not found")
		}
		return fmt.Errorf("failed to load shipping zone: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.zoneRepo.Delete(txCtx, zoneID); deleteErr != nil {
			return fmt.Errorf("failed to delete shipping zone: %w", deleteErr)
		}
		return s.logAudit(txCtx, userID, model.ActionDeleteShippingZone, zone.ID.String(), zone.Name, nil)
	})
}

func (s *shippingZoneService) GetZone(ctx context.Context, id string) (*model.ShippingZone, error) {
	zoneID, err := uuid.Parse(id)
	if err != nil {
		return nil, newValidationError("invalid shipping zone id")
	}
	zone, err := s.zoneRepo.FindByID(ctx, zoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("shipping zone not found")
		}
		return nil, fmt.Errorf("failed to load shipping zone: %w", err)
	}
	return zone, nil
}

func (s *shippingZoneService) ListZones(ctx context.Context, page, limit int) ([]model.ShippingZone, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.zoneRepo.List(ctx, page, limit)
}

// --- Rates ---

func (s *shippingZoneService) CreateRate(ctx context.Context, userID string, req CreateShippingRateRequest) (*model.ShippingRate, error) {
	rate, err := s.buildRate(ctx, req)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.rateRepo.Create(txCtx, rate); createErr != nil {
			return fmt.Errorf("failed to create shipping rate: %w", createErr)
		}
		return s.logAudit(txCtx, userID, model.ActionCreateShippingRate, rate.ID.String(), rate.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return rate, nil
}

func (s *shippingZoneService) UpdateRate(ctx context.Context, userID string, id string, req UpdateShippingRateRequest) (*model.ShippingRate, error) {
	rateID, err := uuid.Parse(id)
	if err != nil {
		return nil, newValidationError("invalid shipping rate id")
	}

	existing, err := s.rateRepo.FindByID(ctx, rateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("shipping rate not found")
		}
		return nil, fmt.Errorf("failed to load shipping rate: %w", err)
	}

	rate, err := s.buildRate(ctx, req)
	if err != nil {
		return nil, err
	}
	rate.ID = existing.ID
	rate.CreatedAt = existing.CreatedAt

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.rateRepo.Update(txCtx, rate); updateErr != nil {
			return fmt.Errorf("failed to update shipping rate: %w", updateErr)
		}
		return s.logAudit(txCtx, userID, model.ActionUpdateShippingRate, rate.ID.String(), rate.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return rate, nil
}

func (s *shippingZoneService) DeleteRate(ctx context.Context, userID string, id string) error {
	rateID, err := uuid.Parse(id)
	if err != nil {
		return newValidationError("invalid shipping rate id")
	}

	rate, err := s.rateRepo.FindByID(ctx, rateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("shipping rate not found")
		}
		return fmt.Errorf("failed to load shipping rate: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.rateRepo.Delete(txCtx, rateID); deleteErr != nil {
			return fmt.Errorf("failed to delete shipping rate: %w", deleteErr)
		}
		return s.logAudit(txCtx, userID, model.ActionDeleteShippingRate, rate.ID.String(), rate.Name, nil)
	})
}

func (s *shippingZoneService) ListRates(ctx context.Context, page, limit int) ([]model.ShippingRate, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.rateRepo.List(ctx, page, limit)
}

// --- Helpers ---

func buildZone(req CreateShippingZoneRequest) (*model.ShippingZone, error) {
	countries := make([]string, 0, len(req.Countries))
	for _, c := range req.Countries {
		code := strings.ToUpper(strings.TrimSpace(c))
		if !countryCodePattern.MatchString(code) {
			return nil, newValidationError(fmt.Sprintf("invalid country code %q", c))
		}
		countries = append(countries, code)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	return &model.ShippingZone{
		Name:        strings.TrimSpace(req.Name),
		Countries:   pq.StringArray(countries),
		States:      upperAll(req.States),
		Cities:      trimAll(req.Cities),
		PostalCodes: trimAll(req.PostalCodes),
		IsActive:    isActive,
		Priority:    req.Priority,
	}, nil
}

// buildRate validates the type-specific parameter block. Parameters belonging
// to other types are rejected rather than silently dropped.
func (s *shippingZoneService) buildRate(ctx context.Context, req CreateShippingRateRequest) (*model.ShippingRate, error) {
	zoneID, err := uuid.Parse(req.ShippingZoneID)
	if err != nil {
		return nil, newValidationError("invalid shipping_zone_id")
	}
	if _, err := s.zoneRepo.FindByID(ctx, zoneID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newValidationError("shipping zone not found")
		}
		return nil, fmt.Errorf("failed to load shipping zone: %w", err)
	}

	rate := &model.ShippingRate{
		ShippingZoneID:        zoneID,
		Name:                  strings.TrimSpace(req.Name),
		Type:                  req.Type,
		FreeShippingThreshold: req.FreeShippingThreshold,
		MinDeliveryDays:       req.MinDeliveryDays,
		MaxDeliveryDays:       req.MaxDeliveryDays,
		Priority:              req.Priority,
		IsActive:              true,
	}
	if req.IsActive != nil {
		rate.IsActive = *req.IsActive
	}
	if rate.MinDeliveryDays <= 0 {
		rate.MinDeliveryDays = 1
	}
	if rate.MaxDeliveryDays <= 0 {
		rate.MaxDeliveryDays = 7
	}
	if rate.MaxDeliveryDays < rate.MinDeliveryDays {
		return nil, newValidationError("max_delivery_days must not be less than min_delivery_days")
	}

	if err := checkNonNegative(map[string]*float64{
		"flat_rate":               req.FlatRate,
		"weight_rate":             req.WeightRate,
		"min_weight":              req.MinWeight,
		"max_weight":              req.MaxWeight,
		"price_rate":              req.PriceRate,
		"min_price":               req.MinPrice,
		"max_price":               req.MaxPrice,
		"free_shipping_threshold": req.FreeShippingThreshold,
	}); err != nil {
		return nil, err
	}

	switch req.Type {
	case model.ShippingRateFlat:
		if req.FlatRate == nil {
			return nil, newValidationError("flat_rate is required for FLAT_RATE")
		}
		rate.FlatRate = req.FlatRate

	case model.ShippingRateWeight:
		if req.WeightRate == nil {
			return nil, newValidationError("weight_rate is required for WEIGHT_BASED")
		}
		if req.MinWeight != nil && req.MaxWeight != nil && *req.MaxWeight < *req.MinWeight {
			return nil, newValidationError("max_weight must not be less than min_weight")
		}
		rate.WeightRate = req.WeightRate
		rate.MinWeight = req.MinWeight
		rate.MaxWeight = req.MaxWeight

	case model.ShippingRatePrice:
		if req.PriceRate == nil {
			return nil, newValidationError("price_rate is required for PRICE_BASED")
		}
		if req.MinPrice != nil && req.MaxPrice != nil && *req.MaxPrice < *req.MinPrice {
			return nil, newValidationError("max_price must not be less than min_price")
		}
		rate.PriceRate = req.PriceRate
		rate.MinPrice = req.MinPrice
		rate.MaxPrice = req.MaxPrice

	case model.ShippingRateFree:
		if req.FreeShippingThreshold == nil {
			return nil, newValidationError("free_shipping_threshold is required for FREE")
		}

	case model.ShippingRateCalculated:
		if req.ShippingProviderID == "" {
			return nil, newValidationError("shipping_provider_id is required for CALCULATED")
		}
		providerID, parseErr := uuid.Parse(req.ShippingProviderID)
		if parseErr != nil {
			return nil, newValidationError("invalid shipping_provider_id")
		}
		if _, findErr := s.providerRepo.FindByID(ctx, providerID); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return nil, newValidationError("shipping provider not found")
			}
			return nil, fmt.Errorf("failed to load shipping provider: %w", findErr)
		}
		rate.ShippingProviderID = &providerID

	default:
		return nil, newValidationError("type must be one of FLAT_RATE, WEIGHT_BASED, PRICE_BASED, FREE, CALCULATED")
	}

	return rate, nil
}

func (s *shippingZoneService) logAudit(ctx context.Context, userID, action, entityID, entityName string, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	details := `{"deleted": true}`
	if payload != nil {
		raw, _ := json.Marshal(payload)
		details = string(raw)
	}
	audit := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    details,
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func checkNonNegative(fields map[string]*float64) error {
	for name, v := range fields {
		if v != nil && *v < 0 {
			return newValidationError(name + " must not be negative")
		}
	}
	return nil
}

func upperAll(in []string) pq.StringArray {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := strings.ToUpper(strings.TrimSpace(s)); v != "" {
			out = append(out, v)
		}
	}
	return pq.StringArray(out)
}

func trimAll(in []string) pq.StringArray {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := strings.TrimSpace(s); v != "" {
			out = append(out, v)
		}
	}
	return pq.StringArray(out)
}

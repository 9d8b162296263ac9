package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"backend/internal/carrier"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProviderRequest struct {
	Name               string   `json:"name" binding:"required"`
	Code               string   `json:"code" binding:"required"`
	BaseURL            string   `json:"base_url"`
	APIKey             string   `json:"api_key"`
	IsTestMode         *bool    `json:"is_test_mode"`
	IsActive           *bool    `json:"is_active"`
	SupportedCountries []string `json:"supported_countries"`
}

type UpdateProviderRequest = CreateProviderRequest

type TestConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// --- Interface ---

// ShippingProviderService manages carrier integrations and verifies their
// credentials against the live carrier API.
type ShippingProviderService interface {
	CreateProvider(ctx context.Context, userID string, req CreateProviderRequest) (*model.ShippingProvider, error)
	UpdateProvider(ctx context.Context, userID string, id string, req UpdateProviderRequest) (*model.ShippingProvider, error)
	DeleteProvider(ctx context.Context, userID string, id string) error
	GetProvider(ctx context.Context, id string) (*model.ShippingProvider, error)
	ListProviders(ctx context.Context, page, limit int) ([]model.ShippingProvider, int64, error)
	TestConnection(ctx context.Context, id string) (*TestConnectionResult, error)
}

type shippingProviderService struct {
	providerRepo repository.ShippingProviderRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	adapter      carrier.Adapter
}

func NewShippingProviderService(
	providerRepo repository.ShippingProviderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	adapter carrier.Adapter,
) ShippingProviderService {
	return &shippingProviderService{
		providerRepo: providerRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		adapter:      adapter,
	}
}

// --- Implementation ---

func (s *shippingProviderService) CreateProvider(ctx context.Context, userID string, req CreateProviderRequest) (*model.ShippingProvider, error) {
	provider, err := buildProvider(req)
	if err != nil {
		return nil, err
	}

	if existing, findErr := s.providerRepo.FindByCode(ctx, provider.Code); findErr == nil && existing != nil {
		return nil, newValidationError("provider code already in use")
	} else if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check provider code: %w", findErr)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.providerRepo.Create(txCtx, provider); createErr != nil {
			return fmt.Errorf("failed to create shipping provider: %w", createErr)
		}
		return s.logProviderAudit(txCtx, userID, model.ActionCreateProvider, provider)
	})
	if err != nil {
		return nil, err
	}
	return provider, nil
}

func (s *shippingProviderService) UpdateProvider(ctx context.Context, userID string, id string, req UpdateProviderRequest) (*model.ShippingProvider, error) {
	providerID, err := uuid.Parse(id)
	if err != nil {
		return nil, newValidationError("invalid shipping provider id")
	}

	existing, err := s.providerRepo.FindByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("shipping provider not found")
		}
		return nil, fmt.Errorf("failed to load shipping provider: %w", err)
	}

	provider, err := buildProvider(req)
	if err != nil {
		return nil, err
	}
	provider.ID = existing.ID
	provider.CreatedAt = existing.CreatedAt
	// A blank api_key on update keeps the stored secret.
	if provider.APIKey == "" {
		provider.APIKey = existing.APIKey
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.providerRepo.Update(txCtx, provider); updateErr != nil {
			return fmt.Errorf("failed to update shipping provider: %w", updateErr)
		}
		return s.logProviderAudit(txCtx, userID, model.ActionUpdateProvider, provider)
	})
	if err != nil {
		return nil, err
	}
	return provider, nil
}

func (s *shippingProviderService) DeleteProvider(ctx context.Context, userID string, id string) error {
	providerID, err := uuid.Parse(id)
	if err != nil {
		return newValidationError("invalid shipping provider id")
	}

	provider, err := s.providerRepo.FindByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("shipping provider not found")
		}
		return fmt.Errorf("failed to load shipping provider: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.providerRepo.Delete(txCtx, providerID); deleteErr != nil {
			return fmt.Errorf("failed to delete shipping provider: %w", deleteErr)
		}
		return s.logProviderAudit(txCtx, userID, model.ActionDeleteProvider, provider)
	})
}

func (s *shippingProviderService) GetProvider(ctx context.Context, id string) (*model.ShippingProvider, error) {
	providerID, err := uuid.Parse(id)
	if err != nil {
		return nil, newValidationError("invalid shipping provider id")
	}
	provider, err := s.providerRepo.FindByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("shipping provider not found")
		}
		return nil, fmt.Errorf("failed to load shipping provider: %w", err)
	}
	return provider, nil
}

func (s *shippingProviderService) ListProviders(ctx context.Context, page, limit int) ([]model.ShippingProvider, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.providerRepo.List(ctx, page, limit)
}

// TestConnection runs a live credential check through the carrier adapter.
// Carrier-side failures come back as a failed status, not a transport error,
// so the admin UI can render the reason.
func (s *shippingProviderService) TestConnection(ctx context.Context, id string) (*TestConnectionResult, error) {
	provider, err := s.GetProvider(ctx, id)
	if err != nil {
		return nil, err
	}
	if !provider.HasCredentials() {
		return &TestConnectionResult{Success: false, Message: "provider has no credentials configured"}, nil
	}

	status, err := s.adapter.TestConnection(ctx, carrier.Credentials{
		APIKey:   provider.APIKey,
		BaseURL:  provider.BaseURL,
		TestMode: provider.IsTestMode,
	})
	if err != nil {
		var pErr *carrier.ProviderError
		if errors.As(err, &pErr) {
			return &TestConnectionResult{Success: false, Message: pErr.Message}, nil
		}
		return nil, err
	}

	return &TestConnectionResult{Success: status.Success, Message: status.Message}, nil
}

func buildProvider(req CreateProviderRequest) (*model.ShippingProvider, error) {
	code := strings.ToLower(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, newValidationError("code is required")
	}

	countries := make([]string, 0, len(req.SupportedCountries))
	for _, c := range req.SupportedCountries {
		v := strings.ToUpper(strings.TrimSpace(c))
		if !countryCodePattern.MatchString(v) {
			return nil, newValidationError(fmt.Sprintf("invalid country code %q", c))
		}
		countries = append(countries, v)
	}

	provider := &model.ShippingProvider{
		Name:               strings.TrimSpace(req.Name),
		Code:               code,
		BaseURL:            strings.TrimSpace(req.BaseURL),
		APIKey:             req.APIKey,
		IsTestMode:         true,
		IsActive:           true,
		SupportedCountries: pq.StringArray(countries),
	}
	if req.IsTestMode != nil {
		provider.IsTestMode = *req.IsTestMode
	}
	if req.IsActive != nil {
		provider.IsActive = *req.IsActive
	}
	return provider, nil
}

func (s *shippingProviderService) logProviderAudit(ctx context.Context, userID, action string, provider *model.ShippingProvider) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		uid = &parsed
	}

	// Never log the api key.
	details, _ := json.Marshal(map[string]interface{}{
		"code":         provider.Code,
		"base_url":     provider.BaseURL,
		"is_test_mode": provider.IsTestMode,
		"is_active":    provider.IsActive,
	})
	audit := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   provider.ID.String(),
		EntityName: provider.Name,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type CreateCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone"`
}

type UpdateCustomerRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	IsActive *bool  `json:"is_active"`
}

type CreateAddressRequest struct {
	AddressType string `json:"address_type" binding:"required,oneof=BILLING SHIPPING"`
	AddressLine string `json:"address_line" binding:"required"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code" binding:"required"`
	IsDefault   bool   `json:"is_default"`
}

type UpdateAddressRequest = CreateAddressRequest

type CustomerService interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, id string, req UpdateCustomerRequest) (*model.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	GetCustomer(ctx context.Context, id string) (*model.Customer, error)
	ListCustomers(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error)

	AddAddress(ctx context.Context, customerID string, req CreateAddressRequest) (*model.CustomerAddress, error)
	UpdateAddress(ctx context.Context, customerID, addressID string, req UpdateAddressRequest) (*model.CustomerAddress, error)
	DeleteAddress(ctx context.Context, customerID, addressID string) error
}

type customerService struct {
	customerRepo repository.CustomerRepository
	txManager    repository.TransactionManager
}

func NewCustomerService(customerRepo repository.CustomerRepository, txManager repository.TransactionManager) CustomerService {
	return &customerService{customerRepo: customerRepo, txManager: txManager}
}

func (s *customerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*model.Customer, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if existing, err := s.customerRepo.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, newValidationError("email already in use")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check customer email: %w", err)
	}

	customer := &model.Customer{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Phone:    strings.TrimSpace(req.Phone),
		IsActive: true,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, id string, req UpdateCustomerRequest) (*model.Customer, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	customer.Name = strings.TrimSpace(req.Name)
	customer.Phone = strings.TrimSpace(req.Phone)
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, id string) error {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return err
	}
	if err := s.customerRepo.Delete(ctx, customer.ID); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return nil, newValidationError("invalid customer id")
	}
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("customer not found")
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.customerRepo.List(ctx, page, limit, search)
}

func (s *customerService) AddAddress(ctx context.Context, customerID string, req CreateAddressRequest) (*model.CustomerAddress, error) {
	customer, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	address, err := buildAddress(customer.ID, req)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// A new default displaces the previous one for the same address type.
		if address.IsDefault {
			if clearErr := s.customerRepo.ClearDefaultAddresses(txCtx, customer.ID, address.AddressType); clearErr != nil {
				return fmt.Errorf("failed to clear default addresses: %w", clearErr)
			}
		}
		if createErr := s.customerRepo.CreateAddress(txCtx, address); createErr != nil {
			return fmt.Errorf("failed to create address: %w", createErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *customerService) UpdateAddress(ctx context.Context, customerID, addressID string, req UpdateAddressRequest) (*model.CustomerAddress, error) {
	customer, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	aid, err := uuid.Parse(addressID)
	if err != nil {
		return nil, newValidationError("invalid address id")
	}
	existing, err := s.customerRepo.FindAddressByID(ctx, aid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("address not found")
		}
		return nil, fmt.Errorf("failed to load address: %w", err)
	}
	if existing.CustomerID != customer.ID {
		return nil, errors.New("address not found")
	}

	address, err := buildAddress(customer.ID, req)
	if err != nil {
		return nil, err
	}
	address.ID = existing.ID
	address.CreatedAt = existing.CreatedAt

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if address.IsDefault {
			if clearErr := s.customerRepo.ClearDefaultAddresses(txCtx, customer.ID, address.AddressType); clearErr != nil {
				return fmt.Errorf("failed to clear default addresses: %w", clearErr)
			}
		}
		if updateErr := s.customerRepo.UpdateAddress(txCtx, address); updateErr != nil {
			return fmt.Errorf("failed to update address: %w", updateErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *customerService) DeleteAddress(ctx context.Context, customerID, addressID string) error {
	customer, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	aid, err := uuid.Parse(addressID)
	if err != nil {
		return newValidationError("invalid address id")
	}
	existing, err := s.customerRepo.FindAddressByID(ctx, aid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("address not found")
		}
		return fmt.Errorf("failed to load address: %w", err)
	}
	if existing.CustomerID != customer.ID {
		return errors.New("address not found")
	}

	if err := s.customerRepo.DeleteAddress(ctx, aid); err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

func buildAddress(customerID uuid.UUID, req CreateAddressRequest) (*model.CustomerAddress, error) {
	countryCode := strings.ToUpper(strings.TrimSpace(req.CountryCode))
	if !countryCodePattern.MatchString(countryCode) {
		return nil, newValidationError("country_code must be a two-letter ISO 3166-1 alpha-2 code")
	}
	if req.AddressType != model.AddressTypeBilling && req.AddressType != model.AddressTypeShipping {
		return nil, newValidationError("address_type must be BILLING or SHIPPING")
	}

	return &model.CustomerAddress{
		CustomerID:  customerID,
		AddressType: req.AddressType,
		AddressLine: strings.TrimSpace(req.AddressLine),
		City:        strings.TrimSpace(req.City),
		State:       strings.ToUpper(strings.TrimSpace(req.State)),
		PostalCode:  strings.TrimSpace(req.PostalCode),
		CountryCode: countryCode,
		IsDefault:   req.IsDefault,
	}, nil
}

package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	Update(ctx context.Context, customer *model.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	FindByEmail(ctx context.Context, email string) (*model.Customer, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error)
	CreateAddress(ctx context.Context, address *model.CustomerAddress) error
	UpdateAddress(ctx context.Context, address *model.CustomerAddress) error
	DeleteAddress(ctx context.Context, id uuid.UUID) error
	FindAddressByID(ctx context.Context, id uuid.UUID) (*model.CustomerAddress, error)
	FindDefaultShippingAddress(ctx context.Context, customerID uuid.UUID) (*model.CustomerAddress, error)
	ClearDefaultAddresses(ctx context.Context, customerID uuid.UUID, addressType string) error
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).Create(customer).Error
}

func (r *customerRepository) Update(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).Save(customer).Error
}

func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Customer{}).Error
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).Preload("Addresses").First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByEmail(ctx context.Context, email string) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).Where("email = ?", email).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Customer{})
	if search != "" {
		db = db.Where("name ILIKE ? OR email ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Addresses").Order("created_at desc").Offset(offset).Limit(limit).Find(&customers).Error; err != nil {
		return nil, 0, err
	}

	return customers, total, nil
}

func (r *customerRepository) CreateAddress(ctx context.Context, address *model.CustomerAddress) error {
	return GetDB(ctx, r.db).Create(address).Error
}

func (r *customerRepository) UpdateAddress(ctx context.Context, address *model.CustomerAddress) error {
	return GetDB(ctx, r.db).Save(address).Error
}

func (r *customerRepository) DeleteAddress(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.CustomerAddress{}).Error
}

func (r *customerRepository) FindAddressByID(ctx context.Context, id uuid.UUID) (*model.CustomerAddress, error) {
	var address model.CustomerAddress
	if err := GetDB(ctx, r.db).First(&address, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *customerRepository) FindDefaultShippingAddress(ctx context.Context, customerID uuid.UUID) (*model.CustomerAddress, error) {
	var address model.CustomerAddress
	if err := GetDB(ctx, r.db).
		Where("customer_id = ? AND address_type = ? AND is_default = TRUE", customerID, model.AddressTypeShipping).
		First(&address).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *customerRepository) ClearDefaultAddresses(ctx context.Context, customerID uuid.UUID, addressType string) error {
	return GetDB(ctx, r.db).Model(&model.CustomerAddress{}).
		Where("customer_id = ? AND address_type = ?", customerID, addressType).
		Update("is_default", false).Error
}

package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShippingProviderRepository interface {
	Create(ctx context.Context, provider *model.ShippingProvider) error
	Update(ctx context.Context, provider *model.ShippingProvider) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ShippingProvider, error)
	FindByCode(ctx context.Context, code string) (*model.ShippingProvider, error)
	List(ctx context.Context, page, limit int) ([]model.ShippingProvider, int64, error)
}

type shippingProviderRepository struct {
	db *gorm.DB
}

func NewShippingProviderRepository(db *gorm.DB) ShippingProviderRepository {
	return &shippingProviderRepository{db: db}
}

func (r *shippingProviderRepository) Create(ctx context.Context, provider *model.ShippingProvider) error {
	return GetDB(ctx, r.db).Create(provider).Error
}

func (r *shippingProviderRepository) Update(ctx context.Context, provider *model.ShippingProvider) error {
	return GetDB(ctx, r.db).Save(provider).Error
}

func (r *shippingProviderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ShippingProvider{}).Error
}

func (r *shippingProviderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ShippingProvider, error) {
	var provider model.ShippingProvider
	if err := GetDB(ctx, r.db).First(&provider, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *shippingProviderRepository) FindByCode(ctx context.Context, code string) (*model.ShippingProvider, error) {
	var provider model.ShippingProvider
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&provider).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *shippingProviderRepository) List(ctx context.Context, page, limit int) ([]model.ShippingProvider, int64, error) {
	var providers []model.ShippingProvider
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.ShippingProvider{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name ASC").Offset(offset).Limit(limit).Find(&providers).Error; err != nil {
		return nil, 0, err
	}

	return providers, total, nil
}

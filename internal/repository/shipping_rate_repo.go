package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShippingRateRepository interface {
	Create(ctx context.Context, rate *model.ShippingRate) error
	Update(ctx context.Context, rate *model.ShippingRate) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ShippingRate, error)
	List(ctx context.Context, page, limit int) ([]model.ShippingRate, int64, error)
	ListActiveByZoneIDs(ctx context.Context, zoneIDs []uuid.UUID) ([]model.ShippingRate, error)
}

type shippingRateRepository struct {
	db *gorm.DB
}

func NewShippingRateRepository(db *gorm.DB) ShippingRateRepository {
	return &shippingRateRepository{db: db}
}

func (r *shippingRateRepository) Create(ctx context.Context, rate *model.ShippingRate) error {
	return GetDB(ctx, r.db).Create(rate).Error
}

func (r *shippingRateRepository) Update(ctx context.Context, rate *model.ShippingRate) error {
	return GetDB(ctx, r.db).Save(rate).Error
}

func (r *shippingRateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ShippingRate{}).Error
}

func (r *shippingRateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ShippingRate, error) {
	var rate model.ShippingRate
	if err := GetDB(ctx, r.db).First(&rate, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *shippingRateRepository) List(ctx context.Context, page, limit int) ([]model.ShippingRate, int64, error) {
	var rates []model.ShippingRate
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.ShippingRate{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at ASC").Offset(offset).Limit(limit).Find(&rates).Error; err != nil {
		return nil, 0, err
	}

	return rates, total, nil
}

// ListActiveByZoneIDs returns the active rates of all matched zones, in stable
// creation order so equal-cost rates keep a deterministic ordering downstream.
func (r *shippingRateRepository) ListActiveByZoneIDs(ctx context.Context, zoneIDs []uuid.UUID) ([]model.ShippingRate, error) {
	if len(zoneIDs) == 0 {
		return []model.ShippingRate{}, nil
	}

	var rates []model.ShippingRate
	if err := GetDB(ctx, r.db).
		Where("shipping_zone_id IN ? AND is_active = TRUE", zoneIDs).
		Order("priority DESC, created_at ASC").
		Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

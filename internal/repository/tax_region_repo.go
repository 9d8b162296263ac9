package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaxRegionRepository interface {
	Create(ctx context.Context, region *model.TaxRegion) error
	Update(ctx context.Context, region *model.TaxRegion) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRegion, error)
	List(ctx context.Context, page, limit int) ([]model.TaxRegion, int64, error)
	FindActiveBySubdivision(ctx context.Context, countryCode, subdivisionCode string) (*model.TaxRegion, error)
	FindActiveDefaultForCountry(ctx context.Context, countryCode string) (*model.TaxRegion, error)
	CountActiveDefaultsForCountry(ctx context.Context, countryCode string, excludeID *uuid.UUID) (int64, error)
	ReplaceOverrides(ctx context.Context, regionID uuid.UUID, overrides []model.TaxRateOverride) error
}

type taxRegionRepository struct {
	db *gorm.DB
}

func NewTaxRegionRepository(db *gorm.DB) TaxRegionRepository {
	return &taxRegionRepository{db: db}
}

// preloadOverrides loads overrides in declaration order with their targets, so
// first-match-wins evaluation sees them exactly as the admin defined them.
func preloadOverrides(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Overrides", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Overrides.Targets")
}

func (r *taxRegionRepository) Create(ctx context.Context, region *model.TaxRegion) error {
	return GetDB(ctx, r.db).Create(region).Error
}

func (r *taxRegionRepository) Update(ctx context.Context, region *model.TaxRegion) error {
	return GetDB(ctx, r.db).Save(region).Error
}

func (r *taxRegionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TaxRegion{}).Error
}

func (r *taxRegionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRegion, error) {
	var region model.TaxRegion
	if err := preloadOverrides(GetDB(ctx, r.db)).First(&region, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &region, nil
}

func (r *taxRegionRepository) List(ctx context.Context, page, limit int) ([]model.TaxRegion, int64, error) {
	var regions []model.TaxRegion
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.TaxRegion{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := preloadOverrides(db).
		Order("country_code ASC, subdivision_code ASC NULLS FIRST").
		Offset(offset).Limit(limit).
		Find(&regions).Error; err != nil {
		return nil, 0, err
	}

	return regions, total, nil
}

func (r *taxRegionRepository) FindActiveBySubdivision(ctx context.Context, countryCode, subdivisionCode string) (*model.TaxRegion, error) {
	var region model.TaxRegion
	if err := preloadOverrides(GetDB(ctx, r.db)).
		Where("country_code = ? AND subdivision_code = ? AND status = ?",
			countryCode, subdivisionCode, model.TaxRegionStatusActive).
		First(&region).Error; err != nil {
		return nil, err
	}
	return &region, nil
}

func (r *taxRegionRepository) FindActiveDefaultForCountry(ctx context.Context, countryCode string) (*model.TaxRegion, error) {
	var region model.TaxRegion
	if err := preloadOverrides(GetDB(ctx, r.db)).
		Where("country_code = ? AND status = ? AND is_default = TRUE AND parent_region_id IS NULL",
			countryCode, model.TaxRegionStatusActive).
		First(&region).Error; err != nil {
		return nil, err
	}
	return &region, nil
}

func (r *taxRegionRepository) CountActiveDefaultsForCountry(ctx context.Context, countryCode string, excludeID *uuid.UUID) (int64, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.TaxRegion{}).
		Where("country_code = ? AND status = ? AND is_default = TRUE AND parent_region_id IS NULL",
			countryCode, model.TaxRegionStatusActive)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ReplaceOverrides swaps the region's override list atomically, preserving the
// caller-supplied declaration order via the position column.
func (r *taxRegionRepository) ReplaceOverrides(ctx context.Context, regionID uuid.UUID, overrides []model.TaxRateOverride) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("region_id = ?", regionID).Delete(&model.TaxRateOverride{}).Error; err != nil {
		return err
	}
	for i := range overrides {
		overrides[i].RegionID = regionID
		overrides[i].Position = i
		if err := db.Create(&overrides[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

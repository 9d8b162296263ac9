package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClaimRepository interface {
	Create(ctx context.Context, claim *model.Claim) error
	Update(ctx context.Context, claim *model.Claim) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Claim, error)
	List(ctx context.Context, page, limit int, status string) ([]model.Claim, int64, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Claim, error)
}

type claimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) ClaimRepository {
	return &claimRepository{db: db}
}

func (r *claimRepository) Create(ctx context.Context, claim *model.Claim) error {
	return GetDB(ctx, r.db).Create(claim).Error
}

func (r *claimRepository) Update(ctx context.Context, claim *model.Claim) error {
	return GetDB(ctx, r.db).Save(claim).Error
}

func (r *claimRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Claim, error) {
	var claim model.Claim
	if err := GetDB(ctx, r.db).
		Preload("Order").
		Preload("Requester").
		Preload("Resolver").
		First(&claim, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *claimRepository) List(ctx context.Context, page, limit int, status string) ([]model.Claim, int64, error) {
	var claims []model.Claim
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Claim{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Order").
		Preload("Requester").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&claims).Error; err != nil {
		return nil, 0, err
	}

	return claims, total, nil
}

func (r *claimRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Claim, error) {
	var claims []model.Claim
	if err := GetDB(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at desc").
		Find(&claims).Error; err != nil {
		return nil, err
	}
	return claims, nil
}

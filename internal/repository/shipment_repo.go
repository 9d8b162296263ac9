package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShipmentRepository interface {
	Create(ctx context.Context, shipment *model.Shipment) error
	Update(ctx context.Context, shipment *model.Shipment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Shipment, error)
	FindByTrackingCode(ctx context.Context, trackingCode string) (*model.Shipment, error)
	List(ctx context.Context, page, limit int, status string) ([]model.Shipment, int64, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Shipment, error)
	CountCreatedToday(ctx context.Context) (int64, error)
}

type shipmentRepository struct {
	db *gorm.DB
}

func NewShipmentRepository(db *gorm.DB) ShipmentRepository {
	return &shipmentRepository{db: db}
}

func (r *shipmentRepository) Create(ctx context.Context, shipment *model.Shipment) error {
	return GetDB(ctx, r.db).Create(shipment).Error
}

func (r *shipmentRepository) Update(ctx context.Context, shipment *model.Shipment) error {
	return GetDB(ctx, r.db).Save(shipment).Error
}

func (r *shipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	var shipment model.Shipment
	if err := GetDB(ctx, r.db).
		Preload("Order").
		Preload("ShippingRate").
		First(&shipment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepository) FindByTrackingCode(ctx context.Context, trackingCode string) (*model.Shipment, error) {
	var shipment model.Shipment
	if err := GetDB(ctx, r.db).Where("tracking_code = ?", trackingCode).First(&shipment).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepository) List(ctx context.Context, page, limit int, status string) ([]model.Shipment, int64, error) {
	var shipments []model.Shipment
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Shipment{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Order").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&shipments).Error; err != nil {
		return nil, 0, err
	}

	return shipments, total, nil
}

func (r *shipmentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Shipment, error) {
	var shipments []model.Shipment
	if err := GetDB(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at desc").
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

// CountCreatedToday feeds the daily sequence part of shipment numbers.
func (r *shipmentRepository) CountCreatedToday(ctx context.Context) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Shipment{}).
		Where("created_at >= CURRENT_DATE").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

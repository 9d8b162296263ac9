package repository

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"

	"gorm.io/gorm"
)

type StatisticsRepository interface {
	GetOrderTotals(ctx context.Context, start, end time.Time) (revenue, tax, shipping float64, count int, err error)
	GetTopProducts(ctx context.Context, start, end time.Time, limit int) ([]model.ProductRanking, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

// GetOrderTotals sums revenue, tax and shipping over non-cancelled, non-draft
// orders in the given window.
func (r *statisticsRepository) GetOrderTotals(ctx context.Context, start, end time.Time) (float64, float64, float64, int, error) {
	var result struct {
		Revenue  float64
		Tax      float64
		Shipping float64
		Count    int
	}
	if err := r.db.WithContext(ctx).Table("orders").
		Select("COALESCE(SUM(total_amount), 0) as revenue, COALESCE(SUM(tax_amount), 0) as tax, COALESCE(SUM(shipping_cost), 0) as shipping, COUNT(id) as count").
		Where("status NOT IN ? AND created_at >= ? AND created_at <= ?",
			[]string{model.OrderStatusDraft, model.OrderStatusCancelled}, start, end).
		Scan(&result).Error; err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to query order totals: %w", err)
	}
	return result.Revenue, result.Tax, result.Shipping, result.Count, nil
}

func (r *statisticsRepository) GetTopProducts(ctx context.Context, start, end time.Time, limit int) ([]model.ProductRanking, error) {
	var rankings []model.ProductRanking
	if err := r.db.WithContext(ctx).Table("order_items").
		Select("products.id as product_id, products.name as product_name, products.sku as product_sku, SUM(order_items.quantity) as total_quantity, SUM(order_items.quantity * order_items.unit_price) as total_value").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status NOT IN ? AND orders.created_at >= ? AND orders.created_at <= ?",
			[]string{model.OrderStatusDraft, model.OrderStatusCancelled}, start, end).
		Group("products.id, products.name, products.sku").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	return rankings, nil
}

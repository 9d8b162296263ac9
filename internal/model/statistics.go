package model

import (
	"time"
)

// SalesStatisticsResponse aggregates order totals and ranking data for the dashboard
type SalesStatisticsResponse struct {
	TotalOrders          int              `json:"total_orders"`
	TotalRevenue         float64          `json:"total_revenue"`
	TotalTaxCollected    float64          `json:"total_tax_collected"`
	TotalShippingRevenue float64          `json:"total_shipping_revenue"`
	TopProducts          []ProductRanking `json:"top_products"`
	TimeRangeStartDate   time.Time        `json:"time_range_start_date"`
	TimeRangeEndDate     time.Time        `json:"time_range_end_date"`
}

// ProductRanking represents a ranked product based on accumulated quantities
type ProductRanking struct {
	ProductID     string  `json:"product_id"`
	ProductName   string  `json:"product_name"`
	ProductSKU    string  `json:"product_sku"`
	TotalQuantity int     `json:"total_quantity"`
	TotalValue    float64 `json:"total_value"`
}

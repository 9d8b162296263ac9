package service

import (
	"context"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
)

type StatisticsService interface {
	GetSalesStatistics(ctx context.Context, startDate, endDate time.Time) (model.SalesStatisticsResponse, error)
}

type statisticsService struct {
	statsRepo repository.StatisticsRepository
}

func NewStatisticsService(statsRepo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{statsRepo: statsRepo}
}

// GetSalesStatistics aggregates revenue, collected tax, shipping revenue and
// product rankings over the time window. Draft and cancelled orders are
// excluded from every figure.
func (s *statisticsService) GetSalesStatistics(ctx context.Context, startDate, endDate time.Time) (model.SalesStatisticsResponse, error) {
	var response model.SalesStatisticsResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	revenue, tax, shipping, count, err := s.statsRepo.GetOrderTotals(ctx, startDate, endDate)
	if err != nil {
		return response, err
	}
	response.TotalOrders = count
	response.TotalRevenue = revenue
	response.TotalTaxCollected = tax
	response.TotalShippingRevenue = shipping

	topProducts, err := s.statsRepo.GetTopProducts(ctx, startDate, endDate, 5)
	if err != nil {
		return response, err
	}
	response.TopProducts = topProducts

	return response, nil
}

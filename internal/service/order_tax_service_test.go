package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deliverableOrder(items ...model.OrderItem) *model.Order {
	return &model.Order{
		ID:              uuid.New(),
		OrderCode:       "ORD-1001",
		Status:          model.OrderStatusPending,
		ShipCountryCode: "US",
		ShipState:       "CA",
		ShippingCost:    mustDecimal("10.00"),
		Items:           items,
	}
}

func TestApplyOrderTaxes_TaxesEveryLineThroughTheRegion(t *testing.T) {
	us, ca := usHierarchy(false)
	taxSvc := NewTaxCalculationService(&fakeTaxRegionRepo{regions: []*model.TaxRegion{us, ca}})

	order := deliverableOrder(
		model.OrderItem{ID: uuid.New(), ProductID: uuid.New(), Quantity: 2, UnitPrice: mustDecimal("25.00")}, // line 50.00
		model.OrderItem{ID: uuid.New(), ProductID: uuid.New(), Quantity: 1, UnitPrice: mustDecimal("50.00")}, // line 50.00
	)
	orderRepo := newFakeOrderRepo(order)
	auditRepo := &fakeAuditRepo{}
	svc := NewOrderTaxService(orderRepo, taxSvc, auditRepo, fakeTxManager{}, nil)

	result, err := svc.ApplyOrderTaxes(context.Background(), uuid.NewString(), order.ID.String())
	require.NoError(t, err)
	require.NotNil(t, result)

	// 7.25% per line, rounded per line (3.63 + 3.63), plus the pre-set
	// shipping cost in the grand total.
	assert.Equal(t, ca.ID.String(), result.RegionID)
	assert.Equal(t, "California", result.RegionName)
	assert.Equal(t, "100.00", result.Subtotal)
	assert.Equal(t, "7.26", result.TaxAmount)
	assert.Equal(t, "117.26", result.TotalAmount)

	require.Len(t, orderRepo.updatedItems, 2)
	assert.True(t, orderRepo.updatedItems[0].TaxAmount.Equal(mustDecimal("3.63")))
	assert.True(t, orderRepo.updatedItems[1].TaxAmount.Equal(mustDecimal("3.63")))

	// The order row carries region, rate and totals.
	require.NotNil(t, orderRepo.updated)
	require.NotNil(t, orderRepo.updated.TaxRegionID)
	assert.Equal(t, ca.ID, *orderRepo.updated.TaxRegionID)
	assert.True(t, orderRepo.updated.TaxAmount.Equal(mustDecimal("7.26")))

	// The run was audited.
	require.Len(t, auditRepo.entries, 1)
	assert.Equal(t, model.ActionApplyTaxes, auditRepo.entries[0].Action)
	assert.Equal(t, order.ID.String(), auditRepo.entries[0].EntityID)
}

func TestApplyOrderTaxes_NoRegionRecordsZeroTax(t *testing.T) {
	taxSvc := NewTaxCalculationService(&fakeTaxRegionRepo{})

	order := deliverableOrder(
		model.OrderItem{ID: uuid.New(), ProductID: uuid.New(), Quantity: 1, UnitPrice: mustDecimal("80.00")},
	)
	order.ShipCountryCode = "FR"
	orderRepo := newFakeOrderRepo(order)
	svc := NewOrderTaxService(orderRepo, taxSvc, &fakeAuditRepo{}, fakeTxManager{}, nil)

	result, err := svc.ApplyOrderTaxes(context.Background(), uuid.NewString(), order.ID.String())
	require.NoError(t, err)

	assert.Empty(t, result.RegionID)
	assert.Equal(t, "80.00", result.Subtotal)
	assert.Equal(t, "0.00", result.TaxAmount)
	assert.Equal(t, "90.00", result.TotalAmount) // subtotal + shipping

	require.NotNil(t, orderRepo.updated)
	assert.Nil(t, orderRepo.updated.TaxRegionID)
	assert.True(t, orderRepo.updated.TaxRate.IsZero())
}

func TestApplyOrderTaxes_RequiresShippingCountry(t *testing.T) {
	order := deliverableOrder(
		model.OrderItem{ID: uuid.New(), ProductID: uuid.New(), Quantity: 1, UnitPrice: mustDecimal("10.00")},
	)
	order.ShipCountryCode = ""
	svc := NewOrderTaxService(newFakeOrderRepo(order), NewTaxCalculationService(&fakeTaxRegionRepo{}), &fakeAuditRepo{}, fakeTxManager{}, nil)

	_, err := svc.ApplyOrderTaxes(context.Background(), uuid.NewString(), order.ID.String())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestApplyOrderTaxes_OrderNotFound(t *testing.T) {
	svc := NewOrderTaxService(newFakeOrderRepo(), NewTaxCalculationService(&fakeTaxRegionRepo{}), &fakeAuditRepo{}, fakeTxManager{}, nil)

	_, err := svc.ApplyOrderTaxes(context.Background(), uuid.NewString(), uuid.NewString())
	require.Error(t, err)
	assert.EqualError(t, err, "order not found")
}

func TestApplyOrderTaxes_InvalidOrderID(t *testing.T) {
	svc := NewOrderTaxService(newFakeOrderRepo(), NewTaxCalculationService(&fakeTaxRegionRepo{}), &fakeAuditRepo{}, fakeTxManager{}, nil)

	_, err := svc.ApplyOrderTaxes(context.Background(), uuid.NewString(), "not-a-uuid")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestApplyOrderTaxes_ProductTypeOverrideAppliesPerLine(t *testing.T) {
	us, ca := usHierarchy(false)
	ca.Overrides = []model.TaxRateOverride{
		{
			Name: "Digital Goods",
			Rate: mustDecimal("0.01"),
			Targets: []model.TaxOverrideTarget{
				{TargetType: model.TaxOverrideTargetProductType, TargetID: "digital"},
			},
		},
	}
	taxSvc := NewTaxCalculationService(&fakeTaxRegionRepo{regions: []*model.TaxRegion{us, ca}})

	order := deliverableOrder(
		model.OrderItem{
			ID: uuid.New(), ProductID: uuid.New(), Quantity: 1, UnitPrice: mustDecimal("100.00"),
			Product: model.Product{ProductType: "digital"},
		},
		model.OrderItem{
			ID: uuid.New(), ProductID: uuid.New(), Quantity: 1, UnitPrice: mustDecimal("100.00"),
			Product: model.Product{ProductType: "physical"},
		},
	)
	order.ShippingCost = decimal.Zero
	orderRepo := newFakeOrderRepo(order)
	svc := NewOrderTaxService(orderRepo, taxSvc, &fakeAuditRepo{}, fakeTxManager{}, nil)

	result, err := svc.ApplyOrderTaxes(context.Background(), uuid.NewString(), order.ID.String())
	require.NoError(t, err)

	// 1.00 on the digital line, 7.25 on the physical line.
	assert.Equal(t, "8.25", result.TaxAmount)
	require.Len(t, orderRepo.updatedItems, 2)
	assert.True(t, orderRepo.updatedItems[0].TaxAmount.Equal(mustDecimal("1.00")))
	assert.True(t, orderRepo.updatedItems[1].TaxAmount.Equal(mustDecimal("7.25")))
}

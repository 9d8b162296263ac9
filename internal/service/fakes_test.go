package service

import (
	"context"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository fakes backing the service tests. They implement the
// same lookup semantics as the SQL queries (active filters, not-found errors)
// so the services under test behave exactly as against Postgres.

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func float64Ptr(f float64) *float64 {
	return &f
}

// --- tax regions ---

type fakeTaxRegionRepo struct {
	regions []*model.TaxRegion
}

func (f *fakeTaxRegionRepo) Create(ctx context.Context, region *model.TaxRegion) error {
	f.regions = append(f.regions, region)
	return nil
}

func (f *fakeTaxRegionRepo) Update(ctx context.Context, region *model.TaxRegion) error {
	return nil
}

func (f *fakeTaxRegionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeTaxRegionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRegion, error) {
	for _, r := range f.regions {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTaxRegionRepo) List(ctx context.Context, page, limit int) ([]model.TaxRegion, int64, error) {
	out := make([]model.TaxRegion, 0, len(f.regions))
	for _, r := range f.regions {
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTaxRegionRepo) FindActiveBySubdivision(ctx context.Context, countryCode, subdivisionCode string) (*model.TaxRegion, error) {
	for _, r := range f.regions {
		if r.Status != model.TaxRegionStatusActive || r.SubdivisionCode == nil {
			continue
		}
		if r.CountryCode == countryCode && *r.SubdivisionCode == subdivisionCode {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTaxRegionRepo) FindActiveDefaultForCountry(ctx context.Context, countryCode string) (*model.TaxRegion, error) {
	for _, r := range f.regions {
		if r.Status != model.TaxRegionStatusActive || !r.IsDefault || r.ParentRegionID != nil {
			continue
		}
		if r.CountryCode == countryCode {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTaxRegionRepo) CountActiveDefaultsForCountry(ctx context.Context, countryCode string, excludeID *uuid.UUID) (int64, error) {
	var count int64
	for _, r := range f.regions {
		if r.Status != model.TaxRegionStatusActive || !r.IsDefault || r.ParentRegionID != nil || r.CountryCode != countryCode {
			continue
		}
		if excludeID != nil && r.ID == *excludeID {
			continue
		}
		count++
	}
	return count, nil
}

func (f *fakeTaxRegionRepo) ReplaceOverrides(ctx context.Context, regionID uuid.UUID, overrides []model.TaxRateOverride) error {
	return nil
}

// --- shipping zones / rates / providers ---

type fakeShippingZoneRepo struct {
	zones []model.ShippingZone
}

func (f *fakeShippingZoneRepo) Create(ctx context.Context, zone *model.ShippingZone) error {
	f.zones = append(f.zones, *zone)
	return nil
}

func (f *fakeShippingZoneRepo) Update(ctx context.Context, zone *model.ShippingZone) error {
	return nil
}

func (f *fakeShippingZoneRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeShippingZoneRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ShippingZone, error) {
	for i := range f.zones {
		if f.zones[i].ID == id {
			return &f.zones[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeShippingZoneRepo) List(ctx context.Context, page, limit int) ([]model.ShippingZone, int64, error) {
	return f.zones, int64(len(f.zones)), nil
}

func (f *fakeShippingZoneRepo) ListActiveByCountry(ctx context.Context, countryCode string) ([]model.ShippingZone, error) {
	var out []model.ShippingZone
	for _, z := range f.zones {
		if !z.IsActive {
			continue
		}
		for _, c := range z.Countries {
			if c == countryCode {
				out = append(out, z)
				break
			}
		}
	}
	return out, nil
}

type fakeShippingRateRepo struct {
	rates []model.ShippingRate
}

func (f *fakeShippingRateRepo) Create(ctx context.Context, rate *model.ShippingRate) error {
	f.rates = append(f.rates, *rate)
	return nil
}

func (f *fakeShippingRateRepo) Update(ctx context.Context, rate *model.ShippingRate) error {
	return nil
}

func (f *fakeShippingRateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeShippingRateRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ShippingRate, error) {
	for i := range f.rates {
		if f.rates[i].ID == id {
			return &f.rates[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeShippingRateRepo) List(ctx context.Context, page, limit int) ([]model.ShippingRate, int64, error) {
	return f.rates, int64(len(f.rates)), nil
}

func (f *fakeShippingRateRepo) ListActiveByZoneIDs(ctx context.Context, zoneIDs []uuid.UUID) ([]model.ShippingRate, error) {
	ids := make(map[uuid.UUID]bool, len(zoneIDs))
	for _, id := range zoneIDs {
		ids[id] = true
	}
	var out []model.ShippingRate
	for _, r := range f.rates {
		if r.IsActive && ids[r.ShippingZoneID] {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeProviderRepo struct {
	providers []*model.ShippingProvider
}

func (f *fakeProviderRepo) Create(ctx context.Context, provider *model.ShippingProvider) error {
	f.providers = append(f.providers, provider)
	return nil
}

func (f *fakeProviderRepo) Update(ctx context.Context, provider *model.ShippingProvider) error {
	return nil
}

func (f *fakeProviderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeProviderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ShippingProvider, error) {
	for _, p := range f.providers {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProviderRepo) FindByCode(ctx context.Context, code string) (*model.ShippingProvider, error) {
	for _, p := range f.providers {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProviderRepo) List(ctx context.Context, page, limit int) ([]model.ShippingProvider, int64, error) {
	out := make([]model.ShippingProvider, 0, len(f.providers))
	for _, p := range f.providers {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

// --- orders / audit / tx ---

type fakeOrderRepo struct {
	orders       map[uuid.UUID]*model.Order
	updatedItems []model.OrderItem
	updated      *model.Order
}

func newFakeOrderRepo(orders ...*model.Order) *fakeOrderRepo {
	m := make(map[uuid.UUID]*model.Order, len(orders))
	for _, o := range orders {
		m[o.ID] = o
	}
	return &fakeOrderRepo{orders: m}
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *model.Order) error {
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) CreateItem(ctx context.Context, item *model.OrderItem) error {
	return nil
}

func (f *fakeOrderRepo) Update(ctx context.Context, order *model.Order) error {
	f.updated = order
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) UpdateItem(ctx context.Context, item *model.OrderItem) error {
	f.updatedItems = append(f.updatedItems, *item)
	return nil
}

func (f *fakeOrderRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	if o, ok := f.orders[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if o, ok := f.orders[id]; ok {
		o.Status = status
	}
	return nil
}

func (f *fakeOrderRepo) List(ctx context.Context, page, limit int, status string) ([]model.Order, int64, error) {
	return nil, 0, nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

// fakeTxManager runs the function directly, no transaction.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

var _ repository.TaxRegionRepository = (*fakeTaxRegionRepo)(nil)
var _ repository.ShippingZoneRepository = (*fakeShippingZoneRepo)(nil)
var _ repository.ShippingRateRepository = (*fakeShippingRateRepo)(nil)
var _ repository.ShippingProviderRepository = (*fakeProviderRepo)(nil)
var _ repository.OrderRepository = (*fakeOrderRepo)(nil)
var _ repository.AuditRepository = (*fakeAuditRepo)(nil)
var _ repository.TransactionManager = (fakeTxManager{})

package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"sipndash/internal/dto"
	"sipndash/internal/infra"
	"sipndash/internal/model"
	"sipndash/internal/repository"
	"sipndash/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Products ──────────────────────────────────────────────────────────────────

type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo(ps ...*model.Product) *stubProductRepo {
	r := &stubProductRepo{products: map[uuid.UUID]*model.Product{}}
	for _, p := range ps {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.products[p.ID] = p
	}
	return r
}

func (r *stubProductRepo) stock(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id].Stock
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.products {
		if e.Catalog == p.Catalog && e.Name == p.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, catalog model.Catalog, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.Catalog != catalog {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) List(_ context.Context, f dto.ProductFilter) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if string(p.Catalog) == f.Catalog {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(ctx context.Context, p *model.Product) error { return r.UpdateTx(nil, p) }

func (r *stubProductRepo) UpdateTx(_ *gorm.DB, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	cp.Category = nil
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) setActive(catalog model.Catalog, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.Catalog != catalog {
		return gorm.ErrRecordNotFound
	}
	p.Active = active
	return nil
}

func (r *stubProductRepo) SoftDelete(_ context.Context, catalog model.Catalog, id uuid.UUID) error {
	return r.setActive(catalog, id, false)
}

func (r *stubProductRepo) Reactivate(_ context.Context, catalog model.Catalog, id uuid.UUID) error {
	return r.setActive(catalog, id, true)
}

func (r *stubProductRepo) SetImageURL(_ context.Context, id uuid.UUID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[id].ImageURL = &url
	return nil
}

func (r *stubProductRepo) FindByNameTx(_ *gorm.DB, _ model.Catalog, _ string) (*model.Product, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) CreateTx(_ *gorm.DB, p *model.Product) (bool, error) {
	return true, r.Create(context.Background(), p)
}

func (r *stubProductRepo) UpdateDetailsTx(_ *gorm.DB, _ uuid.UUID, _ string, _ decimal.Decimal, _ uuid.UUID) error {
	return nil
}

func (r *stubProductRepo) LockStockTx(_ *gorm.DB, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return p.Stock, nil
}

func (r *stubProductRepo) DecrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.products[id]
	if p.Stock >= qty {
		p.Stock -= qty
	} else {
		p.Stock = 0
	}
	return nil
}

func (r *stubProductRepo) IncrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[id].Stock += qty
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

// ── Categories ────────────────────────────────────────────────────────────────

type stubCategoryRepo struct {
	cats map[uuid.UUID]*model.Category
}

func newStubCategoryRepo(cs ...*model.Category) *stubCategoryRepo {
	r := &stubCategoryRepo{cats: map[uuid.UUID]*model.Category{}}
	for _, c := range cs {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		r.cats[c.ID] = c
	}
	return r
}

func (r *stubCategoryRepo) Create(_ context.Context, c *model.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.cats[c.ID] = c
	return nil
}

func (r *stubCategoryRepo) List(_ context.Context, catalog model.Catalog, includeInactive bool) ([]model.Category, error) {
	var out []model.Category
	for _, c := range r.cats {
		if c.Catalog == catalog && (includeInactive || c.Active) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubCategoryRepo) FindByID(_ context.Context, catalog model.Catalog, id uuid.UUID) (*model.Category, error) {
	c, ok := r.cats[id]
	if !ok || c.Catalog != catalog {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCategoryRepo) FindByName(_ context.Context, catalog model.Catalog, name string) (*model.Category, error) {
	return r.FindByNameTx(nil, catalog, name)
}

func (r *stubCategoryRepo) Update(_ context.Context, c *model.Category) error {
	cp := *c
	r.cats[c.ID] = &cp
	return nil
}

func (r *stubCategoryRepo) Deactivate(_ context.Context, catalog model.Catalog, id uuid.UUID) error {
	c, ok := r.cats[id]
	if !ok || c.Catalog != catalog {
		return gorm.ErrRecordNotFound
	}
	c.Active = false
	return nil
}

func (r *stubCategoryRepo) FindByNameTx(_ *gorm.DB, catalog model.Catalog, name string) (*model.Category, error) {
	for _, c := range r.cats {
		if c.Catalog == catalog && c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCategoryRepo) CreateTx(_ *gorm.DB, c *model.Category) (bool, error) {
	return true, r.Create(context.Background(), c)
}

func (r *stubCategoryRepo) DB() *gorm.DB { return nil }

// ── Orders, customers, movements, payments ────────────────────────────────────

type stubOrderRepo struct {
	orders   map[uuid.UUID]*model.Order
	products *stubProductRepo
}

func newStubOrderRepo(products *stubProductRepo) *stubOrderRepo {
	return &stubOrderRepo{orders: map[uuid.UUID]*model.Order{}, products: products}
}

func (r *stubOrderRepo) CreateTx(_ *gorm.DB, o *model.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	r.orders[o.ID] = &cp
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Order, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubOrderRepo) List(_ context.Context, _ dto.OrderFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) UpdateTx(_ *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["status"].(string); ok {
		o.Status = v
	}
	if v, ok := fields["seen"].(bool); ok {
		o.Seen = v
	}
	return nil
}

func (r *stubOrderRepo) UpdatePaymentStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.PaymentStatus = status
	return nil
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

type stubCustomerRepo struct {
	byEmail map[string]*model.Customer
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{byEmail: map[string]*model.Customer{}}
}

func (r *stubCustomerRepo) UpsertByEmailTx(_ *gorm.DB, c *model.Customer) (*model.Customer, error) {
	if existing, ok := r.byEmail[c.Email]; ok {
		existing.Name, existing.Phone, existing.Address = c.Name, c.Phone, c.Address
		return existing, nil
	}
	c.ID = uuid.New()
	r.byEmail[c.Email] = c
	return c, nil
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	for _, c := range r.byEmail {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCustomerRepo) List(_ context.Context, _ string, _, _ int) ([]model.Customer, int64, error) {
	out := make([]model.Customer, 0, len(r.byEmail))
	for _, c := range r.byEmail {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) ListByReferenceTx(_ *gorm.DB, ref uuid.UUID, kind string) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.Kind == kind && m.ReferenceID != nil && *m.ReferenceID == ref {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubMovementRepo) List(_ context.Context, _ repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	return r.movements, int64(len(r.movements)), nil
}

type stubPaymentRepo struct {
	payments map[string]*model.Payment
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{payments: map[string]*model.Payment{}}
}

func (r *stubPaymentRepo) CreateTx(_ *gorm.DB, p *model.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.payments[p.CheckoutRequestID] = &cp
	return nil
}

func (r *stubPaymentRepo) FindByCheckoutID(_ context.Context, id string) (*model.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubPaymentRepo) ListDueForCheck(_ context.Context, now time.Time, limit int) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range r.payments {
		if p.Status == model.PaymentStatusPending && p.NextCheckAt != nil && !p.NextCheckAt.After(now) {
			out = append(out, *p)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubPaymentRepo) Update(_ context.Context, p *model.Payment) error {
	return r.UpdateTx(nil, p)
}

func (r *stubPaymentRepo) UpdateTx(_ *gorm.DB, p *model.Payment) error {
	cp := *p
	r.payments[p.CheckoutRequestID] = &cp
	return nil
}

type stubPriceHistoryRepo struct {
	rows []model.PriceHistory
}

func (r *stubPriceHistoryRepo) CreateTx(_ *gorm.DB, h *model.PriceHistory) error {
	r.rows = append(r.rows, *h)
	return nil
}

func (r *stubPriceHistoryRepo) ListByProduct(_ context.Context, productID uuid.UUID, _, _ int) ([]model.PriceHistory, int64, error) {
	var out []model.PriceHistory
	for _, h := range r.rows {
		if h.ProductID == productID {
			out = append(out, h)
		}
	}
	return out, int64(len(out)), nil
}

// ── Gateway and queue ─────────────────────────────────────────────────────────

type stubGateway struct {
	pushErr   error
	pushes    []infra.STKPushRequest
	queryResp *infra.STKQueryResponse
	queryErr  error
	queries   int
}

func (g *stubGateway) STKPush(_ context.Context, req infra.STKPushRequest) (*infra.STKPushResponse, error) {
	g.pushes = append(g.pushes, req)
	if g.pushErr != nil {
		return nil, g.pushErr
	}
	return &infra.STKPushResponse{
		MerchantRequestID: "mr-" + req.Phone,
		CheckoutRequestID: "ws_CO_" + uuid.NewString(),
		ResponseCode:      "0",
	}, nil
}

func (g *stubGateway) STKQuery(_ context.Context, _ string) (*infra.STKQueryResponse, error) {
	g.queries++
	return g.queryResp, g.queryErr
}

type recordingReceipts struct {
	jobs []worker.ReceiptJobPayload
	err  error
}

func (q *recordingReceipts) EnqueueReceipt(_ context.Context, p worker.ReceiptJobPayload) error {
	q.jobs = append(q.jobs, p)
	return q.err
}

var errGatewayDown = errors.New("dial tcp: connection refused")

var (
	_ repository.ProductRepository       = (*stubProductRepo)(nil)
	_ repository.CategoryRepository      = (*stubCategoryRepo)(nil)
	_ repository.OrderRepository         = (*stubOrderRepo)(nil)
	_ repository.CustomerRepository      = (*stubCustomerRepo)(nil)
	_ repository.StockMovementRepository = (*stubMovementRepo)(nil)
	_ repository.PaymentRepository       = (*stubPaymentRepo)(nil)
	_ repository.PriceHistoryRepository  = (*stubPriceHistoryRepo)(nil)
	_ infra.PaymentGateway               = (*stubGateway)(nil)
)

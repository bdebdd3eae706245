package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sipndash/internal/dto"
	"sipndash/internal/infra"
	"sipndash/internal/model"
	"sipndash/internal/repository"
	"sipndash/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// totalTolerance is the largest accepted gap between the client total and the server total.
var totalTolerance = decimal.New(1, -2)

// firstPaymentCheck is how long after an STK push the reconciler first queries its status
// if no callback has arrived.
const firstPaymentCheck = 2 * time.Minute

type OrderService interface {
	PlaceOrder(ctx context.Context, req dto.PlaceOrderRequest) (*dto.OrderCreatedResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateOrderRequest) (*dto.OrderResponse, error)
}

// ReceiptQueue receives a job once an order is committed; *worker.Dispatcher satisfies it.
type ReceiptQueue interface {
	EnqueueReceipt(ctx context.Context, payload worker.ReceiptJobPayload) error
}

var _ ReceiptQueue = (*worker.Dispatcher)(nil)

type orderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	customers repository.CustomerRepository
	movements repository.StockMovementRepository
	payments  repository.PaymentRepository
	gateway   infra.PaymentGateway // nil when M-Pesa is not configured
	cb        *infra.CircuitBreaker
	receipts  ReceiptQueue
	now       func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	customers repository.CustomerRepository,
	movements repository.StockMovementRepository,
	payments repository.PaymentRepository,
	gateway infra.PaymentGateway,
	cb *infra.CircuitBreaker,
	receipts ReceiptQueue,
) OrderService {
	if cb == nil {
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig())
	}
	return &orderService{
		orders:    orders,
		products:  products,
		customers: customers,
		movements: movements,
		payments:  payments,
		gateway:   gateway,
		cb:        cb,
		receipts:  receipts,
		now:       time.Now,
	}
}

type orderLine struct {
	product  model.Product
	quantity int
	subtotal decimal.Decimal
}

// ── PlaceOrder ────────────────────────────────────────────────────────────────
//   1. Validate the payload
//   2. Resolve every product (unknown or inactive aborts the order)
//   3. Recompute the total and compare with the client's
//   4. mpesa: STK push through the circuit breaker, before any write
//   5. TX: upsert customer, create order+items, lock+decrement stock, movements, payment row
//   6. (async) enqueue the receipt job

func (s *orderService) PlaceOrder(ctx context.Context, req dto.PlaceOrderRequest) (*dto.OrderCreatedResponse, error) {
	if err := validatePlaceOrder(req); err != nil {
		return nil, err
	}
	method := req.PaymentMethod
	if method == "" {
		method = model.PaymentMethodCash
	}

	// 2. Resolve products (pre-flight, outside TX)
	lines, subtotal, err := s.resolveLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	// 3. Server-side total
	serverTotal := subtotal.Add(req.DeliveryFee).Add(req.Tax)
	if req.Total.Sub(serverTotal).Abs().GreaterThan(totalTolerance) {
		return nil, invalid("total", fmt.Sprintf("does not match order contents (expected %s)", serverTotal.StringFixed(2)))
	}

	// 4. Payment trigger
	var (
		push   *infra.STKPushResponse
		msisdn string
		amount int64
	)
	if method == model.PaymentMethodMpesa {
		msisdn, err = infra.NormalizeMSISDN(req.Phone)
		if err != nil {
			return nil, invalid("phone", "must be a Kenyan mobile number")
		}
		amount = serverTotal.Ceil().IntPart()
		push, err = s.triggerPayment(ctx, msisdn, amount)
		if err != nil {
			return nil, err
		}
	}

	paymentStatus := model.PaymentStatusNotRequired
	if push != nil {
		paymentStatus = model.PaymentStatusPending
	}

	order := model.Order{
		Total:         serverTotal,
		Status:        model.OrderStatusProcessing,
		PaymentMethod: method,
		PaymentStatus: paymentStatus,
		DeliveryFee:   req.DeliveryFee,
		Tax:           req.Tax,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	}
	for _, l := range lines {
		order.Items = append(order.Items, model.OrderItem{
			ProductID: l.product.ID,
			Quantity:  l.quantity,
			UnitPrice: l.product.Price,
			Subtotal:  l.subtotal,
		})
	}

	// 5. ACID transaction
	txErr := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		customer, err := s.customers.UpsertByEmailTx(tx, &model.Customer{
			Name:      strings.TrimSpace(req.Name),
			Email:     strings.ToLower(strings.TrimSpace(req.Email)),
			Phone:     strings.TrimSpace(req.Phone),
			Address:   strings.TrimSpace(req.Address),
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
		})
		if err != nil {
			return fmt.Errorf("upsert customer: %w", err)
		}
		order.CustomerID = customer.ID

		if err := s.orders.CreateTx(tx, &order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, l := range lines {
			if err := s.takeStock(tx, order.ID, l); err != nil {
				return err
			}
		}

		if push != nil {
			next := s.now().Add(firstPaymentCheck)
			return s.payments.CreateTx(tx, &model.Payment{
				OrderID:           order.ID,
				Provider:          "mpesa",
				Phone:             msisdn,
				Amount:            amount,
				MerchantRequestID: push.MerchantRequestID,
				CheckoutRequestID: push.CheckoutRequestID,
				Status:            model.PaymentStatusPending,
				NextCheckAt:       &next,
			})
		}
		return nil
	})
	if txErr != nil {
		if push != nil {
			// The customer has already been prompted; leave a trail for manual refund.
			log.Error().Err(txErr).
				Str("checkout_request_id", push.CheckoutRequestID).
				Int64("amount", amount).
				Msg("order: transaction failed after STK push")
		}
		return nil, txErr
	}

	// 6. Async receipt (best effort)
	if s.receipts != nil {
		if err := s.receipts.EnqueueReceipt(ctx, worker.ReceiptJobPayload{OrderID: order.ID.String()}); err != nil {
			log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("order: failed to enqueue receipt job")
		}
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("total", serverTotal.StringFixed(2)).
		Str("payment_method", method).
		Int("items", len(lines)).
		Msg("order placed")

	resp := &dto.OrderCreatedResponse{
		Message:       "Order placed successfully",
		OrderID:       order.ID.String(),
		PaymentStatus: paymentStatus,
	}
	if push != nil {
		resp.CheckoutRequestID = push.CheckoutRequestID
	}
	return resp, nil
}

func validatePlaceOrder(req dto.PlaceOrderRequest) error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return invalid("name", "is required")
	case strings.TrimSpace(req.Email) == "":
		return invalid("email", "is required")
	case strings.TrimSpace(req.Phone) == "":
		return invalid("phone", "is required")
	case strings.TrimSpace(req.Address) == "":
		return invalid("address", "is required")
	case req.Latitude == nil:
		return invalid("latitude", "is required")
	case req.Longitude == nil:
		return invalid("longitude", "is required")
	case req.Total == nil:
		return invalid("total", "is required")
	case !req.Total.IsPositive():
		return invalid("total", "must be greater than 0")
	case len(req.Items) == 0:
		return invalid("items", "must contain at least one item")
	case req.DeliveryFee.IsNegative() || req.Tax.IsNegative():
		return invalid("deliveryFee", "fees must not be negative")
	}
	if req.PaymentMethod != "" && req.PaymentMethod != model.PaymentMethodCash && req.PaymentMethod != model.PaymentMethodMpesa {
		return invalid("paymentMethod", "must be cash or mpesa")
	}
	for i, it := range req.Items {
		if it.Quantity < 1 {
			return invalid(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
		if strings.TrimSpace(it.ID) == "" {
			return invalid(fmt.Sprintf("items[%d].id", i), "is required")
		}
	}
	return nil
}

// resolveLines loads every referenced product. Any unknown or inactive product
// aborts the whole order with a NotFoundError.
func (s *orderService) resolveLines(ctx context.Context, items []dto.OrderItemRequest) ([]orderLine, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, it := range items {
		id, err := uuid.Parse(it.ID)
		if err != nil {
			return nil, decimal.Zero, &NotFoundError{Resource: "product", ID: it.ID}
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}
	byID := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]orderLine, 0, len(items))
	subtotal := decimal.Zero
	for _, it := range items {
		id := uuid.MustParse(it.ID)
		p, ok := byID[id]
		if !ok || !p.Active {
			return nil, decimal.Zero, notFound("product", id)
		}
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		lines = append(lines, orderLine{product: p, quantity: it.Quantity, subtotal: lineTotal})
	}
	return lines, subtotal, nil
}

// triggerPayment sends the STK push through the circuit breaker. Every failure mode
// (declined, unreachable, circuit open) becomes a PaymentError.
func (s *orderService) triggerPayment(ctx context.Context, msisdn string, amount int64) (*infra.STKPushResponse, error) {
	if s.gateway == nil {
		return nil, &PaymentError{Err: errors.New("mpesa payments are not available")}
	}
	if amount < 1 {
		return nil, invalid("total", "must be at least 1 for mpesa payments")
	}

	var resp *infra.STKPushResponse
	err := s.cb.Execute(func() error {
		r, err := s.gateway.STKPush(ctx, infra.STKPushRequest{
			Phone:       msisdn,
			Amount:      amount,
			Reference:   "SipNDash",
			Description: "Sip N Dash order",
		})
		resp = r
		return err
	})
	if err != nil {
		log.Warn().Err(err).Str("phone", msisdn).Int64("amount", amount).Msg("order: STK push failed")
		return nil, &PaymentError{Err: err}
	}
	return resp, nil
}

// takeStock locks the product row, decrements with a floor at zero and records the movement.
func (s *orderService) takeStock(tx *gorm.DB, orderID uuid.UUID, l orderLine) error {
	before, err := s.products.LockStockTx(tx, l.product.ID)
	if err != nil {
		return fmt.Errorf("lock stock of %s: %w", l.product.Name, err)
	}
	if err := s.products.DecrementStockTx(tx, l.product.ID, l.quantity); err != nil {
		return fmt.Errorf("decrement stock of %s: %w", l.product.Name, err)
	}
	after := before - l.quantity
	if after < 0 {
		after = 0
	}
	ref := orderID
	return s.movements.CreateTx(tx, &model.StockMovement{
		ProductID:   l.product.ID,
		Kind:        model.MovementOrder,
		Quantity:    after - before,
		StockBefore: before,
		StockAfter:  after,
		Reason:      "order " + orderID.String(),
		ReferenceID: &ref,
	})
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "order", id)
	}
	return orderToResponse(o), nil
}

func (s *orderService) List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.OrderResponse, len(orders))
	for i := range orders {
		data[i] = *orderToResponse(&orders[i])
	}
	return &dto.OrderListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Update ────────────────────────────────────────────────────────────────────
// Status and seen are changed under a row lock. Moving to Cancelled returns what
// the order actually took from stock, read from its order movements, so lines
// that were floored at zero give back only the units they removed. A cancelled
// order is final, so this happens once.

func (s *orderService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	if req.Status != nil {
		switch *req.Status {
		case model.OrderStatusProcessing, model.OrderStatusDelivered, model.OrderStatusCancelled:
		default:
			return nil, invalid("status", "must be Processing, Delivered or Cancelled")
		}
	}

	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		o, err := s.orders.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return mapNotFound(err, "order", id)
		}

		fields := map[string]interface{}{}
		if req.Status != nil && *req.Status != o.Status {
			if o.Status == model.OrderStatusCancelled {
				return invalid("status", "a cancelled order cannot be re-opened")
			}
			fields["status"] = *req.Status
			if *req.Status == model.OrderStatusCancelled {
				if err := s.restoreStock(tx, o); err != nil {
					return err
				}
			}
		}
		if req.Seen != nil && *req.Seen != o.Seen {
			fields["seen"] = *req.Seen
		}
		if len(fields) == 0 {
			return nil
		}
		return s.orders.UpdateTx(tx, id, fields)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *orderService) restoreStock(tx *gorm.DB, o *model.Order) error {
	ref := o.ID
	taken, err := s.movements.ListByReferenceTx(tx, o.ID, model.MovementOrder)
	if err != nil {
		return fmt.Errorf("load order movements: %w", err)
	}
	for _, m := range taken {
		qty := -m.Quantity
		if qty <= 0 {
			continue
		}
		before, err := s.products.LockStockTx(tx, m.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := s.products.IncrementStockTx(tx, m.ProductID, qty); err != nil {
			return err
		}
		if err := s.movements.CreateTx(tx, &model.StockMovement{
			ProductID:   m.ProductID,
			Kind:        model.MovementOrderCancelled,
			Quantity:    qty,
			StockBefore: before,
			StockAfter:  before + qty,
			Reason:      "order " + o.ID.String() + " cancelled",
			ReferenceID: &ref,
		}); err != nil {
			return err
		}
	}
	log.Info().Str("order_id", o.ID.String()).Int("items", len(o.Items)).Msg("order cancelled, stock restored")
	return nil
}

func orderToResponse(o *model.Order) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:            o.ID.String(),
		Items:         make([]dto.OrderItemResponse, len(o.Items)),
		Total:         o.Total,
		DeliveryFee:   o.DeliveryFee,
		Tax:           o.Tax,
		Status:        o.Status,
		Seen:          o.Seen,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Latitude:      o.Latitude,
		Longitude:     o.Longitude,
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
	}
	if o.Customer != nil {
		c := customerToResponse(o.Customer)
		resp.Customer = &c
	}
	for i, it := range o.Items {
		item := dto.OrderItemResponse{
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		}
		if it.Product != nil {
			item.ProductName = it.Product.Name
		}
		resp.Items[i] = item
	}
	return resp
}

package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"sipndash/internal/dto"
	"sipndash/internal/infra"
	"sipndash/internal/model"
	"sipndash/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	svc       service.OrderService
	products  *stubProductRepo
	orders    *stubOrderRepo
	customers *stubCustomerRepo
	movements *stubMovementRepo
	payments  *stubPaymentRepo
	gateway   *stubGateway
	receipts  *recordingReceipts
	cb        *infra.CircuitBreaker

	tusker   *model.Product
	mojito   *model.Product
	inactive *model.Product
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		tusker:   &model.Product{ID: uuid.New(), Catalog: model.CatalogDrinks, Name: "Tusker", Price: decimal.NewFromInt(250), Stock: 10, Active: true},
		mojito:   &model.Product{ID: uuid.New(), Catalog: model.CatalogCocktails, Name: "Mojito", Price: decimal.RequireFromString("650.50"), Stock: 1, Active: true},
		inactive: &model.Product{ID: uuid.New(), Catalog: model.CatalogDrinks, Name: "Old Brew", Price: decimal.NewFromInt(100), Stock: 5, Active: false},
	}
	f.products = newStubProductRepo(f.tusker, f.mojito, f.inactive)
	f.orders = newStubOrderRepo(f.products)
	f.customers = newStubCustomerRepo()
	f.movements = &stubMovementRepo{}
	f.payments = newStubPaymentRepo()
	f.gateway = &stubGateway{}
	f.receipts = &recordingReceipts{}
	f.cb = infra.NewCircuitBreaker(infra.CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: time.Hour})
	f.svc = service.NewOrderService(f.orders, f.products, f.customers, f.movements, f.payments, f.gateway, f.cb, f.receipts)
	return f
}

func (f *orderFixture) assertNothingWritten(t *testing.T) {
	t.Helper()
	assert.Empty(t, f.orders.orders, "no order should be created")
	assert.Empty(t, f.customers.byEmail, "no customer should be created")
	assert.Empty(t, f.movements.movements, "no stock movement should be recorded")
	assert.Empty(t, f.payments.payments, "no payment should be recorded")
	assert.Empty(t, f.receipts.jobs)
	assert.Equal(t, 10, f.products.stock(f.tusker.ID))
}

func ptr[T any](v T) *T { return &v }

func validOrder(items ...dto.OrderItemRequest) dto.PlaceOrderRequest {
	total := decimal.Zero
	return dto.PlaceOrderRequest{
		Name:      "Wanjiku Kamau",
		Email:     "wanjiku@example.com",
		Phone:     "0712345678",
		Address:   "Kilimani, Nairobi",
		Latitude:  ptr(-1.2921),
		Longitude: ptr(36.8219),
		Items:     items,
		Total:     &total,
	}
}

func withTotal(req dto.PlaceOrderRequest, total string) dto.PlaceOrderRequest {
	d := decimal.RequireFromString(total)
	req.Total = &d
	return req
}

// ── PlaceOrder ────────────────────────────────────────────────────────────────

func TestPlaceOrder_CashCommitsEverything(t *testing.T) {
	f := newOrderFixture(t)
	req := withTotal(validOrder(
		dto.OrderItemRequest{ID: f.tusker.ID.String(), Quantity: 3},
		dto.OrderItemRequest{ID: f.mojito.ID.String(), Quantity: 1},
	), "1500.50")
	req.DeliveryFee = decimal.NewFromInt(100)

	resp, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Order placed successfully", resp.Message)
	assert.Equal(t, model.PaymentStatusNotRequired, resp.PaymentStatus)

	orderID := uuid.MustParse(resp.OrderID)
	order := f.orders.orders[orderID]
	require.NotNil(t, order)
	assert.True(t, decimal.RequireFromString("1500.50").Equal(order.Total))
	assert.Equal(t, model.OrderStatusProcessing, order.Status)
	assert.Len(t, order.Items, 2)

	assert.Equal(t, 7, f.products.stock(f.tusker.ID))
	assert.Equal(t, 0, f.products.stock(f.mojito.ID))
	require.Len(t, f.movements.movements, 2)
	assert.Equal(t, -3, f.movements.movements[0].Quantity)
	assert.Equal(t, model.MovementOrder, f.movements.movements[0].Kind)
	assert.Equal(t, orderID, *f.movements.movements[0].ReferenceID)

	assert.Len(t, f.customers.byEmail, 1)
	assert.Empty(t, f.gateway.pushes)
	require.Len(t, f.receipts.jobs, 1)
	assert.Equal(t, resp.OrderID, f.receipts.jobs[0].OrderID)
}

func TestPlaceOrder_StockFloorsAtZero(t *testing.T) {
	f := newOrderFixture(t)
	req := withTotal(validOrder(dto.OrderItemRequest{ID: f.mojito.ID.String(), Quantity: 4}), "2602.00")

	_, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, f.products.stock(f.mojito.ID))
	assert.Equal(t, -1, f.movements.movements[0].Quantity)
	assert.Equal(t, 0, f.movements.movements[0].StockAfter)
}

func TestPlaceOrder_UnknownProductWritesNothing(t *testing.T) {
	f := newOrderFixture(t)
	req := withTotal(validOrder(
		dto.OrderItemRequest{ID: f.tusker.ID.String(), Quantity: 1},
		dto.OrderItemRequest{ID: uuid.NewString(), Quantity: 1},
	), "250")

	_, err := f.svc.PlaceOrder(context.Background(), req)
	var nf *service.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "product", nf.Resource)
	f.assertNothingWritten(t)
}

func TestPlaceOrder_InactiveProductIsNotFound(t *testing.T) {
	f := newOrderFixture(t)
	req := withTotal(validOrder(dto.OrderItemRequest{ID: f.inactive.ID.String(), Quantity: 1}), "100")

	_, err := f.svc.PlaceOrder(context.Background(), req)
	var nf *service.NotFoundError
	assert.ErrorAs(t, err, &nf)
	f.assertNothingWritten(t)
}

func TestPlaceOrder_MalformedProductIDIsNotFound(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), withTotal(validOrder(dto.OrderItemRequest{ID: "42", Quantity: 1}), "0"))
	var nf *service.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestPlaceOrder_ValidationErrors(t *testing.T) {
	f := newOrderFixture(t)
	item := dto.OrderItemRequest{ID: f.tusker.ID.String(), Quantity: 1}

	cases := map[string]func(r *dto.PlaceOrderRequest){
		"name":       func(r *dto.PlaceOrderRequest) { r.Name = "  " },
		"email":      func(r *dto.PlaceOrderRequest) { r.Email = "" },
		"phone":      func(r *dto.PlaceOrderRequest) { r.Phone = "" },
		"address":    func(r *dto.PlaceOrderRequest) { r.Address = "" },
		"latitude":   func(r *dto.PlaceOrderRequest) { r.Latitude = nil },
		"longitude":  func(r *dto.PlaceOrderRequest) { r.Longitude = nil },
		"total":      func(r *dto.PlaceOrderRequest) { r.Total = nil },
		"zero total": func(r *dto.PlaceOrderRequest) { r.Total = ptr(decimal.Zero) },
		"items":      func(r *dto.PlaceOrderRequest) { r.Items = nil },
		"quantity":   func(r *dto.PlaceOrderRequest) { r.Items[0].Quantity = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := withTotal(validOrder(item), "250")
			mutate(&req)
			_, err := f.svc.PlaceOrder(context.Background(), req)
			var ve *service.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
	f.assertNothingWritten(t)
}

func TestPlaceOrder_TotalMismatch(t *testing.T) {
	f := newOrderFixture(t)
	item := dto.OrderItemRequest{ID: f.tusker.ID.String(), Quantity: 2}

	_, err := f.svc.PlaceOrder(context.Background(), withTotal(validOrder(item), "499.98"))
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "total", ve.Field)
	f.assertNothingWritten(t)

	_, err = f.svc.PlaceOrder(context.Background(), withTotal(validOrder(item), "499.99"))
	assert.NoError(t, err, "a one-cent gap is tolerated")
}

func TestPlaceOrder_MpesaCreatesPendingPayment(t *testing.T) {
	f := newOrderFixture(t)
	req := withTotal(validOrder(dto.OrderItemRequest{ID: f.mojito.ID.String(), Quantity: 1}), "650.50")
	req.PaymentMethod = model.PaymentMethodMpesa

	resp, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, resp.PaymentStatus)
	require.NotEmpty(t, resp.CheckoutRequestID)

	require.Len(t, f.gateway.pushes, 1)
	assert.Equal(t, "254712345678", f.gateway.pushes[0].Phone)
	assert.Equal(t, int64(651), f.gateway.pushes[0].Amount)

	p := f.payments.payments[resp.CheckoutRequestID]
	require.NotNil(t, p)
	assert.Equal(t, model.PaymentStatusPending, p.Status)
	assert.Equal(t, resp.OrderID, p.OrderID.String())
	assert.NotNil(t, p.NextCheckAt)
}

func TestPlaceOrder_GatewayFailureWritesNothing(t *testing.T) {
	f := newOrderFixture(t)
	f.gateway.pushErr = &infra.GatewayError{Status: 200, Code: "1", Message: "insufficient balance"}
	req := withTotal(validOrder(dto.OrderItemRequest{ID: f.tusker.ID.String(), Quantity: 1}), "250")
	req.PaymentMethod = model.PaymentMethodMpesa

	_, err := f.svc.PlaceOrder(context.Background(), req)
	var pe *service.PaymentError
	require.ErrorAs(t, err, &pe)
	f.assertNothingWritten(t)
}

func TestPlaceOrder_OpenCircuitFailsFast(t *testing.T) {
	f := newOrderFixture(t)
	f.gateway.pushErr = errGatewayDown
	req := withTotal(validOrder(dto.OrderItemRequest{ID: f.tusker.ID.String(), Quantity: 1}), "250")
	req.PaymentMethod = model.PaymentMethodMpesa

	for i := 0; i < 2; i++ {
		_, err := f.svc.PlaceOrder(context.Background(), req)
		require.Error(t, err)
	}
	require.Equal(t, infra.CBOpen, f.cb.State())

	_, err := f.svc.PlaceOrder(context.Background(), req)
	var pe *service.PaymentError
	require.ErrorAs(t, err, &pe)
	assert.True(t, errors.Is(err, infra.ErrCircuitOpen))
	assert.Len(t, f.gateway.pushes, 2, "gateway is not called while the circuit is open")
	f.assertNothingWritten(t)
}

func TestPlaceOrder_BadPhoneForMpesa(t *testing.T) {
	f := newOrderFixture(t)
	req := withTotal(validOrder(dto.OrderItemRequest{ID: f.tusker.ID.String(), Quantity: 1}), "250")
	req.PaymentMethod = model.PaymentMethodMpesa
	req.Phone = "12345"

	_, err := f.svc.PlaceOrder(context.Background(), req)
	var ve *service.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Empty(t, f.gateway.pushes)
}

func TestPlaceOrder_ReceiptQueueFailureDoesNotFailOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.receipts.err = errors.New("redis: connection refused")
	req := withTotal(validOrder(dto.OrderItemRequest{ID: f.tusker.ID.String(), Quantity: 1}), "250")

	_, err := f.svc.PlaceOrder(context.Background(), req)
	assert.NoError(t, err)
	assert.Len(t, f.orders.orders, 1)
}

func TestPlaceOrder_ReturningCustomerIsReused(t *testing.T) {
	f := newOrderFixture(t)
	req := withTotal(validOrder(dto.OrderItemRequest{ID: f.tusker.ID.String(), Quantity: 1}), "250")

	_, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	req.Email = "  WANJIKU@example.com "
	_, err = f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, f.customers.byEmail, 1)
}

// ── Update ────────────────────────────────────────────────────────────────────

func TestUpdateOrder_CancelRestoresStockOnce(t *testing.T) {
	f := newOrderFixture(t)
	req := withTotal(validOrder(dto.OrderItemRequest{ID: f.tusker.ID.String(), Quantity: 4}), "1000")
	created, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	id := uuid.MustParse(created.OrderID)
	require.Equal(t, 6, f.products.stock(f.tusker.ID))

	resp, err := f.svc.Update(context.Background(), id, dto.UpdateOrderRequest{Status: ptr(model.OrderStatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, resp.Status)
	assert.Equal(t, 10, f.products.stock(f.tusker.ID))

	_, err = f.svc.Update(context.Background(), id, dto.UpdateOrderRequest{Status: ptr(model.OrderStatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, 10, f.products.stock(f.tusker.ID), "cancelling twice must not restore twice")

	_, err = f.svc.Update(context.Background(), id, dto.UpdateOrderRequest{Status: ptr(model.OrderStatusProcessing)})
	var ve *service.ValidationError
	assert.ErrorAs(t, err, &ve)

	last := f.movements.movements[len(f.movements.movements)-1]
	assert.Equal(t, model.MovementOrderCancelled, last.Kind)
	assert.Equal(t, 4, last.Quantity)
}

func TestUpdateOrder_CancelRestoresOnlyWhatWasTaken(t *testing.T) {
	f := newOrderFixture(t)
	// Four mojitos against a stock of one: the line is accepted and stock floors at zero.
	req := withTotal(validOrder(dto.OrderItemRequest{ID: f.mojito.ID.String(), Quantity: 4}), "2602")
	created, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 0, f.products.stock(f.mojito.ID))

	_, err = f.svc.Update(context.Background(), uuid.MustParse(created.OrderID), dto.UpdateOrderRequest{Status: ptr(model.OrderStatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, 1, f.products.stock(f.mojito.ID))

	last := f.movements.movements[len(f.movements.movements)-1]
	assert.Equal(t, model.MovementOrderCancelled, last.Kind)
	assert.Equal(t, 1, last.Quantity)
	assert.Equal(t, 0, last.StockBefore)
	assert.Equal(t, 1, last.StockAfter)
}

func TestUpdateOrder_MarkSeen(t *testing.T) {
	f := newOrderFixture(t)
	created, err := f.svc.PlaceOrder(context.Background(),
		withTotal(validOrder(dto.OrderItemRequest{ID: f.tusker.ID.String(), Quantity: 1}), "250"))
	require.NoError(t, err)

	resp, err := f.svc.Update(context.Background(), uuid.MustParse(created.OrderID), dto.UpdateOrderRequest{Seen: ptr(true)})
	require.NoError(t, err)
	assert.True(t, resp.Seen)
	assert.Equal(t, model.OrderStatusProcessing, resp.Status)
}

func TestUpdateOrder_UnknownID(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.svc.Update(context.Background(), uuid.New(), dto.UpdateOrderRequest{Seen: ptr(true)})
	var nf *service.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestGetOrder_UnknownID(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.svc.Get(context.Background(), uuid.New())
	var nf *service.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

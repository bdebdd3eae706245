package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"sipndash/internal/dto"
	"sipndash/internal/infra"
	"sipndash/internal/model"
	"sipndash/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	reconcileBatchSize   = 20
	maxReconcileAttempts = 6
)

// PaymentService settles M-Pesa payments from gateway callbacks and, when the
// callback never arrives, from periodic status queries.
type PaymentService interface {
	HandleCallback(ctx context.Context, cb dto.STKCallback) error
	ReconcilePending(ctx context.Context) (int, error)
}

type paymentService struct {
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	gateway  infra.PaymentGateway
	cb       *infra.CircuitBreaker
	now      func() time.Time
}

func NewPaymentService(
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	gateway infra.PaymentGateway,
	cb *infra.CircuitBreaker,
) PaymentService {
	if cb == nil {
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig())
	}
	return &paymentService{payments: payments, orders: orders, gateway: gateway, cb: cb, now: time.Now}
}

// HandleCallback applies a Daraja STK callback. The callback endpoint is public,
// so its body only names the payment to look at: the outcome is confirmed with a
// status query before anything is settled, and a success must carry the amount
// that was requested. Callbacks for payments that are already settled are
// ignored, so Daraja retries are harmless.
func (s *paymentService) HandleCallback(ctx context.Context, cb dto.STKCallback) error {
	p, err := s.payments.FindByCheckoutID(ctx, cb.CheckoutRequestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: "payment", ID: cb.CheckoutRequestID}
	}
	if err != nil {
		return err
	}
	if p.Status != model.PaymentStatusPending {
		log.Info().Str("checkout_request_id", cb.CheckoutRequestID).Str("status", p.Status).
			Msg("payment: duplicate callback ignored")
		return nil
	}

	if cb.ResultCode == 0 {
		if amount, ok := callbackAmount(cb); !ok || amount != p.Amount {
			log.Warn().
				Str("checkout_request_id", cb.CheckoutRequestID).
				Int64("expected", p.Amount).
				Int64("got", amount).
				Msg("payment: callback amount does not match the push")
			return &ValidationError{Field: "Amount", Message: "does not match the requested amount"}
		}
	}

	code, desc, err := s.query(ctx, p)
	if err != nil {
		// Left pending; the reconciler asks again on its next tick.
		now := s.now()
		p.NextCheckAt = &now
		if uerr := s.payments.Update(ctx, p); uerr != nil {
			log.Error().Err(uerr).Str("checkout_request_id", p.CheckoutRequestID).Msg("payment: failed to save retry state")
		}
		return fmt.Errorf("confirm callback: %w", err)
	}

	var receipt *string
	if code == 0 {
		receipt = receiptNumber(cb)
	}
	return s.settle(ctx, p, code, desc, receipt)
}

// query asks the gateway for the outcome of p's push through the circuit breaker.
func (s *paymentService) query(ctx context.Context, p *model.Payment) (int, string, error) {
	if s.gateway == nil {
		return 0, "", errors.New("no payment gateway configured")
	}
	var resp *infra.STKQueryResponse
	err := s.cb.Execute(func() error {
		r, err := s.gateway.STKQuery(ctx, p.CheckoutRequestID)
		resp = r
		return err
	})
	if err != nil {
		return 0, "", err
	}
	code, err := strconv.Atoi(resp.ResultCode)
	if err != nil {
		return 0, "", fmt.Errorf("unexpected result code %q", resp.ResultCode)
	}
	return code, resp.ResultDesc, nil
}

// ReconcilePending queries the gateway for pending payments whose next check is due
// and returns how many were settled. It stops early when the circuit opens.
func (s *paymentService) ReconcilePending(ctx context.Context) (int, error) {
	if s.gateway == nil {
		return 0, nil
	}
	due, err := s.payments.ListDueForCheck(ctx, s.now(), reconcileBatchSize)
	if err != nil {
		return 0, err
	}

	settled := 0
	for i := range due {
		p := &due[i]
		code, desc, err := s.query(ctx, p)
		if errors.Is(err, infra.ErrCircuitOpen) {
			break
		}
		if err != nil {
			s.scheduleNextCheck(ctx, p, err)
			continue
		}
		if err := s.settle(ctx, p, code, desc, nil); err != nil {
			return settled, err
		}
		settled++
	}
	return settled, nil
}

// scheduleNextCheck records a failed status query. After maxReconcileAttempts the
// payment stays pending with no next check and needs manual review.
func (s *paymentService) scheduleNextCheck(ctx context.Context, p *model.Payment, cause error) {
	p.RetryCount++
	msg := cause.Error()
	p.LastError = &msg
	if infra.IsStillProcessing(cause) {
		log.Debug().Str("checkout_request_id", p.CheckoutRequestID).Msg("payment: customer has not answered yet")
	}
	if p.RetryCount >= maxReconcileAttempts {
		p.NextCheckAt = nil
		log.Error().Err(cause).
			Str("checkout_request_id", p.CheckoutRequestID).
			Int("attempts", p.RetryCount).
			Msg("payment: giving up on status query, manual review needed")
	} else {
		next := s.now().Add(reconcileBackoff(p.RetryCount))
		p.NextCheckAt = &next
	}
	if err := s.payments.Update(ctx, p); err != nil {
		log.Error().Err(err).Str("checkout_request_id", p.CheckoutRequestID).Msg("payment: failed to save retry state")
	}
}

func (s *paymentService) settle(ctx context.Context, p *model.Payment, code int, desc string, receipt *string) error {
	status := model.PaymentStatusFailed
	if code == 0 {
		status = model.PaymentStatusPaid
	}
	p.Status = status
	p.ResultCode = &code
	p.ResultDesc = &desc
	p.ReceiptNumber = receipt
	p.NextCheckAt = nil

	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		if err := s.payments.UpdateTx(tx, p); err != nil {
			return err
		}
		return s.orders.UpdatePaymentStatusTx(tx, p.OrderID, status)
	})
	if err != nil {
		return fmt.Errorf("settle payment %s: %w", p.CheckoutRequestID, err)
	}
	log.Info().
		Str("order_id", p.OrderID.String()).
		Str("checkout_request_id", p.CheckoutRequestID).
		Int("result_code", code).
		Str("status", status).
		Msg("payment settled")
	return nil
}

// reconcileBackoff returns 2m, 4m, 8m ... capped at 30 minutes.
func reconcileBackoff(attempt int) time.Duration {
	d := firstPaymentCheck << uint(attempt)
	if d > 30*time.Minute || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// callbackAmount reads the Amount item, which Daraja sends as a JSON number.
func callbackAmount(cb dto.STKCallback) (int64, bool) {
	if cb.CallbackMetadata == nil {
		return 0, false
	}
	for _, it := range cb.CallbackMetadata.Item {
		if it.Name != "Amount" {
			continue
		}
		switch v := it.Value.(type) {
		case float64:
			return int64(v), v == float64(int64(v))
		case int64:
			return v, true
		case int:
			return int64(v), true
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			return n, err == nil
		}
	}
	return 0, false
}

func receiptNumber(cb dto.STKCallback) *string {
	if cb.CallbackMetadata == nil {
		return nil
	}
	for _, it := range cb.CallbackMetadata.Item {
		if it.Name != "MpesaReceiptNumber" {
			continue
		}
		if v, ok := it.Value.(string); ok && v != "" {
			return &v
		}
	}
	return nil
}

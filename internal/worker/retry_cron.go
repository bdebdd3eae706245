package worker

// retry_cron.go
// Background goroutine that periodically:
//   - moves delayed job retries whose time has come back onto their queue
//   - asks the payment reconciler to query M-Pesa for STK pushes whose callback
//     never arrived, skipping the call while the gateway circuit is open

import (
	"context"
	"time"

	"sipndash/internal/infra"

	"github.com/rs/zerolog/log"
)

const retryTickInterval = 30 * time.Second

// PaymentReconciler settles pending payments by querying the gateway.
type PaymentReconciler interface {
	ReconcilePending(ctx context.Context) (int, error)
}

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	Pool       *Pool
	Reconciler PaymentReconciler // nil when payments are disabled
	CB         *infra.CircuitBreaker
}

// StartRetryCron launches a background goroutine that ticks every 30s.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				runTick(ctx, cfg)
			}
		}
	}()
}

func runTick(ctx context.Context, cfg RetryCronConfig) {
	if cfg.Pool != nil {
		moved, err := cfg.Pool.PromoteDue(ctx)
		if err != nil {
			log.Error().Err(err).Msg("retry_cron: failed to promote delayed jobs")
		} else if moved > 0 {
			log.Info().Int("count", moved).Msg("retry_cron: delayed jobs re-queued")
		}
	}

	if cfg.Reconciler == nil {
		return
	}
	// If CB is open, skip entirely: don't hammer a downed gateway
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping payment reconciliation")
		return
	}
	settled, err := cfg.Reconciler.ReconcilePending(ctx)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: payment reconciliation failed")
		return
	}
	if settled > 0 {
		log.Info().Int("settled", settled).Msg("retry_cron: payments reconciled")
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sipndash/internal/config"
	"sipndash/internal/infra"
	"sipndash/internal/repository"
	"sipndash/internal/router"
	"sipndash/internal/service"
	"sipndash/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger (dev pretty, prod JSON)
	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	if cfg.RunMigrations {
		if err := infra.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paymentCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())

	var gateway infra.PaymentGateway
	if cfg.PaymentsEnabled() {
		gateway = infra.NewDarajaClient(infra.DarajaConfig{
			BaseURL:        cfg.DarajaBaseURL,
			ConsumerKey:    cfg.DarajaConsumerKey,
			ConsumerSecret: cfg.DarajaConsumerSecret,
			ShortCode:      cfg.DarajaShortCode,
			Passkey:        cfg.DarajaPasskey,
			CallbackURL:    cfg.DarajaCallbackURL,
		})
	} else {
		log.Warn().Msg("daraja credentials not set: mpesa orders will be rejected")
	}

	var storage infra.ObjectStorage
	if cfg.StorageEnabled() {
		s3store, err := infra.NewS3Storage(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure object storage")
		}
		storage = s3store
	} else {
		log.Warn().Msg("S3 storage not configured: product image uploads disabled")
	}

	// Async jobs: order receipt PDF, then customer and admin emails.
	// Handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)
	orderRepo := repository.NewOrderRepository(db)

	pool := worker.NewPool(rdb)
	pool.Register(worker.QueueReceipt,
		worker.NewReceiptWorker(orderRepo, dispatcher, cfg.PDFStoragePath, cfg.AdminEmail).Process)
	pool.Register(worker.QueueEmail, worker.NewEmailWorker(mailer).Process)
	pool.Start(ctx, cfg.WorkerPoolSize)

	paymentSvc := service.NewPaymentService(repository.NewPaymentRepository(db), orderRepo, gateway, paymentCB)
	cron := worker.RetryCronConfig{Pool: pool, CB: paymentCB}
	if gateway != nil {
		cron.Reconciler = paymentSvc
	}
	worker.StartRetryCron(ctx, cron)

	r := router.New(cfg, router.Deps{
		DB:        db,
		Redis:     rdb,
		PaymentCB: paymentCB,
		Gateway:   gateway,
		Storage:   storage,
		Receipts:  dispatcher,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("sipndash backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

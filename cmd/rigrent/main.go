package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rigrent/internal/app/commands"
	"rigrent/internal/app/middleware"
	"rigrent/internal/app/outbox"
	"rigrent/internal/app/policies"
	"rigrent/internal/app/queries"
	"rigrent/internal/app/registry"
	"rigrent/internal/infra/config"
	ginserver "rigrent/internal/infra/http/gin"
	"rigrent/internal/infra/obs"
	infraoutbox "rigrent/internal/infra/outbox"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("store init failed", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer store.close()

	producer, closeProducer, err := openProducer(cfg)
	if err != nil {
		logger.Error("kafka producer init failed", "error", err)
		os.Exit(1)
	}
	defer closeProducer()

	notifier, checks := buildNotifier(cfg, logger)
	for name, check := range checks {
		store.checks[name] = check
	}

	deps := registry.Deps{
		UoWFactory: store.factory,
		Platform: policies.Platform{
			MaxServiceHours:    cfg.Platform.MaxServiceHours,
			LicensedCategories: cfg.Platform.LicensedCategories,
			Currency:           cfg.Platform.Currency,
		},
		Encoder: outbox.JSONEventEncoder{},
		Logger:  logger,
	}
	if notifier != nil {
		deps.Notifier = notifier
	}

	commandBus := commands.NewInMemoryBus()
	registry.RegisterCommands(commandBus, deps)
	queryBus := queries.NewInMemoryBus()
	registry.RegisterQueries(queryBus, deps)

	worker := &infraoutbox.Worker{
		Relay:       store.relay,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}

	commandMiddlewares := []middleware.CommandMiddleware{
		middleware.Idempotency(store.idempotency, nil),
		middleware.Authorization(middleware.RequireActor{}),
		middleware.Validation(middleware.ShapeValidator{}),
		middleware.Transaction(store.factory, nil),
	}
	if producer != nil {
		commandMiddlewares = append([]middleware.CommandMiddleware{middleware.OutboxFlush(worker, logger)}, commandMiddlewares...)
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	} else {
		logger.Warn("KAFKA_BROKERS not set, domain events stay in the outbox")
	}
	cmds := middleware.ChainCommands(commandBus, commandMiddlewares...)
	qs := middleware.ChainQueries(queryBus,
		middleware.QueryAuthorization(middleware.RequireActor{}),
		middleware.QueryValidation(middleware.ShapeValidator{}),
	)

	handlers := ginserver.Handlers{
		Booking:        ginserver.BookingHandler{Commands: cmds, Queries: qs, Logger: logger},
		HostBooking:    ginserver.HostBookingHandler{Commands: cmds, Queries: qs, Logger: logger},
		Availability:   ginserver.AvailabilityHandler{Queries: qs, Logger: logger},
		Listing:        ginserver.ListingHandler{Queries: qs, Logger: logger},
		HostListing:    ginserver.HostListingHandler{Commands: cmds, Queries: qs, Logger: logger},
		AuthMiddleware: ginserver.JWTAuth{Secret: []byte(cfg.JWTSecret), Logger: logger}.Handle,
	}
	if cfg.JWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET not set, trusting X-User-ID headers")
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: store.checks}, handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

package main

import (
	"context"
	"log/slog"

	"rigrent/internal/app/middleware"
	"rigrent/internal/app/services/invoicing"
	"rigrent/internal/app/uow"
	"rigrent/internal/infra/broker/kafka"
	redisstore "rigrent/internal/infra/cache/redis"
	"rigrent/internal/infra/config"
	dbmongo "rigrent/internal/infra/db/mongo"
	"rigrent/internal/infra/db/postgres"
	"rigrent/internal/infra/mail"
	"rigrent/internal/infra/obs"
	infraoutbox "rigrent/internal/infra/outbox"
	"rigrent/internal/infra/render"
	"rigrent/internal/infra/storage/memory"
	"rigrent/internal/infra/storage/s3"
)

// store bundles what the selected driver provides.
type store struct {
	factory     uow.UoWFactory
	relay       infraoutbox.Relay
	idempotency middleware.IdempotencyStore
	checks      map[string]obs.Check
	closers     []func()
}

func (s *store) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*store, error) {
	s := &store{checks: map[string]obs.Check{}}
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := dbmongo.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = client.Close(context.Background()) })
		if err := dbmongo.EnsureIndexes(ctx, client.DB); err != nil {
			logger.Warn("mongo index creation failed", "error", err)
		}
		factory := dbmongo.NewFactory(client.DB)
		s.factory = factory
		s.relay = factory.Outbox
		s.idempotency = dbmongo.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		s.checks["mongo"] = client.Ping
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			s.close()
			return nil, err
		}
		s.factory = postgres.Factory{DB: db}
		s.relay = postgres.NewOutboxStore(db)
		s.idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
		s.checks["postgres"] = db.PingContext
	default:
		mem := memory.NewStore()
		s.factory = memory.Factory{Store: mem}
		s.relay = mem.Outbox
		s.idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	}

	if cfg.RedisURL != "" {
		client, err := redisstore.Connect(ctx, cfg.RedisURL)
		if err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.idempotency = redisstore.NewIdempotencyStore(client, cfg.IdempotencyTTL)
		s.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	logger.Info("store ready", "driver", cfg.StoreDriver, "redis_idempotency", cfg.RedisURL != "")
	return s, nil
}

func openProducer(cfg config.Config) (infraoutbox.Producer, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, func() {}, nil
	}
	p, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return nil, nil, err
	}
	return p, func() { _ = p.Close() }, nil
}

// buildNotifier returns nil when no mail transport is configured; approvals
// then succeed with notified=false.
func buildNotifier(cfg config.Config, logger *slog.Logger) (*invoicing.Service, map[string]obs.Check) {
	checks := map[string]obs.Check{}
	if !cfg.SMTP.Enabled() {
		logger.Warn("SMTP_HOST not set, approval invoices are not mailed")
		return nil, checks
	}
	svc := &invoicing.Service{
		Renderer: render.TextInvoice{},
		Mailer:   mail.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From),
		Logger:   logger,
	}
	if cfg.S3Endpoint != "" {
		docs, err := s3.NewStore(s3.Options{
			Endpoint:       cfg.S3Endpoint,
			PublicEndpoint: cfg.S3PublicEndpoint,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			Bucket:         cfg.S3Bucket,
			UseSSL:         cfg.S3UseSSL,
		}, logger)
		if err != nil {
			logger.Warn("invoice archive disabled", "error", err)
		} else {
			svc.Documents = docs
			checks["s3"] = docs.Ping
		}
	}
	return svc, checks
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hotelbook/internal/app/commands"
	bookingapp "hotelbook/internal/app/handlers/booking"
	"hotelbook/internal/app/middleware"
	appoutbox "hotelbook/internal/app/outbox"
	"hotelbook/internal/app/policies"
	"hotelbook/internal/app/queries"
	"hotelbook/internal/app/uow"
	domainbooking "hotelbook/internal/domain/booking"
	"hotelbook/internal/infra/broker/kafka"
	"hotelbook/internal/infra/callbacks"
	"hotelbook/internal/infra/config"
	mongodb "hotelbook/internal/infra/db/mongo"
	ginserver "hotelbook/internal/infra/http/gin"
	"hotelbook/internal/infra/inbox"
	redislock "hotelbook/internal/infra/lock/redis"
	"hotelbook/internal/infra/obs"
	outboxinfra "hotelbook/internal/infra/outbox"
	"hotelbook/internal/infra/payments"
	"hotelbook/internal/infra/schedule"
	"hotelbook/internal/infra/storage/memory"
	"hotelbook/internal/infra/storage/s3"
	"hotelbook/internal/infra/validation"
)

const devJWTSecret = "hotelbook-dev-secret"

type application struct {
	cfg      config.Config
	logger   *slog.Logger
	handlers ginserver.Handlers
	health   obs.HealthHandlers
	commands commands.Bus

	relay   appoutbox.Relay
	inbox   callbacks.Inbox
	cron    *schedule.Cron
	closers []func(context.Context) error
	wg      sync.WaitGroup
}

// storage is the persistence set chosen by MONGO_URI.
type storage struct {
	factory     uow.UoWFactory
	idempotency middleware.IdempotencyStore
	outbox      appoutbox.Outbox
	relay       appoutbox.Relay
	inbox       callbacks.Inbox
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		cfg:    cfg,
		logger: logger,
		health: obs.HealthHandlers{Checks: map[string]obs.Check{}},
	}

	store, err := app.buildStorage(ctx)
	if err != nil {
		return nil, err
	}
	app.relay = store.relay
	app.inbox = store.inbox

	gateway, verifier, err := payments.New(payments.Config{
		Provider:          cfg.PaymentGateway,
		RazorpayKeyID:     cfg.RazorpayKeyID,
		RazorpayKeySecret: cfg.RazorpayKeySecret,
		StripeSecretKey:   cfg.StripeSecretKey,
		SigningSecret:     cfg.PaymentSigningKey,
	})
	if err != nil {
		return nil, fmt.Errorf("payments: %w", err)
	}

	locker := app.buildLocker(ctx)
	photos := app.buildPhotoStore()

	policy := domainbooking.RevenuePolicy{
		CommissionPercent:        cfg.CommissionPercent,
		DepositPercent:           cfg.DepositPercent,
		SettlementManagerPercent: cfg.SettlementPercent,
		RefundManagerPercent:     cfg.RefundManagerPct,
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	bookingapp.Module{
		Env: bookingapp.Env{
			UoWFactory: store.factory,
			Outbox:     store.outbox,
			Encoder:    appoutbox.JSONEventEncoder{},
			Policy:     policy,
			Currency:   cfg.Currency,
			Logger:     logger,
		},
		Gateway:           gateway,
		GatewayTimeout:    cfg.GatewayTimeout,
		Verifier:          verifier,
		Locker:            locker,
		PlatformAccountID: cfg.PlatformAccountID,
		TrustClientPrice:  cfg.TrustClientPrice,
	}.Register(commandBus, queryBus)
	logger.Debug("handlers registered", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	v := validation.New()
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Authorization(middleware.RoleAuthorizer{}),
		middleware.Validation(v),
		middleware.Idempotency(store.idempotency, nil),
		middleware.Transaction(store.factory, middleware.CommandTxOptions),
		middleware.OutboxFlush(store.outbox, logger),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryAuthorization(middleware.RoleAuthorizer{}),
		middleware.QueryValidation(v),
	)
	app.commands = commandBusWithMiddleware

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}

	app.handlers = ginserver.Handlers{
		Booking: ginserver.BookingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Me:      ginserver.MeHandler{Queries: queryBusWithMiddleware, Photos: photos, Logger: logger},
		Manager: ginserver.ManagerHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger},
		Admin:   ginserver.AdminHandler{Queries: queryBusWithMiddleware, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{
			Secret: []byte(secret),
			Logger: logger,
		}.Handle,
	}

	app.cron = schedule.NewCron(ctx, time.Minute, logger)
	if err := app.cron.Every(cfg.ReconcileSchedule, "settlement-reconcile", bookingapp.ReconcileJob(commandBusWithMiddleware, cfg.ReconcileBatchLimit)); err != nil {
		return nil, fmt.Errorf("schedule reconciler: %w", err)
	}
	return app, nil
}

func (a *application) buildStorage(ctx context.Context) (storage, error) {
	if a.cfg.MemoryMode() {
		mem := memory.NewStore()
		if err := loadFixtures(mem, fixturesPath(), a.cfg, a.logger); err != nil {
			a.logger.Warn("fixtures load failed", "error", err)
		}
		box := memory.NewOutbox()
		if len(a.cfg.KafkaBrokers) > 0 {
			box = memory.NewRelayOutbox()
		}
		a.logger.Info("running on in-memory storage")
		return storage{
			factory:     mem.Factory(),
			idempotency: memory.NewIdempotencyStore(a.cfg.IdempotencyTTL),
			outbox:      box,
			relay:       box,
			inbox:       memory.NewInbox(),
		}, nil
	}

	client, err := mongodb.New(ctx, a.cfg.MongoURI, a.cfg.MongoDB)
	if err != nil {
		return storage{}, err
	}
	a.closers = append(a.closers, client.Close)
	a.health.Checks["mongo"] = client.Ping

	factory := mongodb.NewFactory(client.DB, a.cfg.Currency)
	idStore := mongodb.NewIdempotencyStore(client.DB, a.cfg.IdempotencyTTL)
	outboxStore := outboxinfra.NewStore(client.DB)
	inboxStore := inbox.NewStore(client.DB, callbacks.ConsumerName)

	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	stores := append(factory.Stores(), idStore, outboxStore, inboxStore)
	if err := mongodb.EnsureIndexes(indexCtx, stores...); err != nil {
		return storage{}, err
	}
	return storage{
		factory:     factory,
		idempotency: idStore,
		outbox:      outboxStore,
		relay:       outboxStore,
		inbox:       inboxStore,
	}, nil
}

func (a *application) buildLocker(ctx context.Context) policies.Locker {
	if a.cfg.RedisAddr == "" {
		return policies.NopLocker{}
	}
	client, err := redislock.NewClient(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword)
	if err != nil {
		// the night claim index still rejects double bookings without the lock
		a.logger.Warn("redis unavailable, booking lock disabled", "error", err)
		return policies.NopLocker{}
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	a.health.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return redislock.NewLocker(client, a.cfg.LockTTL, redislock.WithLogger(a.logger))
}

func (a *application) buildPhotoStore() policies.ObjectStore {
	if a.cfg.S3Endpoint == "" {
		return s3.NoopStore{}
	}
	client, err := s3.NewClient(s3.Config{
		Endpoint:      a.cfg.S3Endpoint,
		UseSSL:        a.cfg.S3UseSSL,
		AccessKey:     a.cfg.S3AccessKey,
		SecretKey:     a.cfg.S3SecretKey,
		Bucket:        a.cfg.S3Bucket,
		PublicBaseURL: a.cfg.S3PublicEndpoint,
	}, a.logger)
	if err != nil {
		a.logger.Warn("s3 client init failed, id photo uploads disabled", "error", err)
		return s3.NoopStore{}
	}
	a.health.Checks["s3"] = client.Ping
	return client
}

// startBackground runs the outbox relay, the payment callback consumer and the reconciler.
func (a *application) startBackground(ctx context.Context) {
	a.cron.Start()
	if len(a.cfg.KafkaBrokers) == 0 {
		a.logger.Info("kafka not configured, events stay in the outbox")
		return
	}

	producer, err := kafka.NewProducer(a.cfg.KafkaBrokers, kafka.NewConfig("hotelbook-outbox"))
	if err != nil {
		a.logger.Error("kafka producer init failed", "error", err)
	} else {
		a.closers = append(a.closers, func(context.Context) error { return producer.Close() })
		worker := &outboxinfra.Worker{
			Store:       a.relay,
			Producer:    producer,
			Interval:    a.cfg.OutboxPollInterval,
			TopicPrefix: a.cfg.KafkaTopicPrefix,
			Backoff:     a.cfg.RetryBackoff,
			Logger:      a.logger,
		}
		a.goRun(ctx, "outbox worker", worker.Run)
	}

	handler := &callbacks.PaymentHandler{Bus: a.commands, Inbox: a.inbox, Logger: a.logger}
	consumer, err := kafka.NewConsumer(a.cfg.KafkaBrokers, a.cfg.KafkaConsumerGroup, kafka.NewConfig("hotelbook-callbacks"), handler, a.logger)
	if err != nil {
		a.logger.Error("kafka consumer init failed", "error", err)
		return
	}
	a.closers = append(a.closers, func(context.Context) error { return consumer.Close() })
	topic := a.cfg.KafkaTopicPrefix + callbacks.Topic
	a.goRun(ctx, "payment callback consumer", func(ctx context.Context) error {
		return consumer.Run(ctx, []string{topic})
	})
}

func (a *application) goRun(ctx context.Context, name string, run func(context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("background task stopped", "task", name, "error", err)
		}
	}()
}

func (a *application) wait() {
	a.cron.Stop()
	a.wg.Wait()
}

func (a *application) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("shutdown step failed", "error", err)
		}
	}
}

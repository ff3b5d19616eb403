package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/ErnestKamau/EasyBuy-sub001/internal/app"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/notifications"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/receipts"
	"github.com/ErnestKamau/EasyBuy-sub001/internal/users"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/config"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/db"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/logger"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/migrate"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/outbox/idempotency"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/pubsub"
	"github.com/ErnestKamau/EasyBuy-sub001/pkg/redis"
)

const serviceKind = "worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind

	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": serviceKind,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)

	defer func() {
		if err := multierr.Combine(pubsubClient.Close(), redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing worker dependencies", err)
		}
	}()

	svcs, err := app.NewServices(cfg, logg, dbClient)
	requireResource(ctx, logg, "services", err)

	dedupe, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	notificationConsumer, err := notifications.NewConsumer(notifications.ConsumerParams{
		Repo:         svcs.NotifRepo,
		Users:        users.NewRepository(dbClient.DB()),
		Transport:    notifications.NewLogTransport(logg),
		Subscription: pubsubClient.NotificationSubscription(),
		Idempotency:  dedupe,
		Logger:       logg,
	})
	requireResource(ctx, logg, "notification consumer", err)

	receiptConsumer, err := receipts.NewConsumer(receipts.ConsumerParams{
		Receipts:     svcs.Receipts,
		Subscription: pubsubClient.SalesSubscription(),
		Idempotency:  dedupe,
		Logger:       logg,
	})
	requireResource(ctx, logg, "receipt consumer", err)

	service, err := NewService(ServiceParams{
		Logger: logg,
		Dependencies: map[string]pinger{
			"database": dbClient,
			"redis":    redisClient,
			"pubsub":   pubsubClient,
		},
		Consumers: map[string]consumer{
			"notifications": notificationConsumer,
			"receipts":      receiptConsumer,
		},
	})
	requireResource(ctx, logg, "worker service", err)

	logg.Info(ctx, "starting worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}

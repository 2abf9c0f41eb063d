package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/ariefcatur/go-geoprice/internal/config"
	kafkax "github.com/ariefcatur/go-geoprice/internal/kafka"
	"github.com/ariefcatur/go-geoprice/internal/logging"
	"github.com/ariefcatur/go-geoprice/internal/orders"
	"github.com/ariefcatur/go-geoprice/internal/postgres"
	"github.com/ariefcatur/go-geoprice/internal/projector"
	"github.com/ariefcatur/go-geoprice/internal/reconcile"
	"github.com/ariefcatur/go-geoprice/internal/redisx"
	"github.com/ariefcatur/go-geoprice/internal/stripex"
	"github.com/ariefcatur/go-geoprice/internal/tracing"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func atoi(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil || i <= 0 {
		return def
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	cfg.ServiceName += "-worker"
	log := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	shutdownTracing := tracing.Setup(cfg.ServiceName)
	defer func() { _ = shutdownTracing(context.Background()) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Producer: events emitted by reconciler-driven order changes
	orderSvc := &orders.Service{Repo: &orders.Repo{DB: db}, Log: log, ServiceName: cfg.ServiceName}
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		orderSvc.Cache = redisx.StatusCache{RDB: rdb}
	}
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(log, cfg.KafkaBrokers, 1024)
		prod.Start()
		orderSvc.Events = prod
	}

	var wg sync.WaitGroup

	// Reconciler
	rec := &reconcile.Reconciler{
		Sessions: stripex.New(stripex.Options{SecretKey: cfg.StripeSecretKey, WebhookSecret: cfg.StripeWebhookSecret, FrontendURL: cfg.FrontendURL}),
		Orders:   orderSvc,
		Log:      log.With("component", "reconciler"),
		Window:   cfg.ReconcileWindow,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("reconciler started", "interval", cfg.ReconcileInterval.String(), "window", cfg.ReconcileWindow.String())
		rec.Run(ctx, cfg.ReconcileInterval)
	}()

	// Projector: needs both Kafka and Redis
	if len(cfg.KafkaBrokers) > 0 && rdb != nil {
		svc := &projector.Service{Redis: rdb, Log: log.With("component", "projector")}
		group := getenv("PROJECTOR_GROUP", "order-status-projector")
		workers := atoi(os.Getenv("PROJECTOR_WORKERS"), 8)
		cons := kafkax.NewConsumer(log, cfg.KafkaBrokers, group, orders.Topics(), workers)

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("projector consumer started", "group", group, "topics", orders.Topics(), "workers", workers)
			if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil && ctx.Err() == nil {
				log.Error("consumer exit", "err", err)
				stop()
			}
		}()
	} else {
		log.Warn("order status projector disabled: KAFKA_BROKERS and REDIS_ADDR are both required")
	}

	<-ctx.Done()
	log.Info("shutting down worker")
	wg.Wait()
	if prod != nil {
		prod.Close()
		prod.WaitClosed()
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

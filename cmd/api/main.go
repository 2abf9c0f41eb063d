package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-geoprice/internal/catalog"
	"github.com/ariefcatur/go-geoprice/internal/checkout"
	"github.com/ariefcatur/go-geoprice/internal/config"
	"github.com/ariefcatur/go-geoprice/internal/httpx"
	kafkax "github.com/ariefcatur/go-geoprice/internal/kafka"
	"github.com/ariefcatur/go-geoprice/internal/logging"
	"github.com/ariefcatur/go-geoprice/internal/orders"
	"github.com/ariefcatur/go-geoprice/internal/postgres"
	"github.com/ariefcatur/go-geoprice/internal/rates"
	"github.com/ariefcatur/go-geoprice/internal/redisx"
	"github.com/ariefcatur/go-geoprice/internal/stripex"
	"github.com/ariefcatur/go-geoprice/internal/tracing"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
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
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("db migrate", "err", err)
		os.Exit(1)
	}

	// Redis (optional): shared rate cache + order status cache
	var rdb *redis.Client
	var rateStore rates.Store = rates.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb = redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "err", err)
		}
		rateStore = rates.NewRedisStore(rdb)
	}

	// Kafka producer (optional)
	orderSvc := &orders.Service{Repo: &orders.Repo{DB: db}, Log: log, ServiceName: cfg.ServiceName}
	if rdb != nil {
		orderSvc.Cache = redisx.StatusCache{RDB: rdb}
	}
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(log, cfg.KafkaBrokers, 1024)
		prod.Start()
		orderSvc.Events = prod
	}

	catalogSvc := &catalog.Service{Repo: &catalog.Repo{DB: db}, Log: log}
	rateSvc := rates.NewService(log, rates.NewHTTPProvider(cfg.ExchangeAPIURL, cfg.ExchangeAPIKey), rateStore)
	stripe := stripex.New(stripex.Options{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		FrontendURL:   cfg.FrontendURL,
	})

	router := httpx.NewRouter(log, cfg.Environment,
		&httpx.ProductsHandler{Catalog: catalogSvc, Rates: rateSvc, Log: log},
		&httpx.CheckoutHandler{
			Checkout: &checkout.Service{Catalog: catalogSvc, Rates: rateSvc, Orders: orderSvc, Payments: stripe, Log: log},
			Webhooks: &checkout.Dispatcher{Verifier: stripe, Orders: orderSvc, Log: log},
			Log:      log,
		},
		&httpx.OrdersHandler{Orders: orderSvc, Redis: rdb, Log: log},
	)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr, "environment", cfg.Environment, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		log.Error("listen", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "err", err)
	}
	if prod != nil {
		prod.Close()      // tutup inbox -> flush & close writer
		prod.WaitClosed() // drain
	}
	log.Info("stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	accountapp "github.com/dwikikusuma/techstore/internal/account/app"
	accounthttp "github.com/dwikikusuma/techstore/internal/account/http"
	accountpg "github.com/dwikikusuma/techstore/internal/account/infra/postgres"

	cartapp "github.com/dwikikusuma/techstore/internal/cart/app"
	carthttp "github.com/dwikikusuma/techstore/internal/cart/http"
	cartadapter "github.com/dwikikusuma/techstore/internal/cart/infra/adapter"
	cartmem "github.com/dwikikusuma/techstore/internal/cart/infra/memory"
	cartredis "github.com/dwikikusuma/techstore/internal/cart/infra/redis"

	catalogapp "github.com/dwikikusuma/techstore/internal/catalog/app"
	cataloghttp "github.com/dwikikusuma/techstore/internal/catalog/http"
	catalogpg "github.com/dwikikusuma/techstore/internal/catalog/infra/postgres"

	checkoutapp "github.com/dwikikusuma/techstore/internal/checkout/app"
	checkouthttp "github.com/dwikikusuma/techstore/internal/checkout/http"
	checkoutadapter "github.com/dwikikusuma/techstore/internal/checkout/infra/adapter"

	orderapp "github.com/dwikikusuma/techstore/internal/order/app"
	orderhttp "github.com/dwikikusuma/techstore/internal/order/http"
	orderpg "github.com/dwikikusuma/techstore/internal/order/infra/postgres"

	"github.com/dwikikusuma/techstore/internal/session"
	"github.com/dwikikusuma/techstore/migrations"
	"github.com/dwikikusuma/techstore/pkg/config"
	"github.com/dwikikusuma/techstore/pkg/idempotency"
	"github.com/dwikikusuma/techstore/pkg/logger"
	"github.com/dwikikusuma/techstore/pkg/outbox"
	"github.com/dwikikusuma/techstore/pkg/postgres"
	"github.com/dwikikusuma/techstore/pkg/shutdown"
	"github.com/dwikikusuma/techstore/pkg/tracing"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfgDir := os.Getenv("TECHSTORE_CONFIG_DIR")
	if cfgDir == "" {
		cfgDir = "configs"
	}
	cfg, err := config.Load(cfgDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service:   cfg.App.Name,
		Env:       cfg.App.Env,
		Level:     cfg.App.LogLevel,
		AddSource: true,
		File:      cfg.App.LogFile,
	})
	stopTracing := tracing.Setup()
	defer func() { _ = stopTracing(context.Background()) }()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("exit", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("bye")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	pool, err := postgres.Open(ctx, postgres.Config{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Pass:     cfg.Postgres.Password,
		DB:       cfg.Postgres.DB,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.MaxConns,
	})
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	if cfg.Postgres.Migrate {
		applied, err := postgres.Migrate(ctx, pool, migrations.FS)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied", slog.Any("versions", applied))
	}

	ready := readiness{"postgres": pool.Ping}

	// Sessions, carts and idempotency keys live in Redis unless the memory backend is chosen.
	var (
		sessionStore session.Store
		cartStore    cartapp.CartStore
		idem         *idempotency.Store
	)
	switch cfg.Session.Backend {
	case "memory":
		sessionStore = session.NewMemoryStore(cfg.Session.TTL)
		cartStore = cartmem.NewCartStore(cfg.Session.TTL)
	default:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		ready["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

		sessionStore = session.NewRedisStore(rdb, cfg.Session.TTL)
		cartStore = cartredis.NewCartStore(rdb, cfg.Session.TTL)
		idem = idempotency.NewStore(rdb, cfg.Checkout.IdempotencyTTL)
	}
	sessions := session.NewManager(sessionStore, session.NewTokens(cfg.Session.Secret, cfg.App.Name, cfg.Session.TTL), cfg.Session.Cookie, cfg.Session.TTL,
		session.WithTouch(cartStore))

	// Catalog
	catalogSvc := catalogapp.NewService(catalogpg.NewProductRepo(pool))

	// Cart
	cartSvc := cartapp.NewService(cartStore, cartadapter.NewCatalogServiceReader(catalogSvc))

	// Account
	accountSvc := accountapp.NewService(accountpg.NewUserRepo(pool), accountapp.BcryptHasher{})

	// Orders
	orderSvc := orderapp.NewService(orderpg.NewOrderRepo(pool))

	// Checkout (adapters)
	checkoutOpts := []checkoutapp.Option{checkoutapp.WithMaxConcurrent(cfg.Checkout.MaxConcurrent)}
	if idem != nil {
		checkoutOpts = append(checkoutOpts, checkoutapp.WithIdempotency(idem))
	}
	checkoutSvc := checkoutapp.NewService(log,
		checkoutadapter.NewCartServiceReader(cartSvc),
		checkoutadapter.NewCatalogServiceReader(catalogSvc),
		checkoutadapter.NewOrderServicePlacer(orderSvc),
		checkoutOpts...,
	)

	router := newRouter(log, sessions, handlers{
		catalog:  cataloghttp.NewHandler(log, catalogSvc),
		cart:     carthttp.NewHandler(log, cartSvc),
		checkout: checkouthttp.NewHandler(log, checkoutSvc),
		account:  accounthttp.NewHandler(log, accountSvc, sessions, cartSvc),
		orders:   orderhttp.NewHandler(log, orderSvc),
	}, ready)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")

		stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer stopCancel()
		if err := server.Shutdown(stopCtx); err != nil {
			log.Error("http shutdown error", slog.Any("err", err))
		}
		return nil
	})

	if cfg.Outbox.Enabled {
		relay, closeRelay := newRelay(log, cfg, pool)
		defer closeRelay()
		g.Go(func() error { return relay.Run(gctx) })
	}

	return g.Wait()
}

func newRelay(log *slog.Logger, cfg config.Config, pool *pgxpool.Pool) (*outbox.Relay, func()) {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Kafka.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	host, _ := os.Hostname()
	relayID := host + "-" + uuid.NewString()[:8]

	relay := outbox.NewRelay(
		log.With("component", "outbox"),
		outbox.NewPGStore(log, pool),
		outbox.NewDispatcher(log, writer, cfg.Kafka.Topic),
		relayID,
		outbox.WithBatchSize(cfg.Outbox.BatchSize),
		outbox.WithInterval(cfg.Outbox.Interval),
		outbox.WithLease(cfg.Outbox.Lease),
	)
	return relay, func() {
		if err := writer.Close(); err != nil {
			log.Error("kafka writer close", slog.Any("err", err))
		}
	}
}

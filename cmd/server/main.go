package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goods-be/internal/api"
	"goods-be/internal/auth"
	"goods-be/internal/catalog"
	"goods-be/internal/config"
	"goods-be/internal/contact"
	"goods-be/internal/db"
	"goods-be/internal/feed"
	"goods-be/internal/logger"
	"goods-be/internal/middleware"
	"goods-be/internal/notify"
	"goods-be/internal/order"
	"goods-be/internal/shop"
	"goods-be/internal/user"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.InitDB
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
	migrateFunc     = func(database *sql.DB, path string) error {
		m, err := db.NewMigrator(database, path, logger.L())
		if err != nil {
			return err
		}
		return m.Up()
	}
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server exited", zap.Error(err))
	}
}

type app struct {
	handler   http.Handler
	relay     *notify.Relay
	limiter   *middleware.RateLimiter
	publisher notify.Publisher
}

func newApp(cfg *config.Config, database *sql.DB) *app {
	log := logger.L()
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	txr := db.NewTxRunner(database)

	userRepo := user.NewRepository(database)
	contactRepo := contact.NewRepository(database)
	shopRepo := shop.NewRepository(database)
	catalogRepo := catalog.NewRepository(database)
	orderRepo := order.NewRepository(database)
	outboxRepo := notify.NewRepository(database)

	var pub notify.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		pub = notify.NewKafkaPublisher(cfg.KafkaBrokers)
		log.Info("publishing order events to kafka", zap.Strings("brokers", cfg.KafkaBrokers))
	} else {
		pub = notify.NewLogPublisher(log)
	}

	h := api.NewHandler(api.Deps{
		Users:    user.NewService(userRepo, tokens),
		Contacts: contact.NewService(contactRepo),
		Shops:    shop.NewService(shopRepo),
		Catalog:  catalog.NewService(txr, catalogRepo, shopRepo),
		Orders: order.NewService(txr, orderRepo, catalogRepo, contactRepo,
			notify.NewOutbox(outboxRepo, cfg.KafkaTopic)),
		Feeds:  feed.NewFetcher(cfg.FeedTimeout, cfg.FeedMaxBytes),
		Secure: cfg.AppEnv == "production",
	})

	mux := http.NewServeMux()
	h.Register(mux)

	limiter := middleware.NewRateLimiter(cfg.InternalSecretKey)
	handler := middleware.Chain(mux,
		logger.RequestIDMiddleware,
		logger.LoggingMiddleware,
		middleware.CORS(cfg.CORSOrigin),
		middleware.AuthMiddleware(tokens),
		limiter.Middleware,
		middleware.Metrics,
	)

	relay := notify.NewRelay(txr, outboxRepo, pub, notify.RelayConfig{
		Interval:  cfg.OutboxInterval,
		BatchSize: cfg.OutboxBatch,
	}, log)

	return &app{handler: handler, relay: relay, limiter: limiter, publisher: pub}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database := initDBFunc(cfg)
	defer database.Close()

	if cfg.AutoMigrate {
		if err := migrateFunc(database, cfg.MigrationsPath); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, database)
	defer a.publisher.Close()

	go a.limiter.Cleanup(ctx, time.Minute)
	a.relay.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = a.relay.Stop(context.Background())
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", zap.Error(err))
	}
	return a.relay.Stop(shutdownCtx)
}

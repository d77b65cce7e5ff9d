package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/logging"
	"storefront/internal/session"
)

const (
	sweepInterval   = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(logging.Options{
		Service:    "storefront",
		Level:      cfg.LogLevel,
		Production: cfg.Production(),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.HealthCheck{}

	api := apiclient.New(cfg.APIBaseURL,
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithBreaker(apiclient.BreakerSettings{
			MaxFailures: cfg.BreakerMaxFailures,
			Cooldown:    cfg.BreakerCooldown,
		}),
		apiclient.WithLogger(logger),
	)

	var storage session.Storage = session.NewMemoryStorage()
	if cfg.MongoURI != "" {
		client, err := database.Connect(ctx, cfg.MongoURI)
		if err != nil {
			logger.Fatal("mongo connect failed", zap.Error(err))
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		db := client.Database(cfg.DBName)
		logger.Info("mongo connected", zap.String("db", db.Name()))
		if err := database.EnsureSessionIndexes(db, logger); err != nil {
			logger.Warn("session index warning", zap.Error(err))
		}
		storage = session.NewMongoStorage(db, cfg.SessionTTL)
		checks["mongo"] = handlers.MongoCheck(db)
	} else {
		logger.Warn("MONGO_URI not set, sessions are kept in memory")
	}

	var cache catalog.Cache = catalog.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, catalog cache will be bypassed until it recovers", zap.Error(err))
		}
		cache = catalog.NewRedisCache(rdb)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	sessions := session.NewManager(storage, session.ClientBackend(api), session.Options{
		TTL:          cfg.SessionTTL,
		AnonymousTTL: cfg.AnonymousTTL,
		JWTSecret:    cfg.JWTSecret,
		CallbackURL:  cfg.PaymentCallbackURL,
		Logger:       logger,
	})
	go sessions.Run(ctx, sweepInterval)

	router := handlers.NewRouter(handlers.Deps{
		Catalog:       catalog.NewService(api, cache, cfg.CatalogTTL, logger),
		Sessions:      sessions,
		SessionCookie: cfg.SessionCookie,
		SessionTTL:    cfg.SessionTTL,
		HealthChecks:  checks,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("api", cfg.APIBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

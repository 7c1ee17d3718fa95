package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"product-api/internal/auth"
	"product-api/internal/config"
	"product-api/internal/database"
	"product-api/internal/logger"
	"product-api/internal/repository"
	"product-api/internal/server"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// In-flight requests get 30 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	done <- true
}

// newStore builds the product repository for the configured driver. The
// returned database.Service is nil unless the postgres driver is selected.
func newStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.ProductRepository, database.Service, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		dbService, err := database.New(cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Database health check", zap.Any("health", dbService.Health(ctx)))
		return repository.NewPostgresProductRepository(dbService.DB(), cfg.Database.Schema), dbService, nil
	default:
		client, err := database.NewDynamoClient(ctx, cfg.Store)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewDynamoProductRepository(client), nil, nil
	}
}

func main() {
	cfg := config.Load()

	log := logger.Must(cfg.Server.Env)
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}

	log.Info("Starting product API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Driver),
		zap.String("table", cfg.Store.TableName),
	)

	ctx := context.Background()

	store, dbService, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize product store", zap.Error(err))
	}

	keys := auth.NewKeySet(cfg.Auth.KeySetURL(), auth.KeySetOptions{
		TTL:             cfg.Auth.CacheTTL,
		RefreshInterval: cfg.Auth.RefreshInterval,
	})
	verifier := auth.NewJWTVerifier(keys, auth.WithIssuer(cfg.Auth.ExpectedIssuer()))
	log.Info("Token verification configured",
		zap.String("jwks_url", cfg.Auth.KeySetURL()),
		zap.String("issuer", cfg.Auth.ExpectedIssuer()),
	)

	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// The limiter fails open, so a missing Redis is not fatal
			log.Warn("Redis unreachable, rate limiting degraded", zap.Error(err))
		}
	}

	srv := server.NewServer(cfg, log, server.Dependencies{
		Store:    store,
		Verifier: verifier,
		Redis:    redisClient,
		DB:       dbService,
	})

	done := make(chan bool, 1)

	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}

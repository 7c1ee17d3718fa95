package server

import (
	"fmt"
	"net/http"
	"time"

	"product-api/internal/auth"
	"product-api/internal/config"
	"product-api/internal/database"
	custommiddleware "product-api/internal/middleware"
	"product-api/internal/repository"
	"product-api/internal/service"
	"product-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Dependencies are the collaborators built by main. Redis and DB are optional.
type Dependencies struct {
	Store    repository.ProductRepository
	Verifier auth.Verifier
	Redis    *redis.Client
	DB       database.Service
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	redis  *redis.Client
	db     database.Service
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      otelhttp.NewHandler(NewRouter(cfg, logger, deps), "product-api"),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		redis:  deps.Redis,
		db:     deps.DB,
	}
}

// NewRouter wires middleware and routes. Every path outside
// cfg.Auth.PublicPaths requires a verified bearer token.
func NewRouter(cfg *config.Config, logger *zap.Logger, deps Dependencies) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.IsDevelopment()))
	router.Use(custommiddleware.AuthMiddleware(deps.Verifier, cfg.Auth.PublicPaths, logger))

	checks := map[string]transport.HealthChecker{}
	if deps.DB != nil {
		checks["database"] = deps.DB
	}
	transport.NewHelloHandler(checks).RegisterRoutes(router)

	var productMiddleware []func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled && deps.Redis != nil {
		productMiddleware = append(productMiddleware, custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "ratelimit:products",
		}, logger))
	}
	if cfg.Auth.RequiredScope != "" {
		productMiddleware = append(productMiddleware, custommiddleware.RequireScope(cfg.Auth.RequiredScope, logger))
	}

	productService := service.NewProductService(
		deps.Store,
		service.NewProductValidator(),
		service.NewRandomIDGenerator(),
		time.Now,
		cfg.Store.TableName,
	)
	transport.NewProductHandler(productService, logger).RegisterRoutes(router, productMiddleware...)

	return router
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}

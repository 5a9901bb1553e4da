package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"product-catalog/internal/cache"
	"product-catalog/internal/config"
	"product-catalog/internal/database"
	"product-catalog/internal/events"
	custommiddleware "product-catalog/internal/middleware"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"
	"product-catalog/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config    *config.Config
	logger    *zap.Logger
	db        *sql.DB
	cache     cache.CategoryCache
	publisher events.Publisher
}

func NewServer(cfg *config.Config, logger *zap.Logger, dbService database.Service) *Server {
	db := dbService.DB()

	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, dbService.Health())
	})

	// Redis is optional: without it the category list is uncached and rate
	// limiting is off.
	var categoryCache cache.CategoryCache
	var redisCache *cache.RedisCategoryCache
	redisAddr := fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port)
	redisCache, err := cache.NewRedisCategoryCache(
		redisAddr,
		cfg.Redis.Password,
		cfg.Redis.DB,
		time.Duration(cfg.Redis.CacheTTLSeconds)*time.Second,
	)
	if err != nil {
		logger.Warn("Redis unavailable, running without category cache", zap.Error(err))
		redisCache = nil
	} else {
		categoryCache = redisCache
	}

	if cfg.Redis.RateLimitEnabled && redisCache != nil {
		router.Use(custommiddleware.RateLimitMiddleware(redisCache.Client(), custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.Redis.RateLimitRequests,
			Window:            time.Duration(cfg.Redis.RateLimitWindow) * time.Second,
			KeyPrefix:         "ratelimit",
		}, logger))
	}

	// Kafka is optional as well
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	// Initialize services
	productService := service.NewProductService(productRepo, categoryRepo, publisher, logger)
	categoryService := service.NewCategoryService(categoryRepo, categoryCache, logger)

	// Initialize handlers
	productHandler := transport.NewProductHandler(productService, logger)
	categoryHandler := transport.NewCategoryHandler(categoryService, logger)

	// Register routes
	productHandler.RegisterRoutes(router)
	categoryHandler.RegisterRoutes(router)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:    cfg,
		logger:    logger,
		db:        db,
		cache:     categoryCache,
		publisher: publisher,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.logger.Error("Failed to close event publisher", zap.Error(err))
		}
	}

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("Failed to close cache connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}

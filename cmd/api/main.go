package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"wallet/internal/clock"
	"wallet/internal/config"
	"wallet/internal/database"
	"wallet/internal/handlers"
	"wallet/internal/logger"
	"wallet/internal/middleware"
	"wallet/internal/services"
	"wallet/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "wallet/internal/docs" // Import swagger docs
)

// @title           Wallet API
// @version         1.0
// @description     Categories, budgets and transactions with budget spending kept consistent with the transaction journal.

// @host      localhost:8080
// @BasePath  /api/v1

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	gin.SetMode(appConfig.GinMode)
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig(appConfig)
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnw("failed to close database", "error", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewPrometheusMetrics(registry)
	httpMetrics := middleware.NewHTTPMetrics(registry)

	// Initialize services
	db := dbManager.DB()
	clk := clock.SystemClock{}
	aggregator := services.NewAggregationService(metrics)
	auditService := services.NewAuditService(db)
	categoryService := services.NewCategoryService(db, aggregator)
	budgetService := services.NewBudgetService(db, categoryService, aggregator, clk, metrics)
	transactionService := services.NewTransactionService(db, categoryService, aggregator, clk, metrics)

	// Initialize handlers
	api := &handlers.Handlers{
		Categories:   handlers.NewCategoryHandler(categoryService, auditService),
		Budgets:      handlers.NewBudgetHandler(budgetService, auditService),
		Transactions: handlers.NewTransactionHandler(transactionService, auditService),
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(middleware.RequestLogging())
	router.Use(httpMetrics.Handler())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())
	router.NoRoute(middleware.NotFound())

	limiter := middleware.NewRateLimiter(appConfig.RateLimitRPS, appConfig.RateLimitBurst)
	stopSweep := make(chan struct{})
	defer close(stopSweep)
	go limiter.Run(time.Minute, stopSweep)

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		if err := dbManager.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")
	v1.Use(limiter.Handler())
	api.RegisterRoutes(v1)

	log.Infof("Starting wallet server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}

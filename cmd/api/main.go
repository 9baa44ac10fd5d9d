package main

import (
	"fmt"
	"net/http"
	"os"

	"markowitz/internal/config"
	"markowitz/internal/database"
	"markowitz/internal/handlers"
	"markowitz/internal/logger"
	"markowitz/internal/marketdata"
	"markowitz/internal/middleware"
	"markowitz/internal/services"
	"markowitz/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "markowitz/internal/docs" // Import swagger docs
)

// @title           Markowitz API
// @version         1.0
// @description     Markowitz is a portfolio optimization service that computes efficient frontiers and tangency portfolios from historical equity prices.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

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

	// Register custom request validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Market data provider
	provider := marketdata.NewYahooProviderWithBaseURL(
		&http.Client{Timeout: appConfig.MarketDataTimeout},
		appConfig.MarketDataBaseURL+"/v8/finance/chart",
	)

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	tickerService := services.NewTickerService(db)
	priceService := services.NewPriceService(db)
	marketDataService := services.NewMarketDataService(db, provider)
	optimizationService := services.NewOptimizationService(db, appConfig)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	tickerHandler := handlers.NewTickerHandler(tickerService, marketDataService)
	priceHandler := handlers.NewPriceHandler(priceService)
	optimizationHandler := handlers.NewOptimizationHandler(optimizationService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Ticker routes
	tickers := protected.Group("/tickers")
	tickers.POST("", tickerHandler.Create)
	tickers.GET("", tickerHandler.List)
	tickers.POST("/import", tickerHandler.ImportCSV)
	tickers.GET("/:id", tickerHandler.Get)
	tickers.PUT("/:id", tickerHandler.Update)
	tickers.DELETE("/:id", tickerHandler.Delete)
	tickers.POST("/:id/sync", tickerHandler.Sync)

	// Price routes
	tickers.POST("/:id/prices", priceHandler.Record)
	tickers.GET("/:id/prices", priceHandler.History)

	// Optimization routes
	optimize := protected.Group("/optimize")
	optimize.POST("", optimizationHandler.Optimize)
	optimize.POST("/chart", optimizationHandler.FrontierChart)

	log.Infof("Starting Markowitz backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}

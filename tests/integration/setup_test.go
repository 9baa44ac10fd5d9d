package integration

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"markowitz/internal/config"
	"markowitz/internal/handlers"
	"markowitz/internal/logger"
	"markowitz/internal/marketdata"
	"markowitz/internal/middleware"
	"markowitz/internal/models"
	"markowitz/internal/services"
	"markowitz/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// optimizationConfig returns server defaults sized for small test universes.
func optimizationConfig() *config.Config {
	return &config.Config{
		RiskFreeRate:          0.03,
		FrontierPoints:        20,
		CovConditionThreshold: 1e12,
		SolverMaxIterations:   20000,
		SolverParallelism:     2,
	}
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Ticker{},
		&models.EquityPrice{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite. Market data syncs hit providerBaseURL; tests that never sync can
// pass an empty string.
func setupApp(t *testing.T, providerBaseURL string) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	provider := marketdata.NewYahooProviderWithBaseURL(
		&http.Client{Timeout: 5 * time.Second},
		providerBaseURL,
	)

	// Services
	userService := services.NewUserService(db)
	tickerService := services.NewTickerService(db)
	priceService := services.NewPriceService(db)
	marketDataService := services.NewMarketDataService(db, provider)
	optimizationService := services.NewOptimizationService(db, optimizationConfig())

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	tickerHandler := handlers.NewTickerHandler(tickerService, marketDataService)
	priceHandler := handlers.NewPriceHandler(priceService)
	optimizationHandler := handlers.NewOptimizationHandler(optimizationService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	tickers := protected.Group("/tickers")
	tickers.POST("", tickerHandler.Create)
	tickers.GET("", tickerHandler.List)
	tickers.POST("/import", tickerHandler.ImportCSV)
	tickers.GET("/:id", tickerHandler.Get)
	tickers.PUT("/:id", tickerHandler.Update)
	tickers.DELETE("/:id", tickerHandler.Delete)
	tickers.POST("/:id/sync", tickerHandler.Sync)
	tickers.POST("/:id/prices", priceHandler.Record)
	tickers.GET("/:id/prices", priceHandler.History)

	optimize := protected.Group("/optimize")
	optimize.POST("", optimizationHandler.Optimize)
	optimize.POST("/chart", optimizationHandler.FrontierChart)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

// createTicker registers a ticker and returns its ID.
func (app *testApp) createTicker(t *testing.T, token, symbol, name string) string {
	t.Helper()
	body := fmt.Sprintf(`{"symbol":%q,"name":%q,"sector":"Technology"}`, symbol, name)
	rec := app.request("POST", "/api/v1/tickers", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create ticker failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["id"].(string)
}

// uploadBars uploads a synthetic daily price series for a ticker. The series
// is a multiplicative walk so every close stays positive.
func (app *testApp) uploadBars(t *testing.T, token, tickerID string, days int, drift, phase float64) {
	t.Helper()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	var bars []string
	for i := 0; i < days; i++ {
		price *= 1 + drift + 0.008*math.Sin(float64(i)*0.9+phase)
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		bars = append(bars, fmt.Sprintf(`{"date":%q,"close":%.6f,"volume":%d}`, date, price, 1_000_000+i))
	}
	body := fmt.Sprintf(`{"bars":[%s]}`, strings.Join(bars, ","))

	rec := app.request("POST", "/api/v1/tickers/"+tickerID+"/prices", body, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload bars failed: %d %s", rec.Code, rec.Body.String())
	}
}

package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Market data
	MarketDataBaseURL string
	MarketDataTimeout time.Duration

	// Optimization defaults, used when a request omits the option.
	RiskFreeRate          float64
	FrontierPoints        int
	CovConditionThreshold float64
	SolverMaxIterations   int
	SolverParallelism     int
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "markowitz"),
		DBPassword: getEnv("DB_PASSWORD", "markowitz"),
		DBName:     getEnv("DB_NAME", "markowitz"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		// Market data
		MarketDataBaseURL: getEnv("MARKET_DATA_BASE_URL", "https://query1.finance.yahoo.com"),

		// Optimization defaults
		RiskFreeRate:          getEnvFloat("RISK_FREE_RATE", 0.03),
		FrontierPoints:        getEnvInt("FRONTIER_POINTS", 50),
		CovConditionThreshold: getEnvFloat("COV_CONDITION_THRESHOLD", 1e12),
		SolverMaxIterations:   getEnvInt("SOLVER_MAX_ITERATIONS", 20000),
		SolverParallelism:     getEnvInt("SOLVER_PARALLELISM", 4),
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	// Parse market data timeout
	mdStr := getEnv("MARKET_DATA_TIMEOUT", "15s")
	mdDur, err := time.ParseDuration(mdStr)
	if err != nil {
		log.Printf("Warning: invalid MARKET_DATA_TIMEOUT value '%s', falling back to 15s\n", mdStr)
		mdDur = 15 * time.Second
	}
	config.MarketDataTimeout = mdDur

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Warning: invalid %s value '%s', using default %d\n", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Warning: invalid %s value '%s', using default %g\n", key, value, defaultValue)
	}
	return defaultValue
}

package services

import (
	"context"
	"io"
	"time"

	"markowitz/internal/engine"
	"markowitz/internal/models"
	"markowitz/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
}

// CSVImportResult summarizes a bulk ticker import.
type CSVImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// TickerServicer defines the contract for ticker-related business logic.
type TickerServicer interface {
	CreateTicker(symbol, name, sector, exchange, currency string) (*models.Ticker, error)
	GetTickerByID(id string) (*models.Ticker, error)
	GetTickerBySymbol(symbol string) (*models.Ticker, error)
	ListTickers(page pagination.PageRequest, sector string) (*pagination.PageResponse[models.Ticker], error)
	UpdateTicker(id string, name, description, sector, exchange string) (*models.Ticker, error)
	DeleteTicker(id string) error
	ImportCSV(r io.Reader) (*CSVImportResult, error)
}

// PriceInput is one daily bar to record for a ticker.
type PriceInput struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// PriceServicer defines the contract for equity price storage.
type PriceServicer interface {
	RecordPrices(tickerID string, prices []PriceInput) (int, error)
	GetPriceHistory(tickerID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.EquityPrice], error)
	GetCloseSeries(symbols []string, from, to time.Time) ([]engine.PriceSeries, error)
}

// MarketDataServicer syncs price history from the upstream provider.
type MarketDataServicer interface {
	SyncTicker(ctx context.Context, tickerID string, from, to time.Time) (int, error)
}

// OptimizationRequest selects the universe and parameters for one run.
type OptimizationRequest struct {
	Symbols        []string
	From           time.Time
	To             time.Time
	ReturnType     string
	Period         string
	MeanMethod     string
	AllowShort     bool
	FrontierPoints int
	RiskFreeRate   *float64
	Annualize      bool
	Shrinkage      bool
	Interpolate    bool
}

// OptimizationServicer runs portfolio optimizations over stored price history.
type OptimizationServicer interface {
	Optimize(req OptimizationRequest) (*engine.OptimizationResult, error)
	RenderFrontierChart(req OptimizationRequest) ([]byte, error)
}

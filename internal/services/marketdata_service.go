package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"markowitz/internal/logger"
	"markowitz/internal/marketdata"
)

// marketDataService syncs daily bars from the upstream provider into the
// price store.
type marketDataService struct {
	db       *gorm.DB
	provider marketdata.Provider
	prices   PriceServicer
	tickers  TickerServicer
}

// NewMarketDataService creates a new MarketDataServicer.
func NewMarketDataService(db *gorm.DB, provider marketdata.Provider) MarketDataServicer {
	return &marketDataService{
		db:       db,
		provider: provider,
		prices:   NewPriceService(db),
		tickers:  NewTickerService(db),
	}
}

// SyncTicker fetches daily candles for a ticker's symbol and records the ones
// not yet stored. Returns the number of newly inserted bars.
func (s *marketDataService) SyncTicker(ctx context.Context, tickerID string, from, to time.Time) (int, error) {
	ticker, err := s.tickers.GetTickerByID(tickerID)
	if err != nil {
		return 0, err
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(-1, 0, 0)
	}

	candles, err := s.provider.FetchDailyCandles(ctx, ticker.Symbol, from, to)
	if err != nil {
		return 0, err
	}
	if len(candles) == 0 {
		logger.Get().Warnw("provider returned no candles", "symbol", ticker.Symbol, "from", from, "to", to)
		return 0, nil
	}

	inputs := make([]PriceInput, len(candles))
	for i, c := range candles {
		inputs[i] = PriceInput{
			Date:   c.Date,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		}
	}

	inserted, err := s.prices.RecordPrices(tickerID, inputs)
	if err != nil {
		return inserted, err
	}

	logger.Get().Infow("synced price history",
		"symbol", ticker.Symbol,
		"fetched", len(candles),
		"inserted", inserted,
	)
	return inserted, nil
}

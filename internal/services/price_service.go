package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"markowitz/internal/engine"
	apperrors "markowitz/internal/errors"
	"markowitz/internal/models"
	"markowitz/internal/pagination"
)

// priceService handles equity price storage and retrieval.
type priceService struct {
	db *gorm.DB
}

// NewPriceService creates a new PriceServicer.
func NewPriceService(db *gorm.DB) PriceServicer {
	return &priceService{db: db}
}

// RecordPrices bulk-inserts daily bars for a ticker, skipping dates that are
// already recorded. Price history is append-only.
func (s *priceService) RecordPrices(tickerID string, prices []PriceInput) (int, error) {
	if len(prices) == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Prices array is empty")
	}

	var count int64
	if err := s.db.Model(&models.Ticker{}).Where("id = ?", tickerID).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return 0, apperrors.ErrTickerNotFound
	}

	inserted := 0
	for _, p := range prices {
		if p.Close <= 0 {
			return inserted, apperrors.WithMessage(apperrors.ErrInvalidPrice,
				fmt.Sprintf("close %v on %s is not positive", p.Close, p.Date.Format("2006-01-02")))
		}
		bar := models.EquityPrice{
			TickerID: tickerID,
			Date:     p.Date.UTC().Truncate(24 * time.Hour),
			Open:     p.Open,
			High:     p.High,
			Low:      p.Low,
			Close:    p.Close,
			Volume:   p.Volume,
		}
		result := s.db.Where("ticker_id = ? AND date = ?", bar.TickerID, bar.Date).FirstOrCreate(&bar)
		if result.Error != nil {
			return inserted, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected > 0 {
			inserted++
		}
	}

	return inserted, nil
}

// GetPriceHistory returns paginated daily bars for a ticker within a date
// range, newest first.
func (s *priceService) GetPriceHistory(tickerID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.EquityPrice], error) {
	page.Defaults()

	base := s.db.Model(&models.EquityPrice{}).
		Where("ticker_id = ? AND date >= ? AND date <= ?", tickerID, from, to)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var prices []models.EquityPrice
	if err := base.Order("date DESC").Scopes(pagination.Paginate(page)).Find(&prices).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(prices, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCloseSeries loads the close history for each symbol in chronological
// order, shaped for the optimization engine. Every symbol must exist and have
// at least one bar in the range.
func (s *priceService) GetCloseSeries(symbols []string, from, to time.Time) ([]engine.PriceSeries, error) {
	series := make([]engine.PriceSeries, 0, len(symbols))
	for _, symbol := range symbols {
		var ticker models.Ticker
		if err := s.db.Where("symbol = ?", symbol).First(&ticker).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.WithMessage(apperrors.ErrTickerNotFound,
					fmt.Sprintf("ticker %s is not registered", symbol))
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var prices []models.EquityPrice
		query := s.db.Where("ticker_id = ?", ticker.ID)
		if !from.IsZero() {
			query = query.Where("date >= ?", from)
		}
		if !to.IsZero() {
			query = query.Where("date <= ?", to)
		}
		if err := query.Order("date ASC").Find(&prices).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(prices) == 0 {
			return nil, apperrors.WithMessage(apperrors.ErrNoPriceHistory,
				fmt.Sprintf("no price history for %s in the requested range", symbol))
		}

		points := make([]engine.PricePoint, len(prices))
		for i, p := range prices {
			points[i] = engine.PricePoint{Date: p.Date, Close: p.Close}
		}
		series = append(series, engine.PriceSeries{Symbol: symbol, Points: points})
	}
	return series, nil
}

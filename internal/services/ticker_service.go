package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"

	apperrors "markowitz/internal/errors"
	"markowitz/internal/models"
	"markowitz/internal/pagination"
)

// tickerService handles ticker-related business logic.
type tickerService struct {
	db *gorm.DB
}

// NewTickerService creates a new TickerServicer.
func NewTickerService(db *gorm.DB) TickerServicer {
	return &tickerService{db: db}
}

// CreateTicker creates a new ticker record.
func (s *tickerService) CreateTicker(symbol, name, sector, exchange, currency string) (*models.Ticker, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Symbol is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Name is required")
	}
	if currency == "" {
		currency = "USD"
	}

	ticker := &models.Ticker{
		Symbol:   symbol,
		Name:     name,
		Sector:   sector,
		Exchange: exchange,
		Currency: currency,
	}

	if err := s.db.Create(ticker).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrDuplicateTicker
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return ticker, nil
}

// GetTickerByID returns a ticker by its ID.
func (s *tickerService) GetTickerByID(id string) (*models.Ticker, error) {
	var ticker models.Ticker
	if err := s.db.Where("id = ?", id).First(&ticker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTickerNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &ticker, nil
}

// GetTickerBySymbol returns a ticker by its exchange symbol.
func (s *tickerService) GetTickerBySymbol(symbol string) (*models.Ticker, error) {
	var ticker models.Ticker
	if err := s.db.Where("symbol = ?", strings.ToUpper(strings.TrimSpace(symbol))).First(&ticker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTickerNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &ticker, nil
}

// ListTickers returns a paginated list of tickers ordered by symbol,
// optionally filtered by sector.
func (s *tickerService) ListTickers(page pagination.PageRequest, sector string) (*pagination.PageResponse[models.Ticker], error) {
	page.Defaults()

	base := s.db.Model(&models.Ticker{})
	if sector != "" {
		base = base.Where("sector = ?", sector)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var tickers []models.Ticker
	if err := base.Order("symbol ASC").Scopes(pagination.Paginate(page)).Find(&tickers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(tickers, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateTicker updates mutable metadata on a ticker. Empty fields are left
// unchanged.
func (s *tickerService) UpdateTicker(id string, name, description, sector, exchange string) (*models.Ticker, error) {
	ticker, err := s.GetTickerByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}
	if sector != "" {
		updates["sector"] = sector
	}
	if exchange != "" {
		updates["exchange"] = exchange
	}
	if len(updates) == 0 {
		return ticker, nil
	}

	if err := s.db.Model(ticker).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return ticker, nil
}

// DeleteTicker soft-deletes a ticker. Its price history is kept.
func (s *tickerService) DeleteTicker(id string) error {
	result := s.db.Where("id = ?", id).Delete(&models.Ticker{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTickerNotFound
	}
	return nil
}

// ImportCSV bulk-creates tickers from semicolon-separated rows of
// "name;symbol;sector". Rows whose symbol already exists are skipped, and
// malformed rows are collected without aborting the import.
func (s *tickerService) ImportCSV(r io.Reader) (*CSVImportResult, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	result := &CSVImportResult{}
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if len(record) < 2 {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: expected name;symbol;sector", line))
			continue
		}

		name := strings.TrimSpace(record[0])
		symbol := strings.ToUpper(strings.TrimSpace(record[1]))
		sector := ""
		if len(record) > 2 {
			sector = strings.TrimSpace(record[2])
		}

		_, err = s.CreateTicker(symbol, name, sector, "", "")
		switch {
		case err == nil:
			result.Created++
		case errors.Is(err, apperrors.ErrDuplicateTicker):
			result.Skipped++
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("line %d (%s): %v", line, symbol, err))
		}
	}

	if result.Created == 0 && result.Skipped == 0 && len(result.Errors) > 0 {
		return result, apperrors.WithMessage(apperrors.ErrInvalidInput, "no valid rows in CSV import")
	}
	return result, nil
}

// isUniqueConstraintError checks if a GORM error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "duplicate key value violates unique constraint") // PostgreSQL
}

package models

import (
	"time"

	"markowitz/internal/uuid"

	"gorm.io/gorm"
)

// EquityPrice represents one daily bar of historical trading data for a
// ticker. This is immutable time-series data, so no Base embed and no soft
// deletes.
// Each (ticker, date) pair is unique.
type EquityPrice struct {
	ID       string    `gorm:"type:uuid;primaryKey" json:"id"`
	TickerID string    `gorm:"type:uuid;not null;uniqueIndex:uq_equity_prices_ticker_date" json:"ticker_id"`
	Date     time.Time `gorm:"not null;uniqueIndex:uq_equity_prices_ticker_date" json:"date"`
	Open     float64   `gorm:"not null" json:"open"`
	High     float64   `gorm:"not null" json:"high"`
	Low      float64   `gorm:"not null" json:"low"`
	Close    float64   `gorm:"not null" json:"close"`
	Volume   int64     `json:"volume"`
	Ticker   Ticker    `gorm:"foreignKey:TickerID" json:"ticker,omitempty"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *EquityPrice) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}

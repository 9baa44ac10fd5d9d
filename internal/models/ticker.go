package models

// Ticker represents a tradable instrument with metadata from the market data
// provider. A ticker is uniquely keyed by its symbol.
type Ticker struct {
	Base
	Symbol         string        `gorm:"not null;uniqueIndex" json:"symbol"`
	Name           string        `gorm:"not null" json:"name"`
	Description    string        `gorm:"type:text" json:"description,omitempty"`
	Sector         string        `json:"sector,omitempty"`
	Market         string        `json:"market,omitempty"`
	SICCode        string        `gorm:"column:sic_code" json:"sic_code,omitempty"`
	SICDescription string        `gorm:"column:sic_description" json:"sic_description,omitempty"`
	Exchange       string        `json:"exchange,omitempty"`
	Currency       string        `gorm:"not null;default:'USD'" json:"currency"`
	Prices         []EquityPrice `gorm:"foreignKey:TickerID" json:"prices,omitempty"`
}

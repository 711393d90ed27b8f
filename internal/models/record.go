package models

import "time"

// PortfolioRecord is one append-only log entry for a quantity-changing event.
// Records are never updated or deleted; they are the authoritative audit trail
// independent of current holding state. Immutable: no Base embed, no soft
// deletes.
type PortfolioRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PortfolioID uint      `gorm:"not null;index" json:"portfolio_id"`
	TickerID    uint      `gorm:"not null" json:"ticker_id"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Price       float64   `gorm:"not null" json:"price"`
	IsBuy       bool      `gorm:"not null" json:"is_buy"`
	RecordedAt  time.Time `gorm:"not null" json:"recorded_at"`

	Ticker Ticker `gorm:"foreignKey:TickerID" json:"ticker,omitempty"`
}

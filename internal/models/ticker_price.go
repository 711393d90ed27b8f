package models

import "time"

// TickerPrice represents a historical closing price entry for a ticker.
// This is immutable time-series data: no Base embed, no soft deletes.
type TickerPrice struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TickerID   uint      `gorm:"not null;index" json:"ticker_id"`
	Close      float64   `gorm:"not null" json:"close"`
	RecordedAt time.Time `gorm:"not null" json:"recorded_at"`
	Ticker     Ticker    `gorm:"foreignKey:TickerID" json:"ticker,omitempty"`
}

package models

import "time"

// PortfolioValuation is a close-price valuation snapshot of one portfolio,
// written by the revaluation pipeline. One row per portfolio per run;
// re-running for the same timestamp updates the existing row.
type PortfolioValuation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PortfolioID   uint      `gorm:"not null;index" json:"portfolio_id"`
	TotalValue    float64   `gorm:"not null" json:"total_value"`
	CashValue     float64   `gorm:"not null" json:"cash_value"`
	HoldingsValue float64   `gorm:"not null" json:"holdings_value"`
	RecordedAt    time.Time `gorm:"not null" json:"recorded_at"`
}

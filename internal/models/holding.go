package models

// Holding represents a portfolio's position in one ticker.
//
// Quantity never goes negative; a sell that would drive it below zero is
// rejected at the service layer. A holding whose quantity reaches zero on a
// sell is deleted. Auto portfolios are the one exception at creation time:
// initialization writes zero-quantity placeholders ahead of the first buys.
type Holding struct {
	Base
	PortfolioID uint    `gorm:"not null;uniqueIndex:uq_holdings_portfolio_ticker" json:"portfolio_id"`
	TickerID    uint    `gorm:"not null;uniqueIndex:uq_holdings_portfolio_ticker" json:"ticker_id"`
	Quantity    int     `gorm:"not null;default:0" json:"quantity"`
	AverageCost float64 `gorm:"not null;default:0" json:"average_cost"`
	// Informational weights, refreshed by the revaluation pipeline.
	InitProportion    float64 `gorm:"not null;default:0" json:"init_proportion"`
	CurrentProportion float64 `gorm:"not null;default:0" json:"current_proportion"`

	Ticker Ticker `gorm:"foreignKey:TickerID" json:"ticker,omitempty"`
}

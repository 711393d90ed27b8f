package models

// Rebalancing is a timestamped recommendation event for a portfolio. The first
// one is created during auto-portfolio initialization; each carries an ordered
// set of per-ticker suggestion lines.
type Rebalancing struct {
	Base
	PortfolioID uint `gorm:"not null;index" json:"portfolio_id"`

	Lines []RebalancingTicker `gorm:"foreignKey:RebalancingID" json:"lines,omitempty"`
}

// RebalancingTicker is one suggestion line of a rebalancing event: which
// ticker to trade, in which direction, how many shares, and the reference
// price quoted at recommendation time.
type RebalancingTicker struct {
	Base
	RebalancingID uint    `gorm:"not null;index" json:"rebalancing_id"`
	TickerID      uint    `gorm:"not null" json:"ticker_id"`
	IsBuy         bool    `gorm:"not null" json:"is_buy"`
	Quantity      int     `gorm:"not null" json:"quantity"`
	Price         float64 `gorm:"not null" json:"price"`

	Ticker Ticker `gorm:"foreignKey:TickerID" json:"ticker,omitempty"`
}

package models

// Portfolio represents one user portfolio, either auto-managed (composition
// recommended by the external allocation service) or manually entered.
//
// CurrentCash is only meaningful for auto portfolios: manual portfolios keep
// every cash field at zero and never mutate them.
type Portfolio struct {
	Base
	UserID      uint    `gorm:"not null;index" json:"user_id"`
	Name        string  `gorm:"not null" json:"name"`
	Country     string  `gorm:"not null" json:"country"`
	IsAuto      bool    `gorm:"not null" json:"is_auto"`
	InitAsset   float64 `gorm:"not null;default:0" json:"init_asset"`
	InitCash    float64 `gorm:"not null;default:0" json:"init_cash"`
	CurrentCash float64 `gorm:"not null;default:0" json:"current_cash"`
	RiskLevel   int     `gorm:"not null;default:0" json:"risk_level"`

	// Relationships
	Holdings []Holding         `gorm:"foreignKey:PortfolioID" json:"holdings,omitempty"`
	Sectors  []PortfolioSector `gorm:"foreignKey:PortfolioID" json:"sectors,omitempty"`
}

// PortfolioSector links a portfolio to one of its selected sectors.
// Position preserves the request order: the first sector drives the candidate
// universe during auto-portfolio initialization.
type PortfolioSector struct {
	Base
	PortfolioID uint `gorm:"not null;index:idx_portfolio_sectors_portfolio" json:"portfolio_id"`
	SectorID    uint `gorm:"not null" json:"sector_id"`
	Position    int  `gorm:"not null;default:0" json:"position"`

	Sector Sector `gorm:"foreignKey:SectorID" json:"sector,omitempty"`
}

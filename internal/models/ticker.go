package models

// AssetClass classifies a ticker as an equity or a fixed-income asset.
type AssetClass string

const (
	AssetClassEquity AssetClass = "equity"
	AssetClassBond   AssetClass = "bond"
)

// Sector groups tickers into an industry sector. Auto portfolios pick their
// candidate universe from the sectors the user selected at creation time.
type Sector struct {
	Base
	Name    string   `gorm:"uniqueIndex;not null" json:"name"`
	Tickers []Ticker `gorm:"foreignKey:SectorID" json:"tickers,omitempty"`
}

// Ticker represents immutable listing reference data for one instrument.
// Rows are maintained by the external data pipeline, never by user requests.
type Ticker struct {
	Base
	Symbol      string     `gorm:"uniqueIndex;not null" json:"symbol"`
	Name        string     `gorm:"not null" json:"name"`
	Exchange    string     `gorm:"not null" json:"exchange"`
	Country     string     `gorm:"not null;index" json:"country"`
	SectorID    uint       `gorm:"index" json:"sector_id"`
	AssetClass  AssetClass `gorm:"not null;default:'equity'" json:"asset_class"`
	IsSafeAsset bool       `gorm:"not null;default:false" json:"is_safe_asset"`
	// MarketRank orders tickers within a sector; 1 is the largest.
	// Maintained by the external data pipeline.
	MarketRank int `gorm:"not null;default:0" json:"market_rank"`

	Sector Sector `gorm:"foreignKey:SectorID" json:"sector,omitempty"`
}

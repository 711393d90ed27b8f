package services

import (
	"context"
	"time"

	"folio/internal/models"
	"folio/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, name string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// CreateAutoPortfolioInput holds the parameters for creating an auto portfolio.
type CreateAutoPortfolioInput struct {
	Name      string
	Country   string
	Asset     float64
	RiskLevel int
	SectorIDs []uint
}

// ManualStockInput is one user-entered position for a manual portfolio.
type ManualStockInput struct {
	Symbol   string
	Quantity int
	Price    float64
	IsBuy    bool
}

// CreateManualPortfolioInput holds the parameters for creating a manual portfolio.
type CreateManualPortfolioInput struct {
	Name    string
	Country string
	Stocks  []ManualStockInput
}

// TradeInput holds the parameters for a buy or sell mutation.
type TradeInput struct {
	Symbol   string
	Quantity int
	Price    float64
}

// ValuationResult is a portfolio valuation with a per-holding breakdown
// keyed by holding ID.
type ValuationResult struct {
	Total      float64          `json:"total"`
	Cash       float64          `json:"cash"`
	PerHolding map[uint]float64 `json:"per_holding"`
}

// HoldingPerformance is one holding's slice of a performance report.
type HoldingPerformance struct {
	Symbol      string            `json:"symbol"`
	CompanyName string            `json:"company_name"`
	Quantity    int               `json:"quantity"`
	AverageCost float64           `json:"average_cost"`
	AssetClass  models.AssetClass `json:"asset_class"`
}

// Performance summarizes a portfolio's positions against its initial asset.
type Performance struct {
	InitAsset   float64              `json:"init_asset"`
	CurrentCash float64              `json:"current_cash"`
	Holdings    []HoldingPerformance `json:"holdings"`
}

// PortfolioServicer defines the contract for portfolio-related business logic.
type PortfolioServicer interface {
	CreateAutoPortfolio(userID uint, input CreateAutoPortfolioInput) (*models.Portfolio, error)
	InitializeAutoPortfolio(ctx context.Context, userID, portfolioID uint) error
	CreateManualPortfolio(userID uint, input CreateManualPortfolioInput) (uint, error)
	Buy(userID, portfolioID uint, trade TradeInput) error
	Sell(userID, portfolioID uint, trade TradeInput) error
	Valuation(userID, portfolioID uint, useAverageCost bool) (*ValuationResult, error)
	GetPortfolioByID(userID, portfolioID uint) (*models.Portfolio, error)
	GetUserPortfolios(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Portfolio], error)
	GetPerformance(userID, portfolioID uint) (*Performance, error)
	UpdateName(userID, portfolioID uint, name string) error
	Delete(userID, portfolioID uint) error
	GetRecords(userID, portfolioID uint, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioRecord], error)
}

// TickerFilter holds optional filter parameters for listing tickers.
type TickerFilter struct {
	SectorID    *uint
	Country     *string
	IsSafeAsset *bool
}

// PriceEntry is one close price submitted by the data pipeline.
type PriceEntry struct {
	TickerID   uint
	Close      float64
	RecordedAt time.Time
}

// TickerServicer defines the contract for ticker reference-data queries.
type TickerServicer interface {
	TopBySector(sectorID uint, country string, limit int) ([]models.Ticker, error)
	SafeAssets(country string) ([]models.Ticker, error)
	GetBySymbol(symbol string) (*models.Ticker, error)
	ListSectors() ([]models.Sector, error)
	ListTickers(filter TickerFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Ticker], error)
	RecordPrices(entries []PriceEntry) (int, error)
	LatestCloses(tickerIDs []uint) (map[uint]float64, error)
}

// RebalancingServicer defines the contract for rebalancing notification queries.
type RebalancingServicer interface {
	GetPortfolioRebalancings(userID, portfolioID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Rebalancing], error)
}

// RevaluationServicer defines the contract for the pipeline-triggered
// close-price revaluation of portfolios.
type RevaluationServicer interface {
	RevaluePortfolios(recordedAt time.Time) (int, error)
}

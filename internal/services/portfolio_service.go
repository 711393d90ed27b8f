package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"folio/internal/allocation"
	apperrors "folio/internal/errors"
	"folio/internal/models"
	"folio/internal/pagination"
)

// Safe-asset target ratio per risk level. Levels outside 1 and 2 fall back
// to the most aggressive ratio.
func safeAssetRatio(riskLevel int) float64 {
	switch riskLevel {
	case 1:
		return 0.3
	case 2:
		return 0.2
	default:
		return 0.1
	}
}

// topSectorPicks is how many tickers of the leading sector enter the
// candidate universe during auto-portfolio initialization.
const topSectorPicks = 10

// portfolioService handles portfolio-related business logic.
type portfolioService struct {
	db        *gorm.DB
	tickers   TickerServicer
	allocator allocation.Client
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB, tickers TickerServicer, allocator allocation.Client) PortfolioServicer {
	return &portfolioService{db: db, tickers: tickers, allocator: allocator}
}

// getOwnedPortfolio loads a portfolio and verifies it belongs to the user.
// A portfolio owned by someone else is reported as not found.
func (s *portfolioService) getOwnedPortfolio(userID, portfolioID uint) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := s.db.First(&portfolio, portfolioID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPortfolioNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if portfolio.UserID != userID {
		return nil, apperrors.ErrPortfolioNotFound
	}
	return &portfolio, nil
}

// defaultPortfolioName derives the fallback display name from the owner's
// name and their current portfolio count.
func (s *portfolioService) defaultPortfolioName(userID uint, auto bool) (string, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrUserNotFound
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var count int64
	if err := s.db.Model(&models.Portfolio{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	kind := "manual"
	if auto {
		kind = "auto"
	}
	return fmt.Sprintf("%s's %s portfolio %d", user.Name, kind, count+1), nil
}

// CreateAutoPortfolio persists a new auto portfolio with its sector selection.
// The portfolio starts with no holdings and its entire initial asset in cash;
// InitializeAutoPortfolio fills in the recommendation afterwards.
func (s *portfolioService) CreateAutoPortfolio(userID uint, input CreateAutoPortfolioInput) (*models.Portfolio, error) {
	if len(input.SectorIDs) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one sector is required")
	}
	if input.Asset <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "initial asset must be positive")
	}

	name := input.Name
	if name == "" {
		var err error
		name, err = s.defaultPortfolioName(userID, true)
		if err != nil {
			return nil, err
		}
	}

	// Verify every requested sector exists before writing anything.
	for _, sectorID := range input.SectorIDs {
		var count int64
		if err := s.db.Model(&models.Sector{}).Where("id = ?", sectorID).Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return nil, apperrors.ErrSectorNotFound
		}
	}

	portfolio := &models.Portfolio{
		UserID:      userID,
		Name:        name,
		Country:     input.Country,
		IsAuto:      true,
		InitAsset:   input.Asset,
		InitCash:    input.Asset,
		CurrentCash: input.Asset,
		RiskLevel:   input.RiskLevel,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Create(portfolio).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		for i, sectorID := range input.SectorIDs {
			link := models.PortfolioSector{
				PortfolioID: portfolio.ID,
				SectorID:    sectorID,
				Position:    i,
			}
			if txErr := tx.Create(&link).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return portfolio, nil
}

// InitializeAutoPortfolio requests a target allocation from the external
// allocation service and persists the initial rebalancing recommendation plus
// zero-quantity holding placeholders. The whole step is all-or-nothing: any
// allocation or pricing failure leaves no partial rebalancing or holding set.
func (s *portfolioService) InitializeAutoPortfolio(ctx context.Context, userID, portfolioID uint) error {
	portfolio, err := s.getOwnedPortfolio(userID, portfolioID)
	if err != nil {
		return err
	}
	if !portfolio.IsAuto {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "only auto portfolios can be initialized")
	}

	var firstSector models.PortfolioSector
	if err := s.db.Where("portfolio_id = ?", portfolioID).
		Order("position ASC").First(&firstSector).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrSectorNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Candidate universe: leading sector's top picks plus every safe asset
	// for the portfolio's market.
	universe, err := s.tickers.TopBySector(firstSector.SectorID, portfolio.Country, topSectorPicks)
	if err != nil {
		return err
	}
	safeAssets, err := s.tickers.SafeAssets(portfolio.Country)
	if err != nil {
		return err
	}
	universe = append(universe, safeAssets...)
	if len(universe) == 0 {
		return apperrors.ErrEmptyUniverse
	}

	suffixed := make([]string, len(universe))
	symbols := make([]string, len(universe))
	for i, ticker := range universe {
		suffixed[i] = allocation.SuffixedSymbol(ticker.Symbol, ticker.Exchange)
		symbols[i] = ticker.Symbol
	}

	shareCounts, err := s.allocator.GetAllocation(ctx, suffixed, safeAssetRatio(portfolio.RiskLevel), int(portfolio.InitCash))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrAllocationService, err)
	}
	// The response is positional: anything but an exact length match is a
	// contract violation, not something to truncate around.
	if len(shareCounts) != len(universe) {
		return apperrors.Wrap(apperrors.ErrAllocationMismatch,
			fmt.Errorf("submitted %d tickers, got %d share counts", len(universe), len(shareCounts)))
	}

	prices, err := s.allocator.GetCurrentPrices(ctx, symbols)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrAllocationService, err)
	}
	if len(prices) != len(universe) {
		return apperrors.Wrap(apperrors.ErrAllocationMismatch,
			fmt.Errorf("submitted %d tickers, got %d prices", len(universe), len(prices)))
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		rebalancing := models.Rebalancing{PortfolioID: portfolio.ID}
		if txErr := tx.Create(&rebalancing).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		for i, ticker := range universe {
			line := models.RebalancingTicker{
				RebalancingID: rebalancing.ID,
				TickerID:      ticker.ID,
				IsBuy:         true,
				Quantity:      shareCounts[i],
				Price:         prices[i],
			}
			if txErr := tx.Create(&line).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}

			// Holdings start as empty placeholders; the recommendation is
			// executed through later buys.
			holding := models.Holding{
				PortfolioID: portfolio.ID,
				TickerID:    ticker.ID,
				Quantity:    0,
				AverageCost: 0,
			}
			if txErr := tx.Create(&holding).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
		}
		return nil
	})
}

// CreateManualPortfolio creates a portfolio directly from user-entered
// positions and returns the new portfolio's ID. Manual portfolios do not
// track cash and carry risk level 0.
func (s *portfolioService) CreateManualPortfolio(userID uint, input CreateManualPortfolioInput) (uint, error) {
	if len(input.Stocks) == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one stock entry is required")
	}

	name := input.Name
	if name == "" {
		var err error
		name, err = s.defaultPortfolioName(userID, false)
		if err != nil {
			return 0, err
		}
	}

	// Resolve every symbol up front so an unknown ticker fails before any write.
	tickers := make([]*models.Ticker, len(input.Stocks))
	totalAsset := 0.0
	for i, stock := range input.Stocks {
		if stock.Quantity <= 0 || stock.Price <= 0 {
			return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "stock quantity and price must be positive")
		}
		ticker, err := s.tickers.GetBySymbol(stock.Symbol)
		if err != nil {
			return 0, err
		}
		tickers[i] = ticker
		totalAsset += float64(stock.Quantity) * stock.Price
	}

	portfolio := &models.Portfolio{
		UserID:      userID,
		Name:        name,
		Country:     input.Country,
		IsAuto:      false,
		InitAsset:   totalAsset,
		InitCash:    0,
		CurrentCash: 0,
		RiskLevel:   0,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Create(portfolio).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		now := time.Now()
		for i, stock := range input.Stocks {
			holding := models.Holding{
				PortfolioID: portfolio.ID,
				TickerID:    tickers[i].ID,
				Quantity:    stock.Quantity,
				AverageCost: stock.Price,
			}
			if txErr := tx.Create(&holding).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}

			record := models.PortfolioRecord{
				PortfolioID: portfolio.ID,
				TickerID:    tickers[i].ID,
				Quantity:    stock.Quantity,
				Price:       stock.Price,
				IsBuy:       stock.IsBuy,
				RecordedAt:  now,
			}
			if txErr := tx.Create(&record).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return portfolio.ID, nil
}

// Buy adjusts a holding for a purchase. Buying onto an existing holding
// recomputes the weighted-average cost and appends two records: the purchased
// delta and the resulting total. A first buy creates the holding with the
// purchase price as its cost basis and appends one record.
//
// Cash is deliberately not decremented by buys; only sells move cash.
func (s *portfolioService) Buy(userID, portfolioID uint, trade TradeInput) error {
	if trade.Quantity <= 0 || trade.Price <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity and price must be positive")
	}

	portfolio, err := s.getOwnedPortfolio(userID, portfolioID)
	if err != nil {
		return err
	}

	ticker, err := s.tickers.GetBySymbol(trade.Symbol)
	if err != nil {
		return err
	}

	var holding models.Holding
	findErr := s.db.Where("portfolio_id = ? AND ticker_id = ?", portfolio.ID, ticker.ID).First(&holding).Error
	if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
		return apperrors.Wrap(apperrors.ErrInternalServer, findErr)
	}

	now := time.Now()

	if findErr == nil {
		oldQuantity := holding.Quantity
		newQuantity := oldQuantity + trade.Quantity
		newAverageCost := (holding.AverageCost*float64(oldQuantity) + trade.Price*float64(trade.Quantity)) / float64(newQuantity)

		return s.db.Transaction(func(tx *gorm.DB) error {
			if txErr := tx.Model(&holding).Updates(map[string]interface{}{
				"quantity":     newQuantity,
				"average_cost": newAverageCost,
			}).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}

			// Two records per buy onto an existing holding: the purchased
			// delta and the resulting total quantity.
			delta := models.PortfolioRecord{
				PortfolioID: portfolio.ID,
				TickerID:    ticker.ID,
				Quantity:    trade.Quantity,
				Price:       trade.Price,
				IsBuy:       true,
				RecordedAt:  now,
			}
			if txErr := tx.Create(&delta).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}

			total := models.PortfolioRecord{
				PortfolioID: portfolio.ID,
				TickerID:    ticker.ID,
				Quantity:    newQuantity,
				Price:       trade.Price,
				IsBuy:       true,
				RecordedAt:  now,
			}
			if txErr := tx.Create(&total).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
			return nil
		})
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		newHolding := models.Holding{
			PortfolioID: portfolio.ID,
			TickerID:    ticker.ID,
			Quantity:    trade.Quantity,
			AverageCost: trade.Price,
		}
		if txErr := tx.Create(&newHolding).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		record := models.PortfolioRecord{
			PortfolioID: portfolio.ID,
			TickerID:    ticker.ID,
			Quantity:    trade.Quantity,
			Price:       trade.Price,
			IsBuy:       true,
			RecordedAt:  now,
		}
		if txErr := tx.Create(&record).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
}

// Sell reduces a holding. A sell that exceeds the held quantity is fully
// rejected. Auto portfolios credit the proceeds to cash; manual portfolios do
// not track cash. A holding that reaches quantity zero is removed.
func (s *portfolioService) Sell(userID, portfolioID uint, trade TradeInput) error {
	if trade.Quantity <= 0 || trade.Price <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity and price must be positive")
	}

	portfolio, err := s.getOwnedPortfolio(userID, portfolioID)
	if err != nil {
		return err
	}

	ticker, err := s.tickers.GetBySymbol(trade.Symbol)
	if err != nil {
		return err
	}

	var holding models.Holding
	if err := s.db.Where("portfolio_id = ? AND ticker_id = ?", portfolio.ID, ticker.ID).First(&holding).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrHoldingNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if trade.Quantity > holding.Quantity {
		return apperrors.ErrInsufficientQuantity
	}
	newQuantity := holding.Quantity - trade.Quantity

	return s.db.Transaction(func(tx *gorm.DB) error {
		record := models.PortfolioRecord{
			PortfolioID: portfolio.ID,
			TickerID:    ticker.ID,
			Quantity:    trade.Quantity,
			Price:       trade.Price,
			IsBuy:       false,
			RecordedAt:  time.Now(),
		}
		if txErr := tx.Create(&record).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		if portfolio.IsAuto {
			newCash := portfolio.CurrentCash + float64(trade.Quantity)*trade.Price
			if txErr := tx.Model(portfolio).Update("current_cash", newCash).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
		}

		if newQuantity == 0 {
			// Hard delete so the unique (portfolio, ticker) index stays
			// usable for a later re-buy of the same ticker.
			if txErr := tx.Unscoped().Delete(&holding).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
			return nil
		}

		if txErr := tx.Model(&holding).Update("quantity", newQuantity).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
}

// Valuation computes the portfolio's total value (cash plus holdings) and a
// per-holding breakdown keyed by holding ID.
//
// With useAverageCost, holdings are priced at their average cost; this is the
// basis used when reconciling against a freshly issued rebalancing
// recommendation. Otherwise holdings are priced at their latest recorded
// close, which is the basis for periodic and display valuation. A holding
// whose ticker has no recorded close is an error, never a silent zero.
func (s *portfolioService) Valuation(userID, portfolioID uint, useAverageCost bool) (*ValuationResult, error) {
	portfolio, err := s.getOwnedPortfolio(userID, portfolioID)
	if err != nil {
		return nil, err
	}

	var holdings []models.Holding
	if err := s.db.Preload("Ticker").Where("portfolio_id = ?", portfolio.ID).Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var closes map[uint]float64
	if !useAverageCost {
		tickerIDs := make([]uint, 0, len(holdings))
		for i := range holdings {
			tickerIDs = append(tickerIDs, holdings[i].TickerID)
		}
		closes, err = s.tickers.LatestCloses(tickerIDs)
		if err != nil {
			return nil, err
		}
	}

	result := &ValuationResult{
		Total:      portfolio.CurrentCash,
		Cash:       portfolio.CurrentCash,
		PerHolding: make(map[uint]float64, len(holdings)),
	}
	for i := range holdings {
		holding := &holdings[i]

		unitPrice := holding.AverageCost
		if !useAverageCost {
			closePrice, ok := closes[holding.TickerID]
			if !ok {
				return nil, apperrors.WithMessage(apperrors.ErrNoPriceHistory,
					"No price history recorded for ticker "+holding.Ticker.Symbol)
			}
			unitPrice = closePrice
		}

		value := unitPrice * float64(holding.Quantity)
		result.PerHolding[holding.ID] = value
		result.Total += value
	}

	return result, nil
}

// GetPortfolioByID returns a portfolio with holdings and sector links preloaded.
func (s *portfolioService) GetPortfolioByID(userID, portfolioID uint) (*models.Portfolio, error) {
	if _, err := s.getOwnedPortfolio(userID, portfolioID); err != nil {
		return nil, err
	}

	var portfolio models.Portfolio
	if err := s.db.Preload("Holdings.Ticker").Preload("Sectors.Sector").
		First(&portfolio, portfolioID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &portfolio, nil
}

// GetUserPortfolios returns a paginated list of the user's portfolios.
func (s *portfolioService) GetUserPortfolios(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Portfolio], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Portfolio{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var portfolios []models.Portfolio
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").
		Scopes(pagination.Paginate(page)).Find(&portfolios).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(portfolios, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetPerformance summarizes the portfolio's positions for display.
func (s *portfolioService) GetPerformance(userID, portfolioID uint) (*Performance, error) {
	portfolio, err := s.getOwnedPortfolio(userID, portfolioID)
	if err != nil {
		return nil, err
	}

	var holdings []models.Holding
	if err := s.db.Preload("Ticker").Where("portfolio_id = ?", portfolio.ID).Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	performance := &Performance{
		InitAsset:   portfolio.InitAsset,
		CurrentCash: portfolio.CurrentCash,
		Holdings:    make([]HoldingPerformance, 0, len(holdings)),
	}
	for i := range holdings {
		performance.Holdings = append(performance.Holdings, HoldingPerformance{
			Symbol:      holdings[i].Ticker.Symbol,
			CompanyName: holdings[i].Ticker.Name,
			Quantity:    holdings[i].Quantity,
			AverageCost: holdings[i].AverageCost,
			AssetClass:  holdings[i].Ticker.AssetClass,
		})
	}
	return performance, nil
}

// UpdateName renames a portfolio.
func (s *portfolioService) UpdateName(userID, portfolioID uint, name string) error {
	portfolio, err := s.getOwnedPortfolio(userID, portfolioID)
	if err != nil {
		return err
	}
	if name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}

	if err := s.db.Model(portfolio).Update("name", name).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Delete removes a portfolio. Records are kept: the audit trail outlives the
// portfolio itself.
func (s *portfolioService) Delete(userID, portfolioID uint) error {
	portfolio, err := s.getOwnedPortfolio(userID, portfolioID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Where("portfolio_id = ?", portfolio.ID).Delete(&models.Holding{}).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if txErr := tx.Delete(portfolio).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
}

// GetRecords returns the portfolio's append-only transaction log, newest first.
func (s *portfolioService) GetRecords(userID, portfolioID uint, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioRecord], error) {
	if _, err := s.getOwnedPortfolio(userID, portfolioID); err != nil {
		return nil, err
	}

	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.PortfolioRecord{}).Where("portfolio_id = ?", portfolioID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var records []models.PortfolioRecord
	if err := s.db.Preload("Ticker").Where("portfolio_id = ?", portfolioID).
		Order("recorded_at DESC, id DESC").
		Scopes(pagination.Paginate(page)).Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(records, page.Page, page.PageSize, totalItems)
	return &result, nil
}

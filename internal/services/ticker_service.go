package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "folio/internal/errors"
	"folio/internal/models"
	"folio/internal/pagination"
)

// tickerService handles ticker reference-data queries.
type tickerService struct {
	db *gorm.DB
}

// NewTickerService creates a new TickerServicer.
func NewTickerService(db *gorm.DB) TickerServicer {
	return &tickerService{db: db}
}

// TopBySector returns the top tickers in a sector for a country, ordered by
// market rank. The ranking itself is maintained by the external data pipeline.
func (s *tickerService) TopBySector(sectorID uint, country string, limit int) ([]models.Ticker, error) {
	var sector models.Sector
	if err := s.db.First(&sector, sectorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSectorNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var tickers []models.Ticker
	if err := s.db.Where("sector_id = ? AND country = ? AND is_safe_asset = ?", sectorID, country, false).
		Order("market_rank ASC").Limit(limit).Find(&tickers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tickers, nil
}

// SafeAssets returns every ticker flagged as a safe asset for the country.
func (s *tickerService) SafeAssets(country string) ([]models.Ticker, error) {
	var tickers []models.Ticker
	if err := s.db.Where("country = ? AND is_safe_asset = ?", country, true).
		Order("market_rank ASC").Find(&tickers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tickers, nil
}

// GetBySymbol returns the ticker with the given listing symbol.
func (s *tickerService) GetBySymbol(symbol string) (*models.Ticker, error) {
	var ticker models.Ticker
	if err := s.db.Where("symbol = ?", symbol).First(&ticker).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTickerNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &ticker, nil
}

// ListSectors returns all sectors.
func (s *tickerService) ListSectors() ([]models.Sector, error) {
	var sectors []models.Sector
	if err := s.db.Order("name ASC").Find(&sectors).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sectors, nil
}

// ListTickers returns a paginated, filtered list of tickers.
func (s *tickerService) ListTickers(filter TickerFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Ticker], error) {
	page.Defaults()

	query := s.db.Model(&models.Ticker{})
	if filter.SectorID != nil {
		query = query.Where("sector_id = ?", *filter.SectorID)
	}
	if filter.Country != nil {
		query = query.Where("country = ?", *filter.Country)
	}
	if filter.IsSafeAsset != nil {
		query = query.Where("is_safe_asset = ?", *filter.IsSafeAsset)
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var tickers []models.Ticker
	if err := query.Order("market_rank ASC").
		Scopes(pagination.Paginate(page)).Find(&tickers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(tickers, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// RecordPrices appends close prices submitted by the data pipeline and
// returns the count recorded. Entries referencing unknown tickers fail the
// whole batch.
func (s *tickerService) RecordPrices(entries []PriceEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			var count int64
			if txErr := tx.Model(&models.Ticker{}).Where("id = ?", entry.TickerID).Count(&count).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
			if count == 0 {
				return apperrors.ErrTickerNotFound
			}

			price := models.TickerPrice{
				TickerID:   entry.TickerID,
				Close:      entry.Close,
				RecordedAt: entry.RecordedAt,
			}
			if txErr := tx.Create(&price).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// LatestCloses fetches the most recent close for each ticker ID from
// ticker_prices. Returns a map of ticker_id -> close. Tickers with no price
// entries are not included in the map.
func (s *tickerService) LatestCloses(tickerIDs []uint) (map[uint]float64, error) {
	return latestCloses(s.db, tickerIDs)
}

// latestCloses is shared with the revaluation service, which runs the same
// lookup inside its own batch.
func latestCloses(db *gorm.DB, tickerIDs []uint) (map[uint]float64, error) {
	if len(tickerIDs) == 0 {
		return map[uint]float64{}, nil
	}

	type closeRow struct {
		TickerID uint
		Close    float64
	}
	var rows []closeRow

	subq := db.Table("ticker_prices").
		Select("ticker_id, MAX(recorded_at) AS max_recorded").
		Where("ticker_id IN ?", tickerIDs).
		Group("ticker_id")

	if err := db.Table("ticker_prices tp").
		Select("tp.ticker_id, tp.close").
		Joins("INNER JOIN (?) latest ON tp.ticker_id = latest.ticker_id AND tp.recorded_at = latest.max_recorded", subq).
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := make(map[uint]float64, len(rows))
	for _, r := range rows {
		result[r.TickerID] = r.Close
	}
	return result, nil
}

package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "folio/internal/errors"
	"folio/internal/logger"
	"folio/internal/models"
)

// revaluationService recomputes portfolio values at the latest recorded
// closes. It is triggered by the external scheduler through the pipeline API,
// typically right after a batch of close prices lands.
type revaluationService struct {
	db *gorm.DB
}

// NewRevaluationService creates a new RevaluationServicer.
func NewRevaluationService(db *gorm.DB) RevaluationServicer {
	return &revaluationService{db: db}
}

// RevaluePortfolios values every portfolio at the latest closes, refreshes
// each holding's current proportion, and upserts a valuation row per
// portfolio. Portfolios with a holding that has no recorded close are skipped
// and logged, not fatal to the batch. Returns the number of portfolios valued.
func (s *revaluationService) RevaluePortfolios(recordedAt time.Time) (int, error) {
	var portfolios []models.Portfolio
	if err := s.db.Find(&portfolios).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	count := 0
	for i := range portfolios {
		ok, err := s.revalueOne(&portfolios[i], recordedAt)
		if err != nil {
			return count, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

func (s *revaluationService) revalueOne(portfolio *models.Portfolio, recordedAt time.Time) (bool, error) {
	var holdings []models.Holding
	if err := s.db.Where("portfolio_id = ?", portfolio.ID).Find(&holdings).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	tickerIDs := make([]uint, 0, len(holdings))
	for i := range holdings {
		tickerIDs = append(tickerIDs, holdings[i].TickerID)
	}
	closes, err := latestCloses(s.db, tickerIDs)
	if err != nil {
		return false, err
	}

	holdingsValue := 0.0
	values := make([]float64, len(holdings))
	for i := range holdings {
		closePrice, ok := closes[holdings[i].TickerID]
		if !ok {
			logger.Get().Warnw("skipping portfolio revaluation: no price history",
				"portfolio_id", portfolio.ID,
				"ticker_id", holdings[i].TickerID,
			)
			return false, nil
		}
		values[i] = closePrice * float64(holdings[i].Quantity)
		holdingsValue += values[i]
	}

	totalValue := portfolio.CurrentCash + holdingsValue

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i := range holdings {
			proportion := 0.0
			if totalValue > 0 {
				proportion = values[i] / totalValue
			}
			if txErr := tx.Model(&holdings[i]).Update("current_proportion", proportion).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
		}

		// Upsert: re-running the pipeline for the same timestamp updates
		// the existing row instead of duplicating it.
		var existing models.PortfolioValuation
		result := tx.Where("portfolio_id = ? AND recorded_at = ?", portfolio.ID, recordedAt).First(&existing)
		if result.Error == nil {
			if txErr := tx.Model(&existing).Updates(map[string]interface{}{
				"total_value":    totalValue,
				"cash_value":     portfolio.CurrentCash,
				"holdings_value": holdingsValue,
			}).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
			return nil
		}

		valuation := models.PortfolioValuation{
			PortfolioID:   portfolio.ID,
			TotalValue:    totalValue,
			CashValue:     portfolio.CurrentCash,
			HoldingsValue: holdingsValue,
			RecordedAt:    recordedAt,
		}
		if txErr := tx.Create(&valuation).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

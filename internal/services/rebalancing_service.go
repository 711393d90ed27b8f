package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "folio/internal/errors"
	"folio/internal/models"
	"folio/internal/pagination"
)

// rebalancingService handles rebalancing notification queries.
type rebalancingService struct {
	db *gorm.DB
}

// NewRebalancingService creates a new RebalancingServicer.
func NewRebalancingService(db *gorm.DB) RebalancingServicer {
	return &rebalancingService{db: db}
}

// GetPortfolioRebalancings returns a portfolio's recommendation history,
// newest first, with suggestion lines preloaded.
func (s *rebalancingService) GetPortfolioRebalancings(userID, portfolioID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Rebalancing], error) {
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

	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Rebalancing{}).Where("portfolio_id = ?", portfolioID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rebalancings []models.Rebalancing
	if err := s.db.Preload("Lines.Ticker").Where("portfolio_id = ?", portfolioID).
		Order("created_at DESC").
		Scopes(pagination.Paginate(page)).Find(&rebalancings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(rebalancings, page.Page, page.PageSize, totalItems)
	return &result, nil
}

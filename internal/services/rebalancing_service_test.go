package services

import (
	"testing"

	"folio/internal/models"
	"folio/internal/pagination"
	"folio/internal/testutil"
)

func TestGetPortfolioRebalancings(t *testing.T) {
	t.Run("with_lines", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRebalancingService(db)

		user := testutil.CreateTestUser(t, db)
		sector := testutil.CreateTestSector(t, db)
		ticker := testutil.CreateTestTicker(t, db, sector.ID)
		portfolio := testutil.CreateTestAutoPortfolio(t, db, user.ID, 1000)

		rebalancing := models.Rebalancing{PortfolioID: portfolio.ID}
		testutil.AssertNoError(t, db.Create(&rebalancing).Error)
		line := models.RebalancingTicker{
			RebalancingID: rebalancing.ID,
			TickerID:      ticker.ID,
			IsBuy:         true,
			Quantity:      5,
			Price:         200,
		}
		testutil.AssertNoError(t, db.Create(&line).Error)

		result, err := svc.GetPortfolioRebalancings(user.ID, portfolio.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Fatalf("expected 1 rebalancing, got %d", result.TotalItems)
		}
		lines := result.Data[0].Lines
		if len(lines) != 1 {
			t.Fatalf("expected 1 line preloaded, got %d", len(lines))
		}
		if lines[0].Ticker.Symbol != ticker.Symbol {
			t.Errorf("expected line ticker %s preloaded, got %s", ticker.Symbol, lines[0].Ticker.Symbol)
		}
	})

	t.Run("other_users_portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRebalancingService(db)

		owner := testutil.CreateTestUser(t, db)
		stranger := testutil.CreateTestUser(t, db)
		portfolio := testutil.CreateTestAutoPortfolio(t, db, owner.ID, 1000)

		_, err := svc.GetPortfolioRebalancings(stranger.ID, portfolio.ID, pagination.PageRequest{})
		testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")
	})

	t.Run("unknown_portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRebalancingService(db)

		user := testutil.CreateTestUser(t, db)

		_, err := svc.GetPortfolioRebalancings(user.ID, 9999, pagination.PageRequest{})
		testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")
	})
}

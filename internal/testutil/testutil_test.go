package testutil_test

import (
	"testing"
	"time"

	"folio/internal/errors"
	"folio/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each.
	var count int64
	for _, table := range []string{
		"users", "sectors", "tickers", "ticker_prices", "portfolios",
		"portfolio_sectors", "holdings", "portfolio_records",
		"rebalancings", "rebalancing_tickers", "portfolio_valuations",
	} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == 0 {
		t.Fatal("user should have a non-zero ID")
	}

	sector := testutil.CreateTestSector(t, db)
	ticker := testutil.CreateTestTicker(t, db, sector.ID)
	if ticker.SectorID != sector.ID {
		t.Errorf("expected ticker in sector %d, got %d", sector.ID, ticker.SectorID)
	}

	safe := testutil.CreateTestSafeAsset(t, db, sector.ID)
	if !safe.IsSafeAsset {
		t.Error("expected safe asset flag")
	}

	portfolio := testutil.CreateTestAutoPortfolio(t, db, user.ID, 5000)
	if portfolio.CurrentCash != 5000 || !portfolio.IsAuto {
		t.Errorf("unexpected auto portfolio: %+v", portfolio)
	}

	holding := testutil.CreateTestHolding(t, db, portfolio.ID, ticker.ID, 10, 100)
	if holding.Quantity != 10 || holding.AverageCost != 100 {
		t.Errorf("unexpected holding: %+v", holding)
	}

	price := testutil.CreateTestPrice(t, db, ticker.ID, 71000, time.Now())
	if price.Close != 71000 {
		t.Errorf("expected close 71000, got %f", price.Close)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrPortfolioNotFound, "custom message")
	testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}

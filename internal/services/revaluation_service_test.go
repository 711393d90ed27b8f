package services

import (
	"math"
	"testing"
	"time"

	"folio/internal/models"
	"folio/internal/testutil"
)

func TestRevaluePortfolios(t *testing.T) {
	t.Run("values_and_proportions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRevaluationService(db)

		user := testutil.CreateTestUser(t, db)
		sector := testutil.CreateTestSector(t, db)
		t1 := testutil.CreateTestTicker(t, db, sector.ID)
		t2 := testutil.CreateTestTicker(t, db, sector.ID)
		portfolio := testutil.CreateTestAutoPortfolio(t, db, user.ID, 1000)
		h1 := testutil.CreateTestHolding(t, db, portfolio.ID, t1.ID, 10, 100) // 10 * 150 = 1500
		h2 := testutil.CreateTestHolding(t, db, portfolio.ID, t2.ID, 5, 100)  // 5 * 100 = 500

		runAt := time.Now().Truncate(time.Second)
		testutil.CreateTestPrice(t, db, t1.ID, 150, runAt)
		testutil.CreateTestPrice(t, db, t2.ID, 100, runAt)

		count, err := svc.RevaluePortfolios(runAt)
		testutil.AssertNoError(t, err)
		if count != 1 {
			t.Fatalf("expected 1 portfolio revalued, got %d", count)
		}

		var valuation models.PortfolioValuation
		testutil.AssertNoError(t, db.Where("portfolio_id = ?", portfolio.ID).First(&valuation).Error)
		if valuation.HoldingsValue != 2000 {
			t.Errorf("expected holdings value 2000, got %f", valuation.HoldingsValue)
		}
		if valuation.CashValue != 1000 {
			t.Errorf("expected cash value 1000, got %f", valuation.CashValue)
		}
		if valuation.TotalValue != 3000 {
			t.Errorf("expected total 3000, got %f", valuation.TotalValue)
		}

		var reloaded1, reloaded2 models.Holding
		db.First(&reloaded1, h1.ID)
		db.First(&reloaded2, h2.ID)
		if math.Abs(reloaded1.CurrentProportion-0.5) > 1e-9 {
			t.Errorf("expected proportion 0.5 for h1, got %f", reloaded1.CurrentProportion)
		}
		if math.Abs(reloaded2.CurrentProportion-500.0/3000.0) > 1e-9 {
			t.Errorf("expected proportion 1/6 for h2, got %f", reloaded2.CurrentProportion)
		}
	})

	t.Run("rerun_updates_instead_of_duplicating", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRevaluationService(db)

		user := testutil.CreateTestUser(t, db)
		sector := testutil.CreateTestSector(t, db)
		ticker := testutil.CreateTestTicker(t, db, sector.ID)
		portfolio := testutil.CreateTestAutoPortfolio(t, db, user.ID, 0)
		testutil.CreateTestHolding(t, db, portfolio.ID, ticker.ID, 10, 100)

		runAt := time.Now().Truncate(time.Second)
		testutil.CreateTestPrice(t, db, ticker.ID, 100, runAt)

		_, err := svc.RevaluePortfolios(runAt)
		testutil.AssertNoError(t, err)

		// A newer close lands, the pipeline re-runs for the same timestamp.
		testutil.CreateTestPrice(t, db, ticker.ID, 120, runAt.Add(time.Hour))
		_, err = svc.RevaluePortfolios(runAt)
		testutil.AssertNoError(t, err)

		var valuations []models.PortfolioValuation
		db.Where("portfolio_id = ?", portfolio.ID).Find(&valuations)
		if len(valuations) != 1 {
			t.Fatalf("expected a single valuation row, got %d", len(valuations))
		}
		if valuations[0].TotalValue != 1200 {
			t.Errorf("expected updated total 1200, got %f", valuations[0].TotalValue)
		}
	})

	t.Run("unpriced_holding_skips_portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRevaluationService(db)

		user := testutil.CreateTestUser(t, db)
		sector := testutil.CreateTestSector(t, db)
		priced := testutil.CreateTestTicker(t, db, sector.ID)
		unpriced := testutil.CreateTestTicker(t, db, sector.ID)

		good := testutil.CreateTestAutoPortfolio(t, db, user.ID, 100)
		testutil.CreateTestHolding(t, db, good.ID, priced.ID, 1, 100)
		bad := testutil.CreateTestAutoPortfolio(t, db, user.ID, 100)
		testutil.CreateTestHolding(t, db, bad.ID, unpriced.ID, 1, 100)

		runAt := time.Now()
		testutil.CreateTestPrice(t, db, priced.ID, 100, runAt)

		count, err := svc.RevaluePortfolios(runAt)
		testutil.AssertNoError(t, err)
		if count != 1 {
			t.Errorf("expected 1 portfolio revalued, got %d", count)
		}

		var badCount int64
		db.Model(&models.PortfolioValuation{}).Where("portfolio_id = ?", bad.ID).Count(&badCount)
		if badCount != 0 {
			t.Errorf("expected no valuation for the unpriced portfolio, got %d", badCount)
		}
	})
}

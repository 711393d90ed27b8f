package services

import (
	"testing"
	"time"

	"folio/internal/models"
	"folio/internal/pagination"
	"folio/internal/testutil"
)

func TestTopBySector(t *testing.T) {
	t.Run("ordered_and_limited", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTickerService(db)

		sector := testutil.CreateTestSector(t, db)
		other := testutil.CreateTestSector(t, db)
		first := testutil.CreateTestTicker(t, db, sector.ID)
		second := testutil.CreateTestTicker(t, db, sector.ID)
		third := testutil.CreateTestTicker(t, db, sector.ID)
		testutil.CreateTestTicker(t, db, other.ID)
		testutil.CreateTestSafeAsset(t, db, sector.ID)

		tickers, err := svc.TopBySector(sector.ID, "KOR", 2)
		testutil.AssertNoError(t, err)

		if len(tickers) != 2 {
			t.Fatalf("expected 2 tickers, got %d", len(tickers))
		}
		// Fixtures assign increasing market ranks, so creation order is
		// rank order.
		if tickers[0].ID != first.ID || tickers[1].ID != second.ID {
			t.Errorf("expected rank order %d, %d; got %d, %d",
				first.ID, second.ID, tickers[0].ID, tickers[1].ID)
		}
		for _, ticker := range tickers {
			if ticker.ID == third.ID {
				t.Error("third-ranked ticker should be cut by the limit")
			}
			if ticker.IsSafeAsset {
				t.Error("safe assets must not appear in sector picks")
			}
		}
	})

	t.Run("unknown_sector", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTickerService(db)

		_, err := svc.TopBySector(9999, "KOR", 10)
		testutil.AssertAppError(t, err, "SECTOR_NOT_FOUND")
	})

	t.Run("country_filter", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTickerService(db)

		sector := testutil.CreateTestSector(t, db)
		testutil.CreateTestTicker(t, db, sector.ID)

		tickers, err := svc.TopBySector(sector.ID, "USA", 10)
		testutil.AssertNoError(t, err)
		if len(tickers) != 0 {
			t.Errorf("expected no USA tickers, got %d", len(tickers))
		}
	})
}

func TestSafeAssets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTickerService(db)

	sector := testutil.CreateTestSector(t, db)
	testutil.CreateTestTicker(t, db, sector.ID)
	safe := testutil.CreateTestSafeAsset(t, db, sector.ID)

	tickers, err := svc.SafeAssets("KOR")
	testutil.AssertNoError(t, err)

	if len(tickers) != 1 || tickers[0].ID != safe.ID {
		t.Errorf("expected only the safe asset, got %d tickers", len(tickers))
	}
}

func TestGetBySymbol(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTickerService(db)

	sector := testutil.CreateTestSector(t, db)
	ticker := testutil.CreateTestTicker(t, db, sector.ID)

	found, err := svc.GetBySymbol(ticker.Symbol)
	testutil.AssertNoError(t, err)
	if found.ID != ticker.ID {
		t.Errorf("expected ticker %d, got %d", ticker.ID, found.ID)
	}

	_, err = svc.GetBySymbol("NOPE")
	testutil.AssertAppError(t, err, "TICKER_NOT_FOUND")
}

func TestListTickers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTickerService(db)

	sectorA := testutil.CreateTestSector(t, db)
	sectorB := testutil.CreateTestSector(t, db)
	testutil.CreateTestTicker(t, db, sectorA.ID)
	testutil.CreateTestTicker(t, db, sectorA.ID)
	testutil.CreateTestTicker(t, db, sectorB.ID)
	testutil.CreateTestSafeAsset(t, db, sectorB.ID)

	t.Run("unfiltered", func(t *testing.T) {
		result, err := svc.ListTickers(TickerFilter{}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 4 {
			t.Errorf("expected 4 tickers, got %d", result.TotalItems)
		}
	})

	t.Run("by_sector", func(t *testing.T) {
		result, err := svc.ListTickers(TickerFilter{SectorID: &sectorA.ID}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 tickers in sector A, got %d", result.TotalItems)
		}
	})

	t.Run("safe_assets_only", func(t *testing.T) {
		safe := true
		result, err := svc.ListTickers(TickerFilter{IsSafeAsset: &safe}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 {
			t.Errorf("expected 1 safe asset, got %d", result.TotalItems)
		}
	})
}

func TestRecordPrices(t *testing.T) {
	t.Run("valid_batch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTickerService(db)

		sector := testutil.CreateTestSector(t, db)
		t1 := testutil.CreateTestTicker(t, db, sector.ID)
		t2 := testutil.CreateTestTicker(t, db, sector.ID)

		now := time.Now()
		recorded, err := svc.RecordPrices([]PriceEntry{
			{TickerID: t1.ID, Close: 100, RecordedAt: now},
			{TickerID: t2.ID, Close: 200, RecordedAt: now},
		})
		testutil.AssertNoError(t, err)
		if recorded != 2 {
			t.Errorf("expected 2 recorded, got %d", recorded)
		}

		var count int64
		db.Model(&models.TickerPrice{}).Count(&count)
		if count != 2 {
			t.Errorf("expected 2 price rows, got %d", count)
		}
	})

	t.Run("unknown_ticker_fails_batch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTickerService(db)

		sector := testutil.CreateTestSector(t, db)
		t1 := testutil.CreateTestTicker(t, db, sector.ID)

		_, err := svc.RecordPrices([]PriceEntry{
			{TickerID: t1.ID, Close: 100, RecordedAt: time.Now()},
			{TickerID: 9999, Close: 1, RecordedAt: time.Now()},
		})
		testutil.AssertAppError(t, err, "TICKER_NOT_FOUND")

		var count int64
		db.Model(&models.TickerPrice{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no price rows after failed batch, got %d", count)
		}
	})
}

func TestLatestCloses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTickerService(db)

	sector := testutil.CreateTestSector(t, db)
	t1 := testutil.CreateTestTicker(t, db, sector.ID)
	t2 := testutil.CreateTestTicker(t, db, sector.ID)
	unpriced := testutil.CreateTestTicker(t, db, sector.ID)

	now := time.Now()
	testutil.CreateTestPrice(t, db, t1.ID, 100, now.Add(-48*time.Hour))
	testutil.CreateTestPrice(t, db, t1.ID, 110, now.Add(-24*time.Hour))
	testutil.CreateTestPrice(t, db, t2.ID, 50, now.Add(-24*time.Hour))

	closes, err := svc.LatestCloses([]uint{t1.ID, t2.ID, unpriced.ID})
	testutil.AssertNoError(t, err)

	if closes[t1.ID] != 110 {
		t.Errorf("expected latest close 110 for t1, got %f", closes[t1.ID])
	}
	if closes[t2.ID] != 50 {
		t.Errorf("expected close 50 for t2, got %f", closes[t2.ID])
	}
	if _, ok := closes[unpriced.ID]; ok {
		t.Error("tickers with no prices must be absent from the map")
	}
}

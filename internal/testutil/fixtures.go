package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"folio/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Name:     fmt.Sprintf("Test User %d", nextID()),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestSector creates a sector with a unique name.
func CreateTestSector(t *testing.T, db *gorm.DB) *models.Sector {
	t.Helper()

	sector := &models.Sector{
		Name: fmt.Sprintf("Test Sector %d", nextID()),
	}
	if err := db.Create(sector).Error; err != nil {
		t.Fatalf("failed to create test sector: %v", err)
	}
	return sector
}

// CreateTestTicker creates an equity ticker in the given sector with a unique
// symbol and market rank.
func CreateTestTicker(t *testing.T, db *gorm.DB, sectorID uint) *models.Ticker {
	t.Helper()

	n := nextID()
	ticker := &models.Ticker{
		Symbol:     fmt.Sprintf("TST%d", n),
		Name:       fmt.Sprintf("Test Company %d", n),
		Exchange:   "KOSPI",
		Country:    "KOR",
		SectorID:   sectorID,
		AssetClass: models.AssetClassEquity,
		MarketRank: int(n),
	}
	if err := db.Create(ticker).Error; err != nil {
		t.Fatalf("failed to create test ticker: %v", err)
	}
	return ticker
}

// CreateTestSafeAsset creates a bond ticker flagged as a safe asset.
func CreateTestSafeAsset(t *testing.T, db *gorm.DB, sectorID uint) *models.Ticker {
	t.Helper()

	n := nextID()
	ticker := &models.Ticker{
		Symbol:      fmt.Sprintf("BND%d", n),
		Name:        fmt.Sprintf("Test Bond %d", n),
		Exchange:    "KOSPI",
		Country:     "KOR",
		SectorID:    sectorID,
		AssetClass:  models.AssetClassBond,
		IsSafeAsset: true,
		MarketRank:  int(n),
	}
	if err := db.Create(ticker).Error; err != nil {
		t.Fatalf("failed to create test safe asset: %v", err)
	}
	return ticker
}

// CreateTestAutoPortfolio creates an auto portfolio with the given cash.
func CreateTestAutoPortfolio(t *testing.T, db *gorm.DB, userID uint, cash float64) *models.Portfolio {
	t.Helper()

	portfolio := &models.Portfolio{
		UserID:      userID,
		Name:        fmt.Sprintf("Test Auto Portfolio %d", nextID()),
		Country:     "KOR",
		IsAuto:      true,
		InitAsset:   cash,
		InitCash:    cash,
		CurrentCash: cash,
		RiskLevel:   1,
	}
	if err := db.Create(portfolio).Error; err != nil {
		t.Fatalf("failed to create test auto portfolio: %v", err)
	}
	return portfolio
}

// CreateTestManualPortfolio creates a manual portfolio with no cash.
func CreateTestManualPortfolio(t *testing.T, db *gorm.DB, userID uint) *models.Portfolio {
	t.Helper()

	portfolio := &models.Portfolio{
		UserID:  userID,
		Name:    fmt.Sprintf("Test Manual Portfolio %d", nextID()),
		Country: "KOR",
		IsAuto:  false,
	}
	if err := db.Create(portfolio).Error; err != nil {
		t.Fatalf("failed to create test manual portfolio: %v", err)
	}
	return portfolio
}

// CreateTestHolding creates a holding with the given quantity and average cost.
func CreateTestHolding(t *testing.T, db *gorm.DB, portfolioID, tickerID uint, quantity int, averageCost float64) *models.Holding {
	t.Helper()

	holding := &models.Holding{
		PortfolioID: portfolioID,
		TickerID:    tickerID,
		Quantity:    quantity,
		AverageCost: averageCost,
	}
	if err := db.Create(holding).Error; err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return holding
}

// CreateTestPrice records a close price for the ticker at the given time.
func CreateTestPrice(t *testing.T, db *gorm.DB, tickerID uint, close float64, recordedAt time.Time) *models.TickerPrice {
	t.Helper()

	price := &models.TickerPrice{
		TickerID:   tickerID,
		Close:      close,
		RecordedAt: recordedAt,
	}
	if err := db.Create(price).Error; err != nil {
		t.Fatalf("failed to create test price: %v", err)
	}
	return price
}

package testutil

import (
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"markowitz/internal/models"

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
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestTicker creates a ticker with a unique symbol.
func CreateTestTicker(t *testing.T, db *gorm.DB) *models.Ticker {
	t.Helper()
	return CreateTestTickerWithSymbol(t, db, fmt.Sprintf("TST%d", nextID()))
}

// CreateTestTickerWithSymbol creates a ticker with the given symbol.
func CreateTestTickerWithSymbol(t *testing.T, db *gorm.DB, symbol string) *models.Ticker {
	t.Helper()

	ticker := &models.Ticker{
		Symbol:   symbol,
		Name:     fmt.Sprintf("Test Company %d", nextID()),
		Sector:   "Technology",
		Exchange: "NASDAQ",
		Currency: "USD",
	}
	if err := db.Create(ticker).Error; err != nil {
		t.Fatalf("failed to create test ticker: %v", err)
	}
	return ticker
}

// CreatePriceHistory inserts a deterministic daily close history for the
// ticker: a multiplicative walk with the given drift and a phase-shifted
// oscillation, starting at 100 on startDate. Distinct phases keep series for
// different tickers from being perfectly correlated.
func CreatePriceHistory(t *testing.T, db *gorm.DB, tickerID string, startDate time.Time, days int, drift, phase float64) []models.EquityPrice {
	t.Helper()

	prices := make([]models.EquityPrice, days)
	price := 100.0
	for i := 0; i < days; i++ {
		prices[i] = models.EquityPrice{
			TickerID: tickerID,
			Date:     startDate.AddDate(0, 0, i),
			Open:     price * 0.999,
			High:     price * 1.004,
			Low:      price * 0.996,
			Close:    price,
			Volume:   1_000_000 + int64(i),
		}
		price *= 1 + drift + 0.008*math.Sin(float64(i)*0.9+phase)
	}
	if err := db.Create(&prices).Error; err != nil {
		t.Fatalf("failed to create price history: %v", err)
	}
	return prices
}

package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"wallet/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns UTC midnight of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Money parses a decimal literal, failing the test on malformed input.
func Money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid money literal %q: %v", s, err)
	}
	return d
}

// CreateTestCategory creates a category with the given name under parentID.
// An empty name gets a unique generated one.
func CreateTestCategory(t *testing.T, db *gorm.DB, name string, parentID *string) *models.Category {
	t.Helper()

	if name == "" {
		name = fmt.Sprintf("Test Category %d", nextID())
	}
	category := &models.Category{Name: name, ParentID: parentID}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestBudget creates an active budget for categoryID over [start, end].
func CreateTestBudget(t *testing.T, db *gorm.DB, categoryID string, limit decimal.Decimal, start, end time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		Name:        fmt.Sprintf("Test Budget %d", nextID()),
		Limit:       limit,
		SpentAmount: decimal.Zero,
		StartDate:   models.DateOf(start),
		EndDate:     models.DateOf(end),
		CategoryID:  categoryID,
		IsActive:    true,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestTransaction inserts a transaction row directly, bypassing the
// journal. Budgets are not recomputed.
func CreateTestTransaction(t *testing.T, db *gorm.DB, categoryID *string, txType models.TransactionType, amount decimal.Decimal, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		Amount:      amount,
		Type:        txType,
		Date:        models.DateOf(date),
		CategoryID:  categoryID,
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

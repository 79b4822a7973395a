package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"wallet/internal/clock"
	"wallet/internal/testutil"
)

// testToday is the fixed "now" used by service tests.
var testToday = time.Date(2025, 1, 20, 15, 30, 0, 0, time.UTC)

type testEnv struct {
	db           *gorm.DB
	clock        *clock.MockClock
	aggregator   Aggregator
	categories   CategoryServicer
	budgets      BudgetServicer
	transactions TransactionServicer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	clk := &clock.MockClock{FixedNow: testToday}
	aggregator := NewAggregationService(nil)
	categories := NewCategoryService(db, aggregator)
	return &testEnv{
		db:           db,
		clock:        clk,
		aggregator:   aggregator,
		categories:   categories,
		budgets:      NewBudgetService(db, categories, aggregator, clk, nil),
		transactions: NewTransactionService(db, categories, aggregator, clk, nil),
	}
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func datePtr(year int, month time.Month, day int) *time.Time {
	d := testutil.Date(year, month, day)
	return &d
}

func (e *testEnv) mustCategory(t *testing.T, name string, parentID *string) string {
	t.Helper()
	c, err := e.categories.CreateCategory(CategoryInput{Name: name, ParentID: parentID})
	testutil.AssertNoError(t, err)
	return c.ID
}

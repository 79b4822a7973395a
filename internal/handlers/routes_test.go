package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"wallet/internal/clock"
	"wallet/internal/models"
	"wallet/internal/services"
	"wallet/internal/testutil"
)

// setupAPI wires real services over an in-memory database.
func setupAPI(t *testing.T) (*gin.Engine, func() int64) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	today := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)
	clk := &clock.MockClock{FixedNow: today}
	aggregator := services.NewAggregationService(nil)
	categories := services.NewCategoryService(db, aggregator)
	audit := services.NewAuditService(db)

	api := &Handlers{
		Categories:   NewCategoryHandler(categories, audit),
		Budgets:      NewBudgetHandler(services.NewBudgetService(db, categories, aggregator, clk, nil), audit),
		Transactions: NewTransactionHandler(services.NewTransactionService(db, categories, aggregator, clk, nil), audit),
	}
	api.Budgets.now = clk.Now

	r := gin.New()
	api.RegisterRoutes(r.Group("/api/v1"))

	auditCount := func() int64 {
		var n int64
		if err := db.Model(&models.AuditLog{}).Count(&n).Error; err != nil {
			t.Fatalf("count audit logs: %v", err)
		}
		return n
	}
	return r, auditCount
}

func createdID(t *testing.T, body map[string]interface{}, key string) string {
	t.Helper()
	obj, ok := body[key].(map[string]interface{})
	if !ok {
		t.Fatalf("expected %q object, got %v", key, body)
	}
	return obj["id"].(string)
}

func spentOf(t *testing.T, r *gin.Engine, budgetID string) interface{} {
	t.Helper()
	rec := doRequest(r, "GET", "/api/v1/budgets/"+budgetID, "")
	assertStatus(t, rec, http.StatusOK)
	return parseJSON(t, rec)["budget"].(map[string]interface{})["spent_amount"]
}

func TestAPI_GroceriesBudgetFollowsJournal(t *testing.T) {
	r, auditCount := setupAPI(t)

	rec := doRequest(r, "POST", "/api/v1/categories", `{"name":"Groceries"}`)
	assertStatus(t, rec, http.StatusCreated)
	groceries := createdID(t, parseJSON(t, rec), "category")

	rec = doRequest(r, "POST", "/api/v1/categories", `{"name":"Dining"}`)
	assertStatus(t, rec, http.StatusCreated)
	dining := createdID(t, parseJSON(t, rec), "category")

	rec = doRequest(r, "POST", "/api/v1/budgets", `{
		"name": "January groceries",
		"budget_limit": "100",
		"start_date": "2025-01-01",
		"end_date": "2025-01-31",
		"category_id": "`+groceries+`",
		"notification_threshold": 50
	}`)
	assertStatus(t, rec, http.StatusCreated)
	budgetID := createdID(t, parseJSON(t, rec), "budget")

	rec = doRequest(r, "POST", "/api/v1/transactions",
		`{"amount":"30","type":"EXPENSE","transaction_date":"2025-01-10","category_id":"`+groceries+`"}`)
	assertStatus(t, rec, http.StatusCreated)
	first := createdID(t, parseJSON(t, rec), "transaction")

	rec = doRequest(r, "POST", "/api/v1/transactions",
		`{"amount":"20","type":"EXPENSE","transaction_date":"2025-01-15","category_id":"`+groceries+`"}`)
	assertStatus(t, rec, http.StatusCreated)

	rec = doRequest(r, "POST", "/api/v1/transactions",
		`{"amount":"999","type":"INCOME","transaction_date":"2025-01-12","category_id":"`+groceries+`"}`)
	assertStatus(t, rec, http.StatusCreated)

	if got := spentOf(t, r, budgetID); got != "50" {
		t.Fatalf("expected spent \"50\", got %v", got)
	}

	rec = doRequest(r, "GET", "/api/v1/budgets/"+budgetID+"/progress", "")
	assertStatus(t, rec, http.StatusOK)
	progress := parseJSON(t, rec)["progress"].(map[string]interface{})
	if progress["percentage_spent"] != 50.0 || progress["is_within_threshold"] != true {
		t.Errorf("unexpected progress: %v", progress)
	}

	rec = doRequest(r, "PUT", "/api/v1/transactions/"+first,
		`{"amount":"30","type":"EXPENSE","transaction_date":"2025-01-10","category_id":"`+dining+`"}`)
	assertStatus(t, rec, http.StatusOK)
	if got := spentOf(t, r, budgetID); got != "20" {
		t.Errorf("expected spent \"20\" after moving a transaction away, got %v", got)
	}

	rec = doRequest(r, "DELETE", "/api/v1/categories/"+groceries, "")
	assertStatus(t, rec, http.StatusConflict)
	assertErrorCode(t, parseJSON(t, rec), "CATEGORY_IN_USE")

	rec = doRequest(r, "GET", "/api/v1/transactions/category/"+groceries+"/total", "")
	assertStatus(t, rec, http.StatusOK)
	if got := parseJSON(t, rec)["total"]; got != "20" {
		t.Errorf("expected expense total \"20\", got %v", got)
	}

	rec = doRequest(r, "GET", "/api/v1/budgets/active", "")
	assertStatus(t, rec, http.StatusOK)
	if n := len(parseJSON(t, rec)["budgets"].([]interface{})); n != 1 {
		t.Errorf("expected 1 active budget, got %d", n)
	}

	// categories, budget, transactions and the update
	if n := auditCount(); n != 7 {
		t.Errorf("expected 7 audit entries, got %d", n)
	}
}

func TestAPI_BudgetOverlapAndCategoryTree(t *testing.T) {
	r, _ := setupAPI(t)

	rec := doRequest(r, "POST", "/api/v1/categories", `{"name":"Food"}`)
	assertStatus(t, rec, http.StatusCreated)
	food := createdID(t, parseJSON(t, rec), "category")

	rec = doRequest(r, "POST", "/api/v1/categories", `{"name":"Snacks","parent_id":"`+food+`"}`)
	assertStatus(t, rec, http.StatusCreated)
	snacks := createdID(t, parseJSON(t, rec), "category")

	rec = doRequest(r, "POST", "/api/v1/categories", `{"name":"SNACKS","parent_id":"`+food+`"}`)
	assertStatus(t, rec, http.StatusConflict)
	assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_CATEGORY_NAME")

	rec = doRequest(r, "PUT", "/api/v1/categories/"+food+"/parent", `{"parent_id":"`+snacks+`"}`)
	assertStatus(t, rec, http.StatusConflict)
	assertErrorCode(t, parseJSON(t, rec), "CATEGORY_CYCLE")

	rec = doRequest(r, "GET", "/api/v1/categories/"+snacks+"/path", "")
	assertStatus(t, rec, http.StatusOK)
	path := parseJSON(t, rec)["categories"].([]interface{})
	if len(path) != 2 || path[0].(map[string]interface{})["id"] != food {
		t.Errorf("expected path Food > Snacks, got %v", path)
	}

	budget := func(start, end string) string {
		return `{"name":"B","budget_limit":"10","start_date":"` + start + `","end_date":"` + end + `","category_id":"` + snacks + `"}`
	}
	assertStatus(t, doRequest(r, "POST", "/api/v1/budgets", budget("2025-01-01", "2025-01-31")), http.StatusCreated)

	rec = doRequest(r, "POST", "/api/v1/budgets", budget("2025-01-31", "2025-02-28"))
	assertStatus(t, rec, http.StatusConflict)
	assertErrorCode(t, parseJSON(t, rec), "BUDGET_OVERLAP")

	assertStatus(t, doRequest(r, "POST", "/api/v1/budgets", budget("2025-02-01", "2025-02-28")), http.StatusCreated)

	rec = doRequest(r, "DELETE", "/api/v1/categories/"+snacks, "")
	assertStatus(t, rec, http.StatusConflict)
	assertErrorCode(t, parseJSON(t, rec), "CATEGORY_HAS_BUDGETS")

	rec = doRequest(r, "DELETE", "/api/v1/categories/"+food, "")
	assertStatus(t, rec, http.StatusConflict)
	assertErrorCode(t, parseJSON(t, rec), "CATEGORY_HAS_CHILDREN")
}

func TestAPI_TransactionDatesWithOffsets(t *testing.T) {
	r, _ := setupAPI(t)

	rec := doRequest(r, "POST", "/api/v1/categories", `{"name":"Travel"}`)
	assertStatus(t, rec, http.StatusCreated)
	travel := createdID(t, parseJSON(t, rec), "category")

	rec = doRequest(r, "POST", "/api/v1/budgets", `{
		"name": "January travel",
		"budget_limit": "500",
		"start_date": "2025-01-01",
		"end_date": "2025-01-20",
		"category_id": "`+travel+`"
	}`)
	assertStatus(t, rec, http.StatusCreated)
	budgetID := createdID(t, parseJSON(t, rec), "budget")

	// The clock reads 2025-01-20T12:00:00Z.
	rec = doRequest(r, "POST", "/api/v1/transactions",
		`{"amount":"15","type":"EXPENSE","transaction_date":"2025-01-20T21:00:00+09:00","category_id":"`+travel+`"}`)
	assertStatus(t, rec, http.StatusCreated)
	tx := parseJSON(t, rec)["transaction"].(map[string]interface{})
	if tx["transaction_date"] != "2025-01-20T00:00:00Z" {
		t.Errorf("expected the UTC day 2025-01-20, got %v", tx["transaction_date"])
	}

	rec = doRequest(r, "POST", "/api/v1/transactions",
		`{"amount":"25","type":"EXPENSE","transaction_date":"2025-01-20T20:00:00-05:00","category_id":"`+travel+`"}`)
	assertStatus(t, rec, http.StatusBadRequest)
	assertErrorCode(t, parseJSON(t, rec), "FUTURE_TRANSACTION")

	if got := spentOf(t, r, budgetID); got != "15" {
		t.Errorf("expected spent \"15\", got %v", got)
	}
}

func TestAPI_MoneyOutsideColumnRange(t *testing.T) {
	r, _ := setupAPI(t)

	rec := doRequest(r, "POST", "/api/v1/categories", `{"name":"Rent"}`)
	assertStatus(t, rec, http.StatusCreated)
	rent := createdID(t, parseJSON(t, rec), "category")

	tests := []struct {
		name string
		path string
		body string
	}{
		{"budget_limit_below_a_cent", "/api/v1/budgets",
			`{"name":"Rent","budget_limit":"0.001","start_date":"2025-01-01","end_date":"2025-01-31","category_id":"` + rent + `"}`},
		{"budget_limit_overflow", "/api/v1/budgets",
			`{"name":"Rent","budget_limit":"10000000000","start_date":"2025-01-01","end_date":"2025-01-31","category_id":"` + rent + `"}`},
		{"amount_with_three_decimals", "/api/v1/transactions",
			`{"amount":"10.005","type":"EXPENSE","transaction_date":"2025-01-10","category_id":"` + rent + `"}`},
		{"amount_overflow", "/api/v1/transactions",
			`{"amount":"12345678901.5","type":"EXPENSE","transaction_date":"2025-01-10"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(r, "POST", tc.path, tc.body)
			assertStatus(t, rec, http.StatusBadRequest)
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}
}

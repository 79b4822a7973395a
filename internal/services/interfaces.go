package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wallet/internal/models"
	"wallet/internal/pagination"
)

// CategoryInput carries the writable fields of a category. ParentID nil means
// a root category.
type CategoryInput struct {
	Name        string
	Description string
	Color       string
	Icon        string
	ParentID    *string
}

// CategoryServicer owns the category forest: acyclicity, sibling-name
// uniqueness and deletion guards.
type CategoryServicer interface {
	CreateCategory(input CategoryInput) (*models.Category, error)
	GetCategoryByID(id string) (*models.Category, error)
	ListCategories(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	RootCategories() ([]models.Category, error)
	Subcategories(parentID string) ([]models.Category, error)
	SearchCategories(query string) ([]models.Category, error)
	UpdateCategory(id string, input CategoryInput) (*models.Category, error)
	Reparent(id string, newParentID *string) (*models.Category, error)
	ValidateReparent(id string, candidateParentID *string) error
	IsValidParent(id, parentID string) (bool, error)
	DeleteCategory(id string) error
	Descendants(id string) ([]models.Category, error)
	PathToRoot(id string) ([]models.Category, error)
	IsDescendant(ancestorID, nodeID string) (bool, error)
}

// Impact names a (category, day) point whose budgets must be recomputed.
type Impact struct {
	CategoryID string
	Date       time.Time
}

// Aggregator is the single writer of Budget.SpentAmount.
type Aggregator interface {
	// Recompute sums the expenses of the budget's category inside its period
	// and persists the result through tx.
	Recompute(tx *gorm.DB, budget *models.Budget, trigger string) error
	// RecomputeAffected recomputes every budget touched by any of impacts and
	// returns them, each budget at most once.
	RecomputeAffected(tx *gorm.DB, trigger string, impacts ...Impact) ([]models.Budget, error)
	// LockCategories serializes recompute-and-persist per category. The
	// returned func releases the locks.
	LockCategories(categoryIDs ...string) func()
}

// BudgetInput carries the writable fields of a budget. SpentAmount is
// deliberately absent.
type BudgetInput struct {
	Name                  string
	Limit                 decimal.Decimal
	StartDate             time.Time
	EndDate               time.Time
	CategoryID            string
	NotificationThreshold *int
	IsActive              *bool
	Notes                 string
}

// BudgetFilter holds optional filter parameters for listing budgets.
type BudgetFilter struct {
	IsActive   *bool
	CategoryID *string
}

// BudgetProgress contains spending vs budget data for a budget.
type BudgetProgress struct {
	BudgetID          string          `json:"budget_id"`
	Limit             decimal.Decimal `json:"budget_limit"`
	Spent             decimal.Decimal `json:"spent_amount"`
	Remaining         decimal.Decimal `json:"remaining_amount"`
	Percentage        float64         `json:"percentage_spent"`
	IsExceeded        bool            `json:"is_exceeded"`
	IsWithinThreshold bool            `json:"is_within_threshold"`
}

// BudgetServicer owns budget periods and their non-overlap invariant.
type BudgetServicer interface {
	CreateBudget(input BudgetInput) (*models.Budget, error)
	GetBudgetByID(id string) (*models.Budget, error)
	ListBudgets(page pagination.PageRequest, filter BudgetFilter) (*pagination.PageResponse[models.Budget], error)
	BudgetsByCategory(categoryID string) ([]models.Budget, error)
	UpdateBudget(id string, input BudgetInput) (*models.Budget, error)
	DeleteBudget(id string) error
	RemainingBudget(id string) (decimal.Decimal, error)
	RefreshSpending(id string) (*models.Budget, error)
	GetBudgetProgress(id string) (*BudgetProgress, error)
	PercentageSpent(id string) (float64, error)
	IsWithinThreshold(id string) (bool, error)
	FindExceeding() ([]models.Budget, error)
	FindActive(now time.Time) ([]models.Budget, error)
}

// TransactionInput carries the writable fields of a transaction. A nil Date
// means today.
type TransactionInput struct {
	Amount          decimal.Decimal
	Type            models.TransactionType
	Date            *time.Time
	CategoryID      *string
	PaymentMethod   *models.PaymentMethod
	Recurring       bool
	ReferenceNumber string
	Description     string
	Notes           string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	Sort       pagination.SortRequest
}

// TransactionServicer owns the transaction journal and triggers budget
// re-aggregation on every mutation.
type TransactionServicer interface {
	CreateTransaction(input TransactionInput) (*models.Transaction, error)
	GetTransactionByID(id string) (*models.Transaction, error)
	ListTransactions(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	UpdateTransaction(id string, input TransactionInput) (*models.Transaction, error)
	DeleteTransaction(id string) error
	TransactionsByCategory(categoryID string) ([]models.Transaction, error)
	TransactionsByDateRange(from, to time.Time) ([]models.Transaction, error)
	TransactionsByCategoryAndDateRange(categoryID string, from, to time.Time) ([]models.Transaction, error)
	TotalByCategory(categoryID string, from, to time.Time, txType models.TransactionType) (decimal.Decimal, error)
	CountByCategory(categoryID string) (int64, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(action, resourceType, resourceID, ipAddress string, changes map[string]any)
}

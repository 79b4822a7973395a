package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wallet/internal/clock"
	apperrors "wallet/internal/errors"
	"wallet/internal/models"
	"wallet/internal/pagination"
)

const (
	maxBudgetNameLength  = 100
	maxBudgetNotesLength = 500
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db         *gorm.DB
	categories CategoryServicer
	aggregator Aggregator
	clock      clock.Clock
	metrics    MetricsRecorder
}

// NewBudgetService creates a new BudgetServicer. A nil clock uses the system
// time and a nil metrics recorder disables metrics.
func NewBudgetService(db *gorm.DB, categories CategoryServicer, aggregator Aggregator, clk clock.Clock, metrics MetricsRecorder) BudgetServicer {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &budgetService{
		db:         db,
		categories: categories,
		aggregator: aggregator,
		clock:      clk,
		metrics:    metrics,
	}
}

func normalizeBudgetInput(input BudgetInput) (BudgetInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Notes = strings.TrimSpace(input.Notes)
	input.CategoryID = strings.TrimSpace(input.CategoryID)

	if input.Name == "" {
		return input, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if len(input.Name) > maxBudgetNameLength {
		return input, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name must be at most 100 characters")
	}
	if !input.Limit.IsPositive() {
		return input, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget limit must be greater than zero")
	}
	if !models.FitsMoney(input.Limit) {
		return input, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget limit must have at most 2 decimal places and be below 10000000000")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return input, apperrors.WithMessage(apperrors.ErrInvalidInput, "start date and end date are required")
	}
	input.StartDate = models.DateOf(input.StartDate)
	input.EndDate = models.DateOf(input.EndDate)
	if input.StartDate.After(input.EndDate) {
		return input, apperrors.ErrInvalidPeriod
	}
	if t := input.NotificationThreshold; t != nil && (*t < 0 || *t > 100) {
		return input, apperrors.WithMessage(apperrors.ErrInvalidInput, "notification threshold must be between 0 and 100")
	}
	if len(input.Notes) > maxBudgetNotesLength {
		return input, apperrors.WithMessage(apperrors.ErrInvalidInput, "notes must be at most 500 characters")
	}
	if input.CategoryID == "" {
		return input, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	if input.IsActive == nil {
		active := true
		input.IsActive = &active
	}
	return input, nil
}

// checkOverlap fails when another budget of categoryID shares a day with
// [start, end]. excludeID is the budget being replaced, if any.
func checkOverlap(tx *gorm.DB, categoryID string, start, end time.Time, excludeID string) error {
	overlapping, err := overlappingBudgets(tx, categoryID, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return apperrors.ErrBudgetOverlap
	}
	return nil
}

// CreateBudget validates and stores a new budget, then computes its spent
// amount from the transactions already recorded inside the period.
func (s *budgetService) CreateBudget(input BudgetInput) (budget *models.Budget, err error) {
	defer func() { s.metrics.RecordMutation("budget", "create", err) }()

	input, err = normalizeBudgetInput(input)
	if err != nil {
		return nil, err
	}

	unlock := s.aggregator.LockCategories(input.CategoryID)
	defer unlock()

	if _, err := s.categories.GetCategoryByID(input.CategoryID); err != nil {
		return nil, err
	}

	budget = &models.Budget{
		Name:                  input.Name,
		Limit:                 input.Limit,
		SpentAmount:           decimal.Zero,
		StartDate:             input.StartDate,
		EndDate:               input.EndDate,
		CategoryID:            input.CategoryID,
		NotificationThreshold: input.NotificationThreshold,
		IsActive:              *input.IsActive,
		Notes:                 input.Notes,
	}

	today := models.DateOf(s.clock.Now())
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkOverlap(tx, budget.CategoryID, budget.StartDate, budget.EndDate, ""); err != nil {
			return err
		}
		if err := tx.Create(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// A period that has not started yet cannot contain any transaction.
		if budget.StartDate.After(today) {
			return nil
		}
		return s.aggregator.Recompute(tx, budget, TriggerBudgetCreate)
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// GetBudgetByID returns a budget by ID.
func (s *budgetService) GetBudgetByID(id string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ?", id).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// ListBudgets returns a paginated list of budgets with optional filters.
func (s *budgetService) ListBudgets(page pagination.PageRequest, filter BudgetFilter) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{})
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").
		Order("start_date DESC, id ASC").
		Scopes(pagination.Paginate(page)).
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// BudgetsByCategory returns every budget of a category, oldest period first.
func (s *budgetService) BudgetsByCategory(categoryID string) ([]models.Budget, error) {
	if _, err := s.categories.GetCategoryByID(categoryID); err != nil {
		return nil, err
	}

	var budgets []models.Budget
	if err := s.db.Where("category_id = ?", categoryID).Order("start_date ASC, id ASC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// lockBudget takes the category locks for a budget and, optionally, the
// category it is about to move to. The budget is re-read under the locks and
// the attempt repeats if its category changed in between.
func (s *budgetService) lockBudget(id, nextCategoryID string) (*models.Budget, func(), error) {
	for {
		current, err := findBudget(s.db, id)
		if err != nil {
			return nil, nil, err
		}

		unlock := s.aggregator.LockCategories(current.CategoryID, nextCategoryID)
		fresh, err := findBudget(s.db, id)
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if fresh.CategoryID == current.CategoryID {
			return fresh, unlock, nil
		}
		unlock()
	}
}

// UpdateBudget replaces every writable field of a budget, re-checks the
// period for overlaps and recomputes the spent amount.
func (s *budgetService) UpdateBudget(id string, input BudgetInput) (budget *models.Budget, err error) {
	defer func() { s.metrics.RecordMutation("budget", "update", err) }()

	input, err = normalizeBudgetInput(input)
	if err != nil {
		return nil, err
	}

	budget, unlock, err := s.lockBudget(id, input.CategoryID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.categories.GetCategoryByID(input.CategoryID); err != nil {
		return nil, err
	}

	budget.Name = input.Name
	budget.Limit = input.Limit
	budget.StartDate = input.StartDate
	budget.EndDate = input.EndDate
	budget.CategoryID = input.CategoryID
	budget.NotificationThreshold = input.NotificationThreshold
	budget.IsActive = *input.IsActive
	budget.Notes = input.Notes

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkOverlap(tx, budget.CategoryID, budget.StartDate, budget.EndDate, budget.ID); err != nil {
			return err
		}
		if err := tx.Omit("spent_amount").Save(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.aggregator.Recompute(tx, budget, TriggerBudgetUpdate)
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// DeleteBudget removes a budget.
func (s *budgetService) DeleteBudget(id string) (err error) {
	defer func() { s.metrics.RecordMutation("budget", "delete", err) }()

	budget, unlock, err := s.lockBudget(id, "")
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.db.Delete(&models.Budget{}, "id = ?", budget.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RefreshSpending recomputes and persists the spent amount of a budget.
func (s *budgetService) RefreshSpending(id string) (*models.Budget, error) {
	budget, unlock, err := s.lockBudget(id, "")
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.aggregator.Recompute(tx, budget, TriggerBudgetRead)
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// RemainingBudget returns limit minus spent, as of a fresh recompute. A
// negative value means the budget is exceeded.
func (s *budgetService) RemainingBudget(id string) (decimal.Decimal, error) {
	budget, err := s.RefreshSpending(id)
	if err != nil {
		return decimal.Zero, err
	}
	return budget.Remaining(), nil
}

// GetBudgetProgress recomputes a budget and reports its derived figures.
func (s *budgetService) GetBudgetProgress(id string) (*BudgetProgress, error) {
	budget, err := s.RefreshSpending(id)
	if err != nil {
		return nil, err
	}
	return &BudgetProgress{
		BudgetID:          budget.ID,
		Limit:             budget.Limit,
		Spent:             budget.SpentAmount,
		Remaining:         budget.Remaining(),
		Percentage:        budget.PercentageSpent(),
		IsExceeded:        budget.IsExceeded(),
		IsWithinThreshold: budget.IsWithinThreshold(),
	}, nil
}

// PercentageSpent returns the stored spent amount as a percentage of the limit.
func (s *budgetService) PercentageSpent(id string) (float64, error) {
	budget, err := findBudget(s.db, id)
	if err != nil {
		return 0, err
	}
	return budget.PercentageSpent(), nil
}

// IsWithinThreshold reports whether the budget has reached its notification
// threshold.
func (s *budgetService) IsWithinThreshold(id string) (bool, error) {
	budget, err := findBudget(s.db, id)
	if err != nil {
		return false, err
	}
	return budget.IsWithinThreshold(), nil
}

// FindExceeding returns every budget whose spent amount is strictly above its
// limit.
func (s *budgetService) FindExceeding() ([]models.Budget, error) {
	var budgets []models.Budget
	if err := s.db.Where("spent_amount > budget_limit").Order("start_date ASC, id ASC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// FindActive returns every budget whose period contains now.
func (s *budgetService) FindActive(now time.Time) ([]models.Budget, error) {
	day := models.DateOf(now)
	var budgets []models.Budget
	if err := s.db.Where("start_date <= ? AND end_date >= ?", day, day).
		Order("start_date ASC, id ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

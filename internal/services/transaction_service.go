package services

import (
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
	maxReferenceNumberLength = 50
	maxDescriptionLength     = 255
	maxTransactionNotesLen   = 1000
)

var transactionSortColumns = []string{"transaction_date", "amount", "created_at"}

// transactionService handles transaction-related business logic.
type transactionService struct {
	db         *gorm.DB
	categories CategoryServicer
	aggregator Aggregator
	clock      clock.Clock
	metrics    MetricsRecorder
}

// NewTransactionService creates a new TransactionServicer. A nil clock uses
// the system time and a nil metrics recorder disables metrics.
func NewTransactionService(db *gorm.DB, categories CategoryServicer, aggregator Aggregator, clk clock.Clock, metrics MetricsRecorder) TransactionServicer {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &transactionService{
		db:         db,
		categories: categories,
		aggregator: aggregator,
		clock:      clk,
		metrics:    metrics,
	}
}

func (s *transactionService) normalizeInput(input TransactionInput) (TransactionInput, time.Time, error) {
	if !input.Amount.IsPositive() {
		return input, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !models.FitsMoney(input.Amount) {
		return input, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must have at most 2 decimal places and be below 10000000000")
	}

	if input.Type == "" {
		return input, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction type is required")
	}
	txType, ok := models.ParseTransactionType(string(input.Type))
	if !ok {
		return input, time.Time{}, apperrors.ErrInvalidTransactionType
	}
	input.Type = txType

	if input.PaymentMethod != nil {
		method, ok := models.ParsePaymentMethod(string(*input.PaymentMethod))
		if !ok {
			return input, time.Time{}, apperrors.ErrInvalidPaymentMethod
		}
		input.PaymentMethod = &method
	}

	today := models.DateOf(s.clock.Now().UTC())
	date := today
	if input.Date != nil && !input.Date.IsZero() {
		date = models.DateOf(*input.Date)
	}
	if date.After(today) {
		return input, time.Time{}, apperrors.ErrFutureTransaction
	}

	if input.CategoryID != nil && strings.TrimSpace(*input.CategoryID) == "" {
		input.CategoryID = nil
	}

	input.ReferenceNumber = strings.TrimSpace(input.ReferenceNumber)
	input.Description = strings.TrimSpace(input.Description)
	input.Notes = strings.TrimSpace(input.Notes)
	switch {
	case len(input.ReferenceNumber) > maxReferenceNumberLength:
		return input, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "reference number must be at most 50 characters")
	case len(input.Description) > maxDescriptionLength:
		return input, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "description must be at most 255 characters")
	case len(input.Notes) > maxTransactionNotesLen:
		return input, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "notes must be at most 1000 characters")
	}

	return input, date, nil
}

func categoryKey(categoryID *string) string {
	if categoryID == nil {
		return ""
	}
	return *categoryID
}

// impactOf returns the budget impact of a stored transaction, or nothing for
// an uncategorized one.
func impactOf(t *models.Transaction) []Impact {
	if t.CategoryID == nil {
		return nil
	}
	return []Impact{{CategoryID: *t.CategoryID, Date: t.Date}}
}

// CreateTransaction records a transaction and recomputes the budgets whose
// category and period contain it.
func (s *transactionService) CreateTransaction(input TransactionInput) (transaction *models.Transaction, err error) {
	defer func() { s.metrics.RecordMutation("transaction", "create", err) }()

	input, date, err := s.normalizeInput(input)
	if err != nil {
		return nil, err
	}

	unlock := s.aggregator.LockCategories(categoryKey(input.CategoryID))
	defer unlock()

	if input.CategoryID != nil {
		if _, err := s.categories.GetCategoryByID(*input.CategoryID); err != nil {
			return nil, err
		}
	}

	transaction = &models.Transaction{
		Amount:          input.Amount,
		Type:            input.Type,
		Date:            date,
		CategoryID:      input.CategoryID,
		PaymentMethod:   input.PaymentMethod,
		Recurring:       input.Recurring,
		ReferenceNumber: input.ReferenceNumber,
		Description:     input.Description,
		Notes:           input.Notes,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		_, err := s.aggregator.RecomputeAffected(tx, TriggerTransactionCreate, impactOf(transaction)...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// GetTransactionByID retrieves a transaction by ID.
func (s *transactionService) GetTransactionByID(id string) (*models.Transaction, error) {
	return findTransaction(s.db, id)
}

// ListTransactions retrieves a paginated, filtered list of transactions.
func (s *transactionService) ListTransactions(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := applyTransactionFilters(s.db.Model(&models.Transaction{}), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	sort := filter.Sort
	if sort.SortBy == "" && sort.SortOrder == "" {
		sort.SortOrder = "desc"
	}

	var transactions []models.Transaction
	if err := base.Scopes(
		pagination.Sort(sort, transactionSortColumns, "transaction_date"),
		pagination.Paginate(page),
	).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("transaction_date >= ?", models.DateOf(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("transaction_date <= ?", models.DateOf(*f.ToDate))
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}

// lockTransaction takes the category lock of a transaction and, optionally,
// of the category it is about to move to. The record is re-read under the
// locks and the attempt repeats if its category changed in between.
func (s *transactionService) lockTransaction(id, nextCategoryID string) (*models.Transaction, func(), error) {
	for {
		current, err := findTransaction(s.db, id)
		if err != nil {
			return nil, nil, err
		}

		unlock := s.aggregator.LockCategories(categoryKey(current.CategoryID), nextCategoryID)
		fresh, err := findTransaction(s.db, id)
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if categoryKey(fresh.CategoryID) == categoryKey(current.CategoryID) {
			return fresh, unlock, nil
		}
		unlock()
	}
}

// UpdateTransaction replaces every writable field of a transaction. When the
// category, amount, type or date changes, the budgets around both the old and
// the new position are recomputed.
func (s *transactionService) UpdateTransaction(id string, input TransactionInput) (transaction *models.Transaction, err error) {
	defer func() { s.metrics.RecordMutation("transaction", "update", err) }()

	input, date, err := s.normalizeInput(input)
	if err != nil {
		return nil, err
	}

	transaction, unlock, err := s.lockTransaction(id, categoryKey(input.CategoryID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if input.CategoryID != nil {
		if _, err := s.categories.GetCategoryByID(*input.CategoryID); err != nil {
			return nil, err
		}
	}

	before := impactOf(transaction)
	affectsBudgets := categoryKey(transaction.CategoryID) != categoryKey(input.CategoryID) ||
		!transaction.Amount.Equal(input.Amount) ||
		transaction.Type != input.Type ||
		!transaction.Date.Equal(date)

	transaction.Amount = input.Amount
	transaction.Type = input.Type
	transaction.Date = date
	transaction.CategoryID = input.CategoryID
	transaction.PaymentMethod = input.PaymentMethod
	transaction.Recurring = input.Recurring
	transaction.ReferenceNumber = input.ReferenceNumber
	transaction.Description = input.Description
	transaction.Notes = input.Notes

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if !affectsBudgets {
			return nil
		}
		impacts := append(before, impactOf(transaction)...)
		_, err := s.aggregator.RecomputeAffected(tx, TriggerTransactionUpdate, impacts...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// DeleteTransaction removes a transaction and recomputes the budgets that
// counted it.
func (s *transactionService) DeleteTransaction(id string) (err error) {
	defer func() { s.metrics.RecordMutation("transaction", "delete", err) }()

	transaction, unlock, err := s.lockTransaction(id, "")
	if err != nil {
		return err
	}
	defer unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Transaction{}, "id = ?", transaction.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		_, err := s.aggregator.RecomputeAffected(tx, TriggerTransactionDelete, impactOf(transaction)...)
		return err
	})
}

// TransactionsByCategory returns every transaction of a category, newest first.
func (s *transactionService) TransactionsByCategory(categoryID string) ([]models.Transaction, error) {
	if _, err := s.categories.GetCategoryByID(categoryID); err != nil {
		return nil, err
	}

	var transactions []models.Transaction
	if err := s.db.Where("category_id = ?", categoryID).
		Order("transaction_date DESC, id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

func checkRange(from, to time.Time) error {
	if models.DateOf(from).After(models.DateOf(to)) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "from date cannot be after to date")
	}
	return nil
}

// TransactionsByDateRange returns the transactions dated inside [from, to].
func (s *transactionService) TransactionsByDateRange(from, to time.Time) ([]models.Transaction, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}

	var transactions []models.Transaction
	if err := s.db.Where("transaction_date BETWEEN ? AND ?", models.DateOf(from), models.DateOf(to)).
		Order("transaction_date ASC, id ASC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// TransactionsByCategoryAndDateRange returns the transactions of a category
// dated inside [from, to].
func (s *transactionService) TransactionsByCategoryAndDateRange(categoryID string, from, to time.Time) ([]models.Transaction, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	if _, err := s.categories.GetCategoryByID(categoryID); err != nil {
		return nil, err
	}
	return transactionsInRange(s.db, categoryID, from, to, nil)
}

// TotalByCategory sums the transactions of one type in a category over
// [from, to].
func (s *transactionService) TotalByCategory(categoryID string, from, to time.Time, txType models.TransactionType) (decimal.Decimal, error) {
	parsed, ok := models.ParseTransactionType(string(txType))
	if !ok {
		return decimal.Zero, apperrors.ErrInvalidTransactionType
	}
	transactions, err := s.TransactionsByCategoryAndDateRange(categoryID, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, t := range transactions {
		if t.Type == parsed {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

// CountByCategory returns how many transactions reference a category.
func (s *transactionService) CountByCategory(categoryID string) (int64, error) {
	return countTransactionsByCategory(s.db, categoryID)
}

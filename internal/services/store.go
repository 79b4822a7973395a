package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "wallet/internal/errors"
	"wallet/internal/models"
)

// Persistence queries shared by the services. Every function takes the
// *gorm.DB to run on so callers can pass either the root handle or an open
// transaction.

func findCategory(db *gorm.DB, id string) (*models.Category, error) {
	var category models.Category
	if err := db.Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

func findBudget(db *gorm.DB, id string) (*models.Budget, error) {
	var budget models.Budget
	if err := db.Where("id = ?", id).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

func findTransaction(db *gorm.DB, id string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := db.Where("id = ?", id).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// childCategories returns the children of parentID, or the roots when
// parentID is nil, ordered by name.
func childCategories(db *gorm.DB, parentID *string) ([]models.Category, error) {
	q := db.Model(&models.Category{})
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}

	var categories []models.Category
	if err := q.Order("name ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// siblingNameTaken reports whether a sibling under parentID already uses name,
// compared case-insensitively. excludeID skips the category being renamed.
func siblingNameTaken(db *gorm.DB, parentID *string, name, excludeID string) (bool, error) {
	q := db.Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

func searchCategoriesByName(db *gorm.DB, query string) ([]models.Category, error) {
	var categories []models.Category
	pattern := "%" + strings.ToLower(query) + "%"
	if err := db.Where("LOWER(name) LIKE ?", pattern).Order("name ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

func allCategories(db *gorm.DB) ([]models.Category, error) {
	var categories []models.Category
	if err := db.Order("name ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

func countChildCategories(db *gorm.DB, categoryID string) (int64, error) {
	var count int64
	if err := db.Model(&models.Category{}).Where("parent_id = ?", categoryID).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

func countTransactionsByCategory(db *gorm.DB, categoryID string) (int64, error) {
	var count int64
	if err := db.Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

func countBudgetsByCategory(db *gorm.DB, categoryID string) (int64, error) {
	var count int64
	if err := db.Model(&models.Budget{}).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

// transactionsInRange returns the transactions of categoryID dated inside
// [from, to]. A nil txType returns both incomes and expenses.
func transactionsInRange(db *gorm.DB, categoryID string, from, to time.Time, txType *models.TransactionType) ([]models.Transaction, error) {
	q := db.Model(&models.Transaction{}).
		Where("category_id = ? AND transaction_date BETWEEN ? AND ?", categoryID, models.DateOf(from), models.DateOf(to))
	if txType != nil {
		q = q.Where("type = ?", *txType)
	}

	var transactions []models.Transaction
	if err := q.Order("transaction_date ASC, id ASC").Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// budgetsContaining returns the budgets of categoryID whose period includes day.
func budgetsContaining(db *gorm.DB, categoryID string, day time.Time) ([]models.Budget, error) {
	day = models.DateOf(day)
	var budgets []models.Budget
	if err := db.Where("category_id = ? AND start_date <= ? AND end_date >= ?", categoryID, day, day).
		Order("start_date ASC, id ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// overlappingBudgets returns the budgets of categoryID whose period shares at
// least one day with [start, end], excluding excludeID.
func overlappingBudgets(db *gorm.DB, categoryID string, start, end time.Time, excludeID string) ([]models.Budget, error) {
	q := db.Where("category_id = ? AND start_date <= ? AND end_date >= ?",
		categoryID, models.DateOf(end), models.DateOf(start))
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var budgets []models.Budget
	if err := q.Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

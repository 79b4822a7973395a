package services

import (
	"errors"
	"strings"
	"sync"

	"gorm.io/gorm"

	apperrors "wallet/internal/errors"
	"wallet/internal/models"
	"wallet/internal/pagination"
)

const maxCategoryNameLength = 100

// categoryService handles category-related business logic.
type categoryService struct {
	db         *gorm.DB
	aggregator Aggregator

	// tree serializes every hierarchy mutation so a cycle check never races
	// a concurrent reparent.
	tree sync.Mutex
}

// NewCategoryService creates a new CategoryServicer. The aggregator's
// category locks keep a delete from racing a transaction or budget write
// into the same category.
func NewCategoryService(db *gorm.DB, aggregator Aggregator) CategoryServicer {
	return &categoryService{db: db, aggregator: aggregator}
}

func normalizeCategoryInput(input CategoryInput) (CategoryInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Icon = strings.TrimSpace(input.Icon)
	input.Color = strings.TrimSpace(input.Color)

	if input.Name == "" {
		return input, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if len(input.Name) > maxCategoryNameLength {
		return input, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name must be at most 100 characters")
	}
	if input.ParentID != nil && strings.TrimSpace(*input.ParentID) == "" {
		input.ParentID = nil
	}
	return input, nil
}

// CreateCategory creates a new category under input.ParentID, or as a root.
func (s *categoryService) CreateCategory(input CategoryInput) (*models.Category, error) {
	input, err := normalizeCategoryInput(input)
	if err != nil {
		return nil, err
	}

	s.tree.Lock()
	defer s.tree.Unlock()

	if input.ParentID != nil {
		if _, err := findCategory(s.db, *input.ParentID); err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.ErrParentCategoryNotFound
			}
			return nil, err
		}
	}

	taken, err := siblingNameTaken(s.db, input.ParentID, input.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrDuplicateCategoryName
	}

	category := &models.Category{
		Name:        input.Name,
		Description: input.Description,
		Color:       input.Color,
		Icon:        input.Icon,
		ParentID:    input.ParentID,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetCategoryByID retrieves a category by ID.
func (s *categoryService) GetCategoryByID(id string) (*models.Category, error) {
	return findCategory(s.db, id)
}

// ListCategories retrieves a paginated list of all categories.
func (s *categoryService) ListCategories(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Category{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Order("name ASC, id ASC").Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// RootCategories returns the categories without a parent.
func (s *categoryService) RootCategories() ([]models.Category, error) {
	return childCategories(s.db, nil)
}

// Subcategories returns the direct children of parentID.
func (s *categoryService) Subcategories(parentID string) ([]models.Category, error) {
	if _, err := findCategory(s.db, parentID); err != nil {
		return nil, err
	}
	return childCategories(s.db, &parentID)
}

// SearchCategories returns categories whose name contains query, ignoring
// case. An empty query matches nothing.
func (s *categoryService) SearchCategories(query string) ([]models.Category, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Category{}, nil
	}
	return searchCategoriesByName(s.db, query)
}

// UpdateCategory replaces the editable fields of a category, including its
// parent. A nil ParentID moves the category to the root.
func (s *categoryService) UpdateCategory(id string, input CategoryInput) (*models.Category, error) {
	input, err := normalizeCategoryInput(input)
	if err != nil {
		return nil, err
	}

	s.tree.Lock()
	defer s.tree.Unlock()

	category, err := findCategory(s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkPlacement(id, input.Name, input.ParentID); err != nil {
		return nil, err
	}

	category.Name = input.Name
	category.Description = input.Description
	category.Color = input.Color
	category.Icon = input.Icon
	category.ParentID = input.ParentID

	if err := s.db.Save(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// Reparent moves a category under newParentID, or to the root when nil.
func (s *categoryService) Reparent(id string, newParentID *string) (*models.Category, error) {
	if newParentID != nil && strings.TrimSpace(*newParentID) == "" {
		newParentID = nil
	}

	s.tree.Lock()
	defer s.tree.Unlock()

	category, err := findCategory(s.db, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkPlacement(id, category.Name, newParentID); err != nil {
		return nil, err
	}

	if err := s.db.Model(category).Update("parent_id", newParentID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	category.ParentID = newParentID
	return category, nil
}

// checkPlacement verifies that a category named name may sit under parentID:
// no cycle and no case-insensitive name clash with its future siblings.
func (s *categoryService) checkPlacement(id, name string, parentID *string) error {
	idx, err := loadCategoryIndex(s.db)
	if err != nil {
		return err
	}
	if err := idx.validateReparent(id, parentID); err != nil {
		return err
	}

	taken, err := siblingNameTaken(s.db, parentID, name, id)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.ErrDuplicateCategoryName
	}
	return nil
}

// ValidateReparent reports, without side effects, whether id could be moved
// under candidateParentID.
func (s *categoryService) ValidateReparent(id string, candidateParentID *string) error {
	idx, err := loadCategoryIndex(s.db)
	if err != nil {
		return err
	}
	if !idx.has(id) {
		return apperrors.ErrCategoryNotFound
	}
	return idx.validateReparent(id, candidateParentID)
}

// IsValidParent is the boolean form of ValidateReparent. Only lookup and
// store failures are returned as errors.
func (s *categoryService) IsValidParent(id, parentID string) (bool, error) {
	err := s.ValidateReparent(id, &parentID)
	switch {
	case err == nil:
		return true, nil
	case apperrors.KindOf(err) == apperrors.KindInternal:
		return false, err
	case apperrors.IsNotFound(err) && !errors.Is(err, apperrors.ErrParentCategoryNotFound):
		return false, err
	default:
		return false, nil
	}
}

// DeleteCategory deletes a category that has no children, transactions or
// budgets.
func (s *categoryService) DeleteCategory(id string) error {
	s.tree.Lock()
	defer s.tree.Unlock()

	unlock := s.aggregator.LockCategories(id)
	defer unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := findCategory(tx, id); err != nil {
			return err
		}

		children, err := countChildCategories(tx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return apperrors.ErrCategoryHasChildren
		}

		transactions, err := countTransactionsByCategory(tx, id)
		if err != nil {
			return err
		}
		if transactions > 0 {
			return apperrors.ErrCategoryInUse
		}

		budgets, err := countBudgetsByCategory(tx, id)
		if err != nil {
			return err
		}
		if budgets > 0 {
			return apperrors.ErrCategoryHasBudgets
		}

		if err := tx.Delete(&models.Category{}, "id = ?", id).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// Descendants returns id followed by every category below it, depth-first
// pre-order with siblings ordered by name.
func (s *categoryService) Descendants(id string) ([]models.Category, error) {
	idx, err := loadCategoryIndex(s.db)
	if err != nil {
		return nil, err
	}
	if !idx.has(id) {
		return nil, apperrors.ErrCategoryNotFound
	}
	return idx.descendants(id), nil
}

// PathToRoot returns the chain of categories from the root down to id.
func (s *categoryService) PathToRoot(id string) ([]models.Category, error) {
	idx, err := loadCategoryIndex(s.db)
	if err != nil {
		return nil, err
	}
	if !idx.has(id) {
		return nil, apperrors.ErrCategoryNotFound
	}
	return idx.pathToRoot(id)
}

// IsDescendant reports whether nodeID sits strictly below ancestorID.
// A category is never its own descendant.
func (s *categoryService) IsDescendant(ancestorID, nodeID string) (bool, error) {
	idx, err := loadCategoryIndex(s.db)
	if err != nil {
		return false, err
	}
	if !idx.has(ancestorID) || !idx.has(nodeID) {
		return false, apperrors.ErrCategoryNotFound
	}
	return idx.isDescendant(ancestorID, nodeID)
}

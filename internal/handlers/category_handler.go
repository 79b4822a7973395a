package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wallet/internal/models"
	"wallet/internal/pagination"
	"wallet/internal/services"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CategoryRequest represents the request payload for creating or replacing a
// category. A missing parent_id makes the category a root.
type CategoryRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=100"`
	Description string  `json:"description" binding:"max=255"`
	Icon        string  `json:"icon" binding:"max=50"`
	Color       string  `json:"color" binding:"omitempty,hex_color"`
	ParentID    *string `json:"parent_id" binding:"omitempty,uuid"`
}

func (r CategoryRequest) input() services.CategoryInput {
	return services.CategoryInput{
		Name:        r.Name,
		Description: r.Description,
		Icon:        r.Icon,
		Color:       r.Color,
		ParentID:    r.ParentID,
	}
}

// ReparentRequest represents the request payload for moving a category.
type ReparentRequest struct {
	ParentID *string `json:"parent_id" binding:"omitempty,uuid"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a new category, optionally under a parent
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       request body CategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Parent category not found"
// @Failure     409 {object} ErrorResponse "Duplicate sibling name"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	category, err := h.categoryService.CreateCategory(req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_CATEGORY", "category", category.ID, c.ClientIP(),
		map[string]interface{}{"name": category.Name, "parent_id": category.ParentID})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetCategories handles listing categories
// @Summary     List categories
// @Description Get a paginated list of all categories
// @Tags        categories
// @Produce     json
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Category] "Paginated categories"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	result, err := h.categoryService.ListCategories(page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetRootCategories handles listing the categories without a parent
// @Summary     Root categories
// @Tags        categories
// @Produce     json
// @Success     200 {array} models.Category
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/root [get]
func (h *CategoryHandler) GetRootCategories(c *gin.Context) {
	categories, err := h.categoryService.RootCategories()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": nonNil(categories)})
}

// SearchCategories handles case-insensitive name search
// @Summary     Search categories
// @Tags        categories
// @Produce     json
// @Param       query query string true "Substring to look for"
// @Success     200 {array} models.Category
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/search [get]
func (h *CategoryHandler) SearchCategories(c *gin.Context) {
	categories, err := h.categoryService.SearchCategories(c.Query("query"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": nonNil(categories)})
}

// GetCategoryByID handles fetching a single category
// @Summary     Get a category
// @Tags        categories
// @Produce     json
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory handles replacing a category's fields, parent included
// @Summary     Update a category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       id      path string          true "Category ID"
// @Param       request body CategoryRequest true "Category details"
// @Success     200 {object} models.Category
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Cycle or duplicate name"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	category, err := h.categoryService.UpdateCategory(id, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("UPDATE_CATEGORY", "category", id, c.ClientIP(),
		map[string]interface{}{"name": category.Name, "parent_id": category.ParentID})

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// ReparentCategory handles moving a category under a new parent
// @Summary     Move a category
// @Description Set parent_id to null to make the category a root
// @Tags        categories
// @Accept      json
// @Produce     json
// @Param       id      path string          true "Category ID"
// @Param       request body ReparentRequest true "New parent"
// @Success     200 {object} models.Category
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Cycle or duplicate name"
// @Router      /categories/{id}/parent [put]
func (h *CategoryHandler) ReparentCategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ReparentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	category, err := h.categoryService.Reparent(id, req.ParentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("REPARENT_CATEGORY", "category", id, c.ClientIP(),
		map[string]interface{}{"parent_id": req.ParentID})

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles deleting a category
// @Summary     Delete a category
// @Description Fails when the category has children, transactions or budgets
// @Tags        categories
// @Produce     json
// @Param       id path string true "Category ID"
// @Success     200 {object} map[string]string
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category still referenced"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_CATEGORY", "category", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

// GetSubcategories handles listing direct children
// @Summary     Child categories
// @Tags        categories
// @Produce     json
// @Param       id path string true "Category ID"
// @Success     200 {array} models.Category
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id}/children [get]
func (h *CategoryHandler) GetSubcategories(c *gin.Context) {
	h.listFor(c, h.categoryService.Subcategories)
}

// GetHierarchy handles listing a category and its descendants, pre-order
// @Summary     Category subtree
// @Tags        categories
// @Produce     json
// @Param       id path string true "Category ID"
// @Success     200 {array} models.Category
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id}/hierarchy [get]
func (h *CategoryHandler) GetHierarchy(c *gin.Context) {
	h.listFor(c, h.categoryService.Descendants)
}

// GetPath handles listing the chain from the root down to a category
// @Summary     Category path
// @Tags        categories
// @Produce     json
// @Param       id path string true "Category ID"
// @Success     200 {array} models.Category
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id}/path [get]
func (h *CategoryHandler) GetPath(c *gin.Context) {
	h.listFor(c, h.categoryService.PathToRoot)
}

func (h *CategoryHandler) listFor(c *gin.Context, fetch func(id string) ([]models.Category, error)) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	categories, err := fetch(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": nonNil(categories)})
}

// ValidateParent handles checking whether a category may move under a parent
// @Summary     Validate a parent assignment
// @Tags        categories
// @Produce     json
// @Param       id       path string true "Category ID"
// @Param       parentId path string true "Candidate parent ID"
// @Success     200 {object} map[string]bool
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id}/validate-parent/{parentId} [get]
func (h *CategoryHandler) ValidateParent(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	parentID, err := parsePathID(c, "parentId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	valid, err := h.categoryService.IsValidParent(id, parentID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "wallet/internal/errors"
	"wallet/internal/models"
	"wallet/internal/pagination"
	"wallet/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
	now           func() time.Time
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService, now: time.Now}
}

// BudgetRequest represents the request payload for creating or replacing a
// budget. The spent amount is derived and cannot be set.
type BudgetRequest struct {
	Name                  string          `json:"name" binding:"required,min=1,max=100"`
	Limit                 decimal.Decimal `json:"budget_limit" binding:"money"`
	StartDate             string          `json:"start_date" binding:"required"`
	EndDate               string          `json:"end_date" binding:"required"`
	CategoryID            string          `json:"category_id" binding:"required,uuid"`
	NotificationThreshold *int            `json:"notification_threshold" binding:"omitempty,threshold_percent"`
	IsActive              *bool           `json:"is_active"`
	Notes                 string          `json:"notes" binding:"max=500"`
}

func (r BudgetRequest) input() (services.BudgetInput, error) {
	start, err := parseFlexibleTime(r.StartDate)
	if err != nil {
		return services.BudgetInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "start_date: "+err.Error())
	}
	end, err := parseFlexibleTime(r.EndDate)
	if err != nil {
		return services.BudgetInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "end_date: "+err.Error())
	}
	return services.BudgetInput{
		Name:                  r.Name,
		Limit:                 r.Limit,
		StartDate:             start,
		EndDate:               end,
		CategoryID:            r.CategoryID,
		NotificationThreshold: r.NotificationThreshold,
		IsActive:              r.IsActive,
		Notes:                 r.Notes,
	}, nil
}

// BudgetResponse is a budget together with its derived figures.
type BudgetResponse struct {
	models.Budget
	RemainingAmount   decimal.Decimal `json:"remaining_amount"`
	PercentageSpent   float64         `json:"percentage_spent"`
	IsExceeded        bool            `json:"is_exceeded"`
	IsWithinThreshold bool            `json:"is_within_threshold"`
}

func newBudgetResponse(b *models.Budget) BudgetResponse {
	return BudgetResponse{
		Budget:            *b,
		RemainingAmount:   b.Remaining(),
		PercentageSpent:   b.PercentageSpent(),
		IsExceeded:        b.IsExceeded(),
		IsWithinThreshold: b.IsWithinThreshold(),
	}
}

func newBudgetResponses(budgets []models.Budget) []BudgetResponse {
	out := make([]BudgetResponse, 0, len(budgets))
	for i := range budgets {
		out = append(out, newBudgetResponse(&budgets[i]))
	}
	return out
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a new budget for a category. The period may not overlap another budget of the same category.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       request body BudgetRequest true "Budget details"
// @Success     201 {object} BudgetResponse "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Overlapping period"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	input, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.CreateBudget(input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"name": budget.Name, "budget_limit": budget.Limit.String(), "category_id": budget.CategoryID})

	c.JSON(http.StatusCreated, gin.H{"budget": newBudgetResponse(budget)})
}

// GetBudgets handles listing budgets.
// @Summary     Get budgets
// @Description Get a paginated list of budgets
// @Tags        budgets
// @Produce     json
// @Param       is_active   query bool   false "Filter by active status"
// @Param       category_id query string false "Filter by category"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[BudgetResponse] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	var filter services.BudgetFilter
	isActive, err := parseBoolQuery(c, "is_active")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.IsActive = isActive
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}

	result, err := h.budgetService.ListBudgets(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.NewPageResponse(
		newBudgetResponses(result.Data), result.Page, result.PageSize, result.TotalItems))
}

// GetActiveBudgets handles listing budgets whose period contains today.
// @Summary     Active budgets
// @Tags        budgets
// @Produce     json
// @Success     200 {array} BudgetResponse
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/active [get]
func (h *BudgetHandler) GetActiveBudgets(c *gin.Context) {
	budgets, err := h.budgetService.FindActive(h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budgets": newBudgetResponses(budgets)})
}

// GetExceededBudgets handles listing budgets spent strictly over their limit.
// @Summary     Exceeded budgets
// @Tags        budgets
// @Produce     json
// @Success     200 {array} BudgetResponse
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/exceeded [get]
func (h *BudgetHandler) GetExceededBudgets(c *gin.Context) {
	budgets, err := h.budgetService.FindExceeding()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budgets": newBudgetResponses(budgets)})
}

// GetBudgetsByCategory handles listing the budgets of a category.
// @Summary     Budgets of a category
// @Tags        budgets
// @Produce     json
// @Param       categoryId path string true "Category ID"
// @Success     200 {array} BudgetResponse
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /budgets/category/{categoryId} [get]
func (h *BudgetHandler) GetBudgetsByCategory(c *gin.Context) {
	categoryID, err := parsePathID(c, "categoryId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgets, err := h.budgetService.BudgetsByCategory(categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budgets": newBudgetResponses(budgets)})
}

// GetBudget handles retrieving a single budget by ID.
// @Summary     Get a budget
// @Tags        budgets
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} BudgetResponse "Budget details"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": newBudgetResponse(budget)})
}

// UpdateBudget handles replacing a budget.
// @Summary     Update a budget
// @Description Replace every writable field of a budget. The spent amount is recomputed.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       id      path string        true "Budget ID"
// @Param       request body BudgetRequest true "Budget details"
// @Success     200 {object} BudgetResponse "Budget updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Budget or category not found"
// @Failure     409 {object} ErrorResponse "Overlapping period"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	input, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.UpdateBudget(budgetID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("UPDATE_BUDGET", "budget", budgetID, c.ClientIP(),
		map[string]interface{}{"name": budget.Name, "budget_limit": budget.Limit.String(), "category_id": budget.CategoryID})

	c.JSON(http.StatusOK, gin.H{"budget": newBudgetResponse(budget)})
}

// DeleteBudget handles deleting a budget.
// @Summary     Delete a budget
// @Tags        budgets
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} map[string]string "Budget deleted"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
}

// GetRemaining handles reading limit minus spent after a fresh recompute.
// @Summary     Remaining budget
// @Tags        budgets
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} map[string]string "Remaining amount"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/remaining [get]
func (h *BudgetHandler) GetRemaining(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	remaining, err := h.budgetService.RemainingBudget(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget_id": budgetID, "remaining_amount": remaining})
}

// RefreshSpending handles an explicit recompute of a budget's spent amount.
// @Summary     Recompute spending
// @Tags        budgets
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} BudgetResponse "Budget with fresh spent amount"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/update-spending [put]
func (h *BudgetHandler) RefreshSpending(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.RefreshSpending(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": newBudgetResponse(budget)})
}

// GetBudgetProgress handles retrieving spending progress for a budget.
// @Summary     Get budget progress
// @Description Recompute a budget and report spent, remaining and percentage figures
// @Tags        budgets
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} services.BudgetProgress "Budget progress"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/progress [get]
func (h *BudgetHandler) GetBudgetProgress(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.budgetService.GetBudgetProgress(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

package handlers

import "github.com/gin-gonic/gin"

// Handlers groups the resource handlers mounted under /api/v1.
type Handlers struct {
	Categories   *CategoryHandler
	Budgets      *BudgetHandler
	Transactions *TransactionHandler
}

// RegisterRoutes mounts every resource route on group.
func (h *Handlers) RegisterRoutes(group gin.IRouter) {
	categories := group.Group("/categories")
	categories.POST("", h.Categories.CreateCategory)
	categories.GET("", h.Categories.GetCategories)
	categories.GET("/root", h.Categories.GetRootCategories)
	categories.GET("/search", h.Categories.SearchCategories)
	categories.GET("/:id", h.Categories.GetCategoryByID)
	categories.PUT("/:id", h.Categories.UpdateCategory)
	categories.DELETE("/:id", h.Categories.DeleteCategory)
	categories.PUT("/:id/parent", h.Categories.ReparentCategory)
	categories.GET("/:id/children", h.Categories.GetSubcategories)
	categories.GET("/:id/hierarchy", h.Categories.GetHierarchy)
	categories.GET("/:id/path", h.Categories.GetPath)
	categories.GET("/:id/validate-parent/:parentId", h.Categories.ValidateParent)

	budgets := group.Group("/budgets")
	budgets.POST("", h.Budgets.CreateBudget)
	budgets.GET("", h.Budgets.GetBudgets)
	budgets.GET("/active", h.Budgets.GetActiveBudgets)
	budgets.GET("/exceeded", h.Budgets.GetExceededBudgets)
	budgets.GET("/category/:categoryId", h.Budgets.GetBudgetsByCategory)
	budgets.GET("/:id", h.Budgets.GetBudget)
	budgets.PUT("/:id", h.Budgets.UpdateBudget)
	budgets.DELETE("/:id", h.Budgets.DeleteBudget)
	budgets.GET("/:id/remaining", h.Budgets.GetRemaining)
	budgets.PUT("/:id/update-spending", h.Budgets.RefreshSpending)
	budgets.GET("/:id/progress", h.Budgets.GetBudgetProgress)

	transactions := group.Group("/transactions")
	transactions.POST("", h.Transactions.CreateTransaction)
	transactions.GET("", h.Transactions.GetTransactions)
	transactions.GET("/date-range", h.Transactions.GetTransactionsByDateRange)
	transactions.GET("/category/:categoryId", h.Transactions.GetCategoryTransactions)
	transactions.GET("/category/:categoryId/total", h.Transactions.GetCategoryTotal)
	transactions.GET("/:id", h.Transactions.GetTransactionByID)
	transactions.PUT("/:id", h.Transactions.UpdateTransaction)
	transactions.DELETE("/:id", h.Transactions.DeleteTransaction)
}

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

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// TransactionRequest represents the request payload for creating or
// replacing a transaction. A missing date means today.
type TransactionRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"money"`
	Type            string          `json:"type" binding:"required,transaction_type"`
	Date            *string         `json:"transaction_date"`
	CategoryID      *string         `json:"category_id" binding:"omitempty,uuid"`
	PaymentMethod   *string         `json:"payment_method" binding:"omitempty,payment_method"`
	Recurring       bool            `json:"recurring"`
	ReferenceNumber string          `json:"reference_number" binding:"max=50"`
	Description     string          `json:"description" binding:"max=255"`
	Notes           string          `json:"notes" binding:"max=1000"`
}

func (r TransactionRequest) input() (services.TransactionInput, error) {
	txType, ok := models.ParseTransactionType(r.Type)
	if !ok {
		return services.TransactionInput{}, apperrors.ErrInvalidTransactionType
	}

	input := services.TransactionInput{
		Amount:          r.Amount,
		Type:            txType,
		CategoryID:      r.CategoryID,
		Recurring:       r.Recurring,
		ReferenceNumber: r.ReferenceNumber,
		Description:     r.Description,
		Notes:           r.Notes,
	}

	if r.PaymentMethod != nil && *r.PaymentMethod != "" {
		method, ok := models.ParsePaymentMethod(*r.PaymentMethod)
		if !ok {
			return services.TransactionInput{}, apperrors.ErrInvalidPaymentMethod
		}
		input.PaymentMethod = &method
	}

	if r.Date != nil {
		date, err := parseDateParam("transaction_date", *r.Date)
		if err != nil {
			return services.TransactionInput{}, err
		}
		input.Date = date
	}
	return input, nil
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Record an income or expense. Budgets of the category covering the date are recomputed.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       request body TransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	input, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"type": transaction.Type, "amount": transaction.Amount.String(), "category_id": transaction.CategoryID})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetTransactions handles listing transactions
// @Summary     List transactions
// @Description Get a paginated, filtered list of transactions
// @Tags        transactions
// @Produce     json
// @Param       from_date   query string false "Earliest date (YYYY-MM-DD)"
// @Param       to_date     query string false "Latest date (YYYY-MM-DD)"
// @Param       type        query string false "INCOME or EXPENSE"
// @Param       category_id query string false "Category ID"
// @Param       min_amount  query string false "Minimum amount"
// @Param       max_amount  query string false "Maximum amount"
// @Param       sort_by     query string false "transaction_date, amount or created_at"
// @Param       sort_order  query string false "asc or desc"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	var sort pagination.SortRequest
	if err := c.ShouldBindQuery(&sort); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.Sort = sort

	result, err := h.transactionService.ListTransactions(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter
	var err error

	if filter.FromDate, err = parseDateParam("from_date", c.Query("from_date")); err != nil {
		return filter, err
	}
	if filter.ToDate, err = parseDateParam("to_date", c.Query("to_date")); err != nil {
		return filter, err
	}
	if v := c.Query("type"); v != "" {
		txType, ok := models.ParseTransactionType(v)
		if !ok {
			return filter, apperrors.ErrInvalidTransactionType
		}
		filter.Type = &txType
	}
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	if filter.MinAmount, err = parseAmountParam("min_amount", c.Query("min_amount")); err != nil {
		return filter, err
	}
	if filter.MaxAmount, err = parseAmountParam("max_amount", c.Query("max_amount")); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseAmountParam(name, value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, name+" must be a decimal number")
	}
	return &d, nil
}

// GetTransactionByID handles fetching a single transaction
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction handles replacing a transaction
// @Summary     Update a transaction
// @Description Replace every writable field. Budgets around the old and new category and date are recomputed.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       id      path string             true "Transaction ID"
// @Param       request body TransactionRequest true "Transaction details"
// @Success     200 {object} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction or category not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	input, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(id, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("UPDATE_TRANSACTION", "transaction", id, c.ClientIP(),
		map[string]interface{}{"type": transaction.Type, "amount": transaction.Amount.String(), "category_id": transaction.CategoryID})

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles deleting a transaction
// @Summary     Delete a transaction
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} map[string]string
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_TRANSACTION", "transaction", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// GetCategoryTransactions handles listing the transactions of a category
// @Summary     Transactions of a category
// @Tags        transactions
// @Produce     json
// @Param       categoryId path  string true  "Category ID"
// @Param       from_date  query string false "Earliest date (YYYY-MM-DD)"
// @Param       to_date    query string false "Latest date (YYYY-MM-DD)"
// @Success     200 {array} models.Transaction
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /transactions/category/{categoryId} [get]
func (h *TransactionHandler) GetCategoryTransactions(c *gin.Context) {
	categoryID, err := parsePathID(c, "categoryId")
	if err != nil {
		respondWithError(c, err)
		return
	}
	from, to, err := parseRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var transactions []models.Transaction
	if from == nil && to == nil {
		transactions, err = h.transactionService.TransactionsByCategory(categoryID)
	} else {
		transactions, err = h.transactionService.TransactionsByCategoryAndDateRange(categoryID, rangeStart(from), rangeEnd(to))
	}
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": nonNil(transactions)})
}

// GetCategoryTotal handles summing one type of transaction in a category
// @Summary     Category total
// @Tags        transactions
// @Produce     json
// @Param       categoryId path  string true  "Category ID"
// @Param       type       query string false "INCOME or EXPENSE (default EXPENSE)"
// @Param       from_date  query string false "Earliest date (YYYY-MM-DD)"
// @Param       to_date    query string false "Latest date (YYYY-MM-DD)"
// @Success     200 {object} map[string]string
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /transactions/category/{categoryId}/total [get]
func (h *TransactionHandler) GetCategoryTotal(c *gin.Context) {
	categoryID, err := parsePathID(c, "categoryId")
	if err != nil {
		respondWithError(c, err)
		return
	}
	from, to, err := parseRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txType := models.TransactionTypeExpense
	if v := c.Query("type"); v != "" {
		parsed, ok := models.ParseTransactionType(v)
		if !ok {
			respondWithError(c, apperrors.ErrInvalidTransactionType)
			return
		}
		txType = parsed
	}

	total, err := h.transactionService.TotalByCategory(categoryID, rangeStart(from), rangeEnd(to), txType)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category_id": categoryID, "type": txType, "total": total})
}

func parseRange(c *gin.Context) (*time.Time, *time.Time, error) {
	from, err := parseDateParam("from_date", c.Query("from_date"))
	if err != nil {
		return nil, nil, err
	}
	to, err := parseDateParam("to_date", c.Query("to_date"))
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// rangeStart and rangeEnd turn open range bounds into dates far enough out
// to include every stored transaction.
func rangeStart(t *time.Time) time.Time {
	if t == nil {
		return time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return *t
}

func rangeEnd(t *time.Time) time.Time {
	if t == nil {
		return time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return *t
}

// GetTransactionsByDateRange handles listing every transaction between two dates
// @Summary     Transactions in a date range
// @Tags        transactions
// @Produce     json
// @Param       from_date query string true "Earliest date (YYYY-MM-DD)"
// @Param       to_date   query string true "Latest date (YYYY-MM-DD)"
// @Success     200 {array} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions/date-range [get]
func (h *TransactionHandler) GetTransactionsByDateRange(c *gin.Context) {
	from, to, err := parseRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if from == nil || to == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from_date and to_date are required"))
		return
	}

	transactions, err := h.transactionService.TransactionsByDateRange(*from, *to)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": nonNil(transactions)})
}

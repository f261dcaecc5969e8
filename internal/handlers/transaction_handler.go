package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgetapp/internal/errors"
	"budgetapp/internal/models"
	"budgetapp/internal/services"
)

// TransactionHandler handles transaction-related requests
type TransactionHandler struct {
	transactionService services.TransactionServicer
	payeeService       services.PayeeServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(
	transactionService services.TransactionServicer,
	payeeService services.PayeeServicer,
	auditService services.AuditServicer,
) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		payeeService:       payeeService,
		auditService:       auditService,
	}
}

// CreateTransactionRequest represents the request payload for recording a transaction.
// Payee is a name; the payee is created when missing.
type CreateTransactionRequest struct {
	Amount         *decimal.Decimal `json:"amount" binding:"required,money"`
	Payee          string           `json:"payee" binding:"required,min=1,max=30"`
	BudgetCategory string           `json:"budget_category" binding:"required,uuid"`
	Date           string           `json:"date" binding:"required"`
}

// UpdateTransactionRequest represents the request payload for updating a transaction.
type UpdateTransactionRequest struct {
	Amount         *decimal.Decimal `json:"amount" binding:"omitempty,money"`
	Payee          *string          `json:"payee" binding:"omitempty,min=1,max=30"`
	BudgetCategory *string          `json:"budget_category" binding:"omitempty,uuid"`
	Date           *string          `json:"date"`
}

func parseDateField(value string) (time.Time, error) {
	t, err := parseFlexibleTime(value)
	if err != nil {
		return time.Time{}, apperrors.WithField(apperrors.ErrInvalidInput, "date", err.Error())
	}
	return t, nil
}

func (h *TransactionHandler) present(ctx context.Context, t *models.Transaction) (TransactionResponse, error) {
	names, err := h.payeeService.PayeeNames(ctx, []string{t.PayeeID})
	if err != nil {
		return TransactionResponse{}, err
	}
	return newTransactionResponse(t, names[t.PayeeID]), nil
}

// CreateTransaction handles recording a transaction
// @Summary     Create a transaction
// @Description Record a spend against a budget category
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} TransactionResponse "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	date, err := parseDateField(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	transaction, err := h.transactionService.CreateTransaction(ctx, p, services.TransactionInput{
		Amount:           *req.Amount,
		Payee:            req.Payee,
		BudgetCategoryID: req.BudgetCategory,
		Date:             date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "CREATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"amount": models.FormatMoney(transaction.Amount), "budget_category": transaction.BudgetCategoryID})

	resp, err := h.present(ctx, transaction)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": resp})
}

// GetTransactions handles listing transactions
// @Summary     Get transactions
// @Description Get a paginated list of transactions, keyed by id
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       budget          query string false "Filter by budget ID"
// @Param       budget_category query string false "Filter by category ID"
// @Param       payee           query string false "Filter by payee ID"
// @Param       from_date       query string false "Filter from date (2006-01-02 or RFC 3339)"
// @Param       to_date         query string false "Filter to date (2006-01-02 or RFC 3339)"
// @Param       page            query int    false "Page number (default 1)"
// @Param       page_size       query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[TransactionResponse] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var filter services.TransactionFilter
	if filter.BudgetID, err = parseOptionalID(c, "budget"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.BudgetCategoryID, err = parseOptionalID(c, "budget_category"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.PayeeID, err = parseOptionalID(c, "payee"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.FromDate, err = parseTimeParam(c, "from_date"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.ToDate, err = parseTimeParam(c, "to_date"); err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	result, err := h.transactionService.ListTransactions(ctx, p, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	names, err := h.payeeService.PayeeNames(ctx, pageIDs(result, func(t *models.Transaction) string { return t.PayeeID }))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapPage(result, func(t *models.Transaction) TransactionResponse {
		return newTransactionResponse(t, names[t.PayeeID])
	}))
}

// GetTransactionByID handles retrieving a transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} TransactionResponse "Transaction"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	transaction, err := h.transactionService.GetTransactionByID(ctx, p, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp, err := h.present(ctx, transaction)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": resp})
}

// UpdateTransaction handles updating a transaction
// @Summary     Update transaction
// @Description Change a transaction's amount, payee, category or date
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} TransactionResponse "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	input := services.TransactionUpdate{
		Amount:           req.Amount,
		Payee:            req.Payee,
		BudgetCategoryID: req.BudgetCategory,
	}
	if req.Date != nil {
		date, err := parseDateField(*req.Date)
		if err != nil {
			respondWithError(c, err)
			return
		}
		input.Date = &date
	}

	ctx := c.Request.Context()
	transaction, err := h.transactionService.UpdateTransaction(ctx, p, id, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "UPDATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"amount": models.FormatMoney(transaction.Amount), "budget_category": transaction.BudgetCategoryID})

	resp, err := h.present(ctx, transaction)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": resp})
}

// DeleteTransaction handles deleting a transaction
// @Summary     Delete transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), p, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "DELETE_TRANSACTION", "transaction", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}

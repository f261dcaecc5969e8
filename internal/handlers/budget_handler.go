package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetapp/internal/models"
	"budgetapp/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	Month string `json:"month" binding:"required,month_code"`
	Year  int    `json:"year" binding:"required,min=1,max=9999"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
type UpdateBudgetRequest struct {
	Month *string `json:"month" binding:"omitempty,month_code"`
	Year  *int    `json:"year" binding:"omitempty,min=1,max=9999"`
}

// CopyBudgetRequest represents the request payload for rolling a budget forward.
type CopyBudgetRequest struct {
	Source      *string `json:"source" binding:"omitempty,uuid"`
	TargetYear  int     `json:"target_year" binding:"required,min=1,max=9999"`
	TargetMonth string  `json:"target_month" binding:"required,month_code"`
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create the caller's budget for a month and year
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget period"
// @Success     201 {object} BudgetResponse "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Budget already exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	month, _ := models.ParseMonth(req.Month)

	budget, err := h.budgetService.CreateBudget(c.Request.Context(), p, month, req.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "CREATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"month": month, "year": req.Year})

	c.JSON(http.StatusCreated, gin.H{"budget": newBudgetResponse(budget)})
}

// GetBudgets handles listing budgets visible to the caller.
// @Summary     Get budgets
// @Description Get a paginated list of budgets, keyed by id
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       month     query string false "Filter by month code (JAN..DEC)"
// @Param       year      query int    false "Filter by year"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[BudgetResponse] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
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

	var filter services.BudgetFilter
	if filter.Month, err = parseMonthParam(c, "month"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.Year, err = parseIntParam(c, "year"); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.budgetService.ListBudgets(c.Request.Context(), p, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapPage(result, newBudgetResponse))
}

// GetBudget handles retrieving a budget with its contents.
// @Summary     Get budget by ID
// @Description Get a budget with its previous budget, groups, categories with spent totals, transactions and payees
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} BudgetDetailResponse "Budget details"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	detail, err := h.budgetService.GetBudgetDetail(c.Request.Context(), p, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": newBudgetDetailResponse(detail)})
}

// UpdateBudget handles moving a budget to another period.
// @Summary     Update budget
// @Description Change a budget's month or year
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Fields to change"
// @Success     200 {object} BudgetResponse "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input or budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Budget already exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	var month *models.Month
	if req.Month != nil {
		m, _ := models.ParseMonth(*req.Month)
		month = &m
	}

	budget, err := h.budgetService.UpdateBudget(c.Request.Context(), p, budgetID, month, req.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "UPDATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"month": budget.Month, "year": budget.Year})

	c.JSON(http.StatusOK, gin.H{"budget": newBudgetResponse(budget)})
}

// DeleteBudget handles deleting a budget.
// @Summary     Delete budget
// @Description Delete a budget with its groups, categories and their transactions
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(c.Request.Context(), p, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "DELETE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Budget deleted successfully"})
}

// CopyBudget handles rolling a budget forward into a target month.
// @Summary     Copy budget
// @Description Get or create the caller's budget for the target month and merge in the groups and categories of the source budget (default: the previous month's). Without any source the target is emptied.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CopyBudgetRequest true "Copy target and optional source"
// @Success     200 {object} BudgetDetailResponse "Target budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Source belongs to another user"
// @Failure     404 {object} ErrorResponse "Source not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/copy [post]
func (h *BudgetHandler) CopyBudget(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CopyBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	month, _ := models.ParseMonth(req.TargetMonth)

	input := services.CopyBudgetInput{TargetMonth: month, TargetYear: req.TargetYear}
	if req.Source != nil {
		input.SourceID = *req.Source
	}

	detail, err := h.budgetService.CopyBudget(c.Request.Context(), p, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "COPY_BUDGET", "budget", detail.Budget.ID, c.ClientIP(),
		map[string]interface{}{"source": input.SourceID, "target_month": month, "target_year": req.TargetYear})

	c.JSON(http.StatusOK, gin.H{"budget": newBudgetDetailResponse(detail)})
}

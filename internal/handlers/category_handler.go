package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgetapp/internal/models"
	"budgetapp/internal/services"
)

// CategoryHandler handles budget-category requests.
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request payload for creating a category.
// The budget and group are found by period and name and created when missing.
type CreateCategoryRequest struct {
	BudgetMonth string           `json:"budget_month" binding:"required,month_code"`
	BudgetYear  int              `json:"budget_year" binding:"required,min=1,max=9999"`
	Category    string           `json:"category" binding:"required,min=1,max=100"`
	Group       string           `json:"group" binding:"required,min=1,max=100"`
	Limit       *decimal.Decimal `json:"limit" binding:"omitempty,money"`
}

// UpdateCategoryRequest represents the request payload for updating a category.
type UpdateCategoryRequest struct {
	BudgetMonth *string          `json:"budget_month" binding:"omitempty,month_code"`
	BudgetYear  *int             `json:"budget_year" binding:"omitempty,min=1,max=9999"`
	Category    *string          `json:"category" binding:"omitempty,min=1,max=100"`
	Group       *string          `json:"group" binding:"omitempty,min=1,max=100"`
	Limit       *decimal.Decimal `json:"limit" binding:"omitempty,money"`
}

// present renders one category with its group name and spent total.
func (h *CategoryHandler) present(ctx context.Context, category *models.BudgetCategory) (CategoryResponse, error) {
	spent, err := h.categoryService.Spent(ctx, category.ID)
	if err != nil {
		return CategoryResponse{}, err
	}
	names, err := h.categoryService.GroupNames(ctx, []string{category.GroupID})
	if err != nil {
		return CategoryResponse{}, err
	}
	return newCategoryResponse(category, names[category.GroupID], spent), nil
}

// CreateCategory handles the creation of a category.
// @Summary     Create a category
// @Description Create a category in the caller's budget for budget_month/budget_year under the named group. Budget and group are created when missing.
// @Tags        budget-categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} CategoryResponse "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Category already exists in the budget"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	month, _ := models.ParseMonth(req.BudgetMonth)
	limit := decimal.Zero
	if req.Limit != nil {
		limit = *req.Limit
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), p, services.CategoryInput{
		BudgetMonth: month,
		BudgetYear:  req.BudgetYear,
		Category:    req.Category,
		Group:       req.Group,
		Limit:       limit,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "CREATE_CATEGORY", "budget_category", category.ID, c.ClientIP(),
		map[string]interface{}{"category": category.Category, "group": req.Group, "limit": models.FormatMoney(category.Limit)})

	resp, err := h.present(c.Request.Context(), category)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"budget_category": resp})
}

// GetCategories handles listing categories.
// @Summary     Get categories
// @Description Get a paginated list of categories with spent totals, keyed by id
// @Tags        budget-categories
// @Produce     json
// @Security    BearerAuth
// @Param       budget    query string false "Filter by budget ID"
// @Param       group     query string false "Filter by group ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[CategoryResponse] "Paginated categories"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
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

	var filter services.CategoryFilter
	if filter.BudgetID, err = parseOptionalID(c, "budget"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.GroupID, err = parseOptionalID(c, "group"); err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	result, err := h.categoryService.ListCategories(ctx, p, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	spent, err := h.categoryService.SpentByCategory(ctx, pageIDs(result, func(c *models.BudgetCategory) string { return c.ID }))
	if err != nil {
		respondWithError(c, err)
		return
	}
	groupNames, err := h.categoryService.GroupNames(ctx, pageIDs(result, func(c *models.BudgetCategory) string { return c.GroupID }))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapPage(result, func(cat *models.BudgetCategory) CategoryResponse {
		return newCategoryResponse(cat, groupNames[cat.GroupID], spent[cat.ID])
	}))
}

// GetCategory handles retrieving a category.
// @Summary     Get category by ID
// @Description Get a category with its spent total
// @Tags        budget-categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} CategoryResponse "Category"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
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

	category, err := h.categoryService.GetCategoryByID(c.Request.Context(), p, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp, err := h.present(c.Request.Context(), category)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget_category": resp})
}

// UpdateCategory handles updating a category.
// @Summary     Update category
// @Description Rename, re-limit or move a category. Missing fields keep their current value.
// @Tags        budget-categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Category ID"
// @Param       request body UpdateCategoryRequest true "Fields to change"
// @Success     200 {object} CategoryResponse "Updated category"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category already exists in the budget"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
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

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	input := services.CategoryUpdate{
		BudgetYear: req.BudgetYear,
		Category:   req.Category,
		Group:      req.Group,
		Limit:      req.Limit,
	}
	if req.BudgetMonth != nil {
		month, _ := models.ParseMonth(*req.BudgetMonth)
		input.BudgetMonth = &month
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), p, id, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "UPDATE_CATEGORY", "budget_category", category.ID, c.ClientIP(),
		map[string]interface{}{"category": category.Category, "limit": models.FormatMoney(category.Limit)})

	resp, err := h.present(c.Request.Context(), category)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget_category": resp})
}

// DeleteCategory handles deleting a category.
// @Summary     Delete category
// @Description Delete a category and its transactions
// @Tags        budget-categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} MessageResponse "Category deleted"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
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

	if err := h.categoryService.DeleteCategory(c.Request.Context(), p, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "DELETE_CATEGORY", "budget_category", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Category deleted successfully"})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetapp/internal/services"
)

// GroupHandler handles category-group requests.
type GroupHandler struct {
	groupService services.GroupServicer
	auditService services.AuditServicer
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService services.GroupServicer, auditService services.AuditServicer) *GroupHandler {
	return &GroupHandler{groupService: groupService, auditService: auditService}
}

// CreateGroupRequest represents the request payload for creating a category group.
type CreateGroupRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=100"`
	Budget string `json:"budget" binding:"required,uuid"`
}

// UpdateGroupRequest represents the request payload for updating a category group.
type UpdateGroupRequest struct {
	Name   *string `json:"name" binding:"omitempty,min=1,max=100"`
	Budget *string `json:"budget" binding:"omitempty,uuid"`
}

// CreateGroup handles the creation of a category group.
// @Summary     Create a category group
// @Description Create a named group in a budget
// @Tags        budget-category-groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGroupRequest true "Group details"
// @Success     201 {object} GroupResponse "Group created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Group already exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-category-groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), p, req.Budget, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "CREATE_GROUP", "budget_category_group", group.ID, c.ClientIP(),
		map[string]interface{}{"name": group.Name, "budget": group.BudgetID})

	c.JSON(http.StatusCreated, gin.H{"budget_category_group": newGroupResponse(group)})
}

// GetGroups handles listing category groups.
// @Summary     Get category groups
// @Description Get a paginated list of category groups, keyed by name. Filter by budget to avoid name collisions.
// @Tags        budget-category-groups
// @Produce     json
// @Security    BearerAuth
// @Param       budget    query string false "Filter by budget ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[GroupResponse] "Paginated groups"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-category-groups [get]
func (h *GroupHandler) GetGroups(c *gin.Context) {
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
	budgetID, err := parseOptionalID(c, "budget")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.groupService.ListGroups(c.Request.Context(), p, page, services.GroupFilter{BudgetID: budgetID})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapPage(result, newGroupResponse))
}

// GetGroup handles retrieving a category group.
// @Summary     Get category group by ID
// @Description Get a category group with the ids of its categories
// @Tags        budget-category-groups
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Success     200 {object} GroupResponse "Group"
// @Failure     400 {object} ErrorResponse "Invalid group ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-category-groups/{id} [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
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

	group, err := h.groupService.GetGroupByID(c.Request.Context(), p, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget_category_group": newGroupResponse(group)})
}

// UpdateGroup handles renaming or moving a category group.
// @Summary     Update category group
// @Description Rename a group or move it, with its categories, to another budget
// @Tags        budget-category-groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Group ID"
// @Param       request body UpdateGroupRequest true "Fields to change"
// @Success     200 {object} GroupResponse "Updated group"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Group or budget not found"
// @Failure     409 {object} ErrorResponse "Name already used"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-category-groups/{id} [put]
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
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

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	group, err := h.groupService.UpdateGroup(c.Request.Context(), p, id, req.Name, req.Budget)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "UPDATE_GROUP", "budget_category_group", group.ID, c.ClientIP(),
		map[string]interface{}{"name": group.Name, "budget": group.BudgetID})

	c.JSON(http.StatusOK, gin.H{"budget_category_group": newGroupResponse(group)})
}

// DeleteGroup handles deleting a category group.
// @Summary     Delete category group
// @Description Delete a group with its categories and their transactions
// @Tags        budget-category-groups
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Success     200 {object} MessageResponse "Group deleted"
// @Failure     400 {object} ErrorResponse "Invalid group ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget-category-groups/{id} [delete]
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
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

	if err := h.groupService.DeleteGroup(c.Request.Context(), p, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "DELETE_GROUP", "budget_category_group", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Category group deleted successfully"})
}

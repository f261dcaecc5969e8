package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetapp/internal/services"
)

// UserHandler handles user administration requests.
type UserHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer, auditService services.AuditServicer) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// UpdateUserRequest represents the request payload for updating a user.
type UpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=1,max=150"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,min=8,max=128"`
}

// ListUsers handles listing every user. Admin only.
// @Summary     List users
// @Description Get a paginated list of users, keyed by id. Admin only.
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[UserResponse] "Paginated users"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
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

	result, err := h.userService.ListUsers(c.Request.Context(), p, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapPage(result, newUserResponse))
}

// GetUser handles retrieving a user.
// @Summary     Get user by ID
// @Description Get a user. Regular users can only see themselves.
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} UserResponse "User"
// @Failure     400 {object} ErrorResponse "Invalid user ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
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

	user, err := h.userService.GetUserByID(c.Request.Context(), p, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// UpdateUser handles updating a user.
// @Summary     Update user
// @Description Change a user's username, email or password
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "User ID"
// @Param       request body UpdateUserRequest true "Fields to change"
// @Success     200 {object} UserResponse "Updated user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     409 {object} ErrorResponse "Username taken"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
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

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), p, id, services.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "UPDATE_USER", "user", user.ID, c.ClientIP(),
		map[string]interface{}{"username": req.Username != nil, "email": req.Email != nil, "password": req.Password != nil})

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// DeleteUser handles deleting a user and everything it owns.
// @Summary     Delete user
// @Description Delete a user with all of its budgets and payees
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} MessageResponse "User deleted"
// @Failure     400 {object} ErrorResponse "Invalid user ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
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

	if err := h.userService.DeleteUser(c.Request.Context(), p, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "DELETE_USER", "user", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetapp/internal/services"
)

// PayeeHandler handles payee requests.
type PayeeHandler struct {
	payeeService services.PayeeServicer
	auditService services.AuditServicer
}

// NewPayeeHandler creates a new PayeeHandler.
func NewPayeeHandler(payeeService services.PayeeServicer, auditService services.AuditServicer) *PayeeHandler {
	return &PayeeHandler{payeeService: payeeService, auditService: auditService}
}

// PayeeRequest represents the request payload for creating or renaming a payee.
type PayeeRequest struct {
	Name string `json:"name" binding:"required,min=1,max=30"`
}

// CreatePayee handles the creation of a payee.
// @Summary     Create a payee
// @Tags        payees
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body PayeeRequest true "Payee name"
// @Success     201 {object} PayeeResponse "Payee created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Payee already exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payees [post]
func (h *PayeeHandler) CreatePayee(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PayeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	payee, err := h.payeeService.CreatePayee(c.Request.Context(), p, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "CREATE_PAYEE", "payee", payee.ID, c.ClientIP(),
		map[string]interface{}{"name": payee.Name})

	c.JSON(http.StatusCreated, gin.H{"payee": newPayeeResponse(payee)})
}

// GetPayees handles listing payees.
// @Summary     Get payees
// @Description Get a paginated list of payees, keyed by id
// @Tags        payees
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[PayeeResponse] "Paginated payees"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payees [get]
func (h *PayeeHandler) GetPayees(c *gin.Context) {
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

	result, err := h.payeeService.ListPayees(c.Request.Context(), p, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapPage(result, newPayeeResponse))
}

// GetPayee handles retrieving a payee.
// @Summary     Get payee by ID
// @Tags        payees
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Payee ID"
// @Success     200 {object} PayeeResponse "Payee"
// @Failure     400 {object} ErrorResponse "Invalid payee ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Payee not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payees/{id} [get]
func (h *PayeeHandler) GetPayee(c *gin.Context) {
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

	payee, err := h.payeeService.GetPayeeByID(c.Request.Context(), p, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payee": newPayeeResponse(payee)})
}

// UpdatePayee handles renaming a payee.
// @Summary     Rename payee
// @Tags        payees
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string       true "Payee ID"
// @Param       request body PayeeRequest true "New name"
// @Success     200 {object} PayeeResponse "Updated payee"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Payee not found"
// @Failure     409 {object} ErrorResponse "Name already used"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payees/{id} [put]
func (h *PayeeHandler) UpdatePayee(c *gin.Context) {
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

	var req PayeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	payee, err := h.payeeService.UpdatePayee(c.Request.Context(), p, id, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "UPDATE_PAYEE", "payee", payee.ID, c.ClientIP(),
		map[string]interface{}{"name": payee.Name})

	c.JSON(http.StatusOK, gin.H{"payee": newPayeeResponse(payee)})
}

// DeletePayee handles deleting a payee.
// @Summary     Delete payee
// @Description Delete a payee and every transaction paid to it
// @Tags        payees
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Payee ID"
// @Success     200 {object} MessageResponse "Payee deleted"
// @Failure     400 {object} ErrorResponse "Invalid payee ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Payee not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payees/{id} [delete]
func (h *PayeeHandler) DeletePayee(c *gin.Context) {
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

	if err := h.payeeService.DeletePayee(c.Request.Context(), p, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(p.UserID, "DELETE_PAYEE", "payee", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Payee deleted successfully"})
}

package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"budgetapp/internal/access"
	apperrors "budgetapp/internal/errors"
	"budgetapp/internal/logger"
	"budgetapp/internal/middleware"
	"budgetapp/internal/models"
	"budgetapp/internal/pagination"
	"budgetapp/internal/uuid"
	"budgetapp/internal/validator"
)

// getPrincipal returns the authenticated caller from the Gin context.
// Returns ErrUnauthorized if not present.
func getPrincipal(c *gin.Context) (access.Principal, error) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return access.Principal{}, apperrors.ErrUnauthorized
	}
	return p, nil
}

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithField(apperrors.ErrInvalidInput, param, "Invalid "+param)
	}
	return id, nil
}

// parseOptionalID reads an optional UUID query parameter.
func parseOptionalID(c *gin.Context, param string) (string, error) {
	v := c.Query(param)
	if v == "" {
		return "", nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return "", apperrors.WithField(apperrors.ErrInvalidInput, param, "Invalid "+param)
	}
	return id, nil
}

// bindingError converts a gin binding error into INVALID_INPUT naming the
// offending field when it is known.
func bindingError(err error) *apperrors.AppError {
	if field := validator.FirstInvalidField(err); field != "" {
		return apperrors.WithField(apperrors.ErrInvalidInput, field, err.Error())
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// bindPage parses page and page_size from the query string.
func bindPage(c *gin.Context) (pagination.PageRequest, error) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		return page, bindingError(err)
	}
	page.Defaults()
	return page, nil
}

// parseMonthParam parses an optional month code query parameter.
func parseMonthParam(c *gin.Context, param string) (*models.Month, error) {
	v := c.Query(param)
	if v == "" {
		return nil, nil
	}
	m, ok := models.ParseMonth(v)
	if !ok {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, param, param+" must be one of JAN..DEC")
	}
	return &m, nil
}

// parseIntParam parses an optional integer query parameter.
func parseIntParam(c *gin.Context, param string) (*int, error) {
	v := c.Query(param)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, param, param+" must be an integer")
	}
	return &n, nil
}

// dateLayouts lists the accepted date formats, most specific first.
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseFlexibleTime accepts a full timestamp or a plain date.
func parseFlexibleTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("expected a date (2006-01-02) or RFC 3339 timestamp")
}

// parseTimeParam parses an optional date query parameter.
func parseTimeParam(c *gin.Context, param string) (*time.Time, error) {
	v := c.Query(param)
	if v == "" {
		return nil, nil
	}
	t, err := parseFlexibleTime(v)
	if err != nil {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, param, err.Error())
	}
	return &t, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, message and field. Otherwise
// it logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{"error": errorDetail(appErr)})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{"error": errorDetail(apperrors.ErrInternalServer)})
}

func errorDetail(appErr *apperrors.AppError) ErrorDetail {
	return ErrorDetail{Code: appErr.Code, Message: appErr.Message, Field: appErr.Field}
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

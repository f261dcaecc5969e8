package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"budgetapp/internal/config"
	apperrors "budgetapp/internal/errors"
	"budgetapp/internal/logger"
	"budgetapp/internal/middleware"
	"budgetapp/internal/models"
	"budgetapp/internal/services"
	"budgetapp/internal/tokens"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
	denylist     tokens.Denylist
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, auditService services.AuditServicer, denylist tokens.Denylist) *AuthHandler {
	return &AuthHandler{userService: userService, auditService: auditService, denylist: denylist}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=1,max=150"`
	Email    string `json:"email" binding:"omitempty,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// TokenRequest represents the credential exchange payload
type TokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// issueToken signs a token for user, sets the auth cookie and writes the response.
func (h *AuthHandler) issueToken(c *gin.Context, status int, user *models.User) {
	token, claims, err := middleware.GenerateToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	cfg := config.Get()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, token, int(cfg.JWTExpirationDur/time.Second), "/", "", cfg.CookieSecure, true)

	c.JSON(status, AuthResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      newUserResponse(user),
	})
}

// Register handles user registration
// @Summary     Register a new user
// @Description Register a new user and sign them in
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} AuthResponse "User registered and token generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Username taken"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "REGISTER", "user", user.ID, c.ClientIP(),
		map[string]interface{}{"username": user.Username})

	h.issueToken(c, http.StatusCreated, user)
}

// Token handles the credential exchange
// @Summary     Obtain a token
// @Description Exchange username and password for a token. The token is also set as an HTTP-only cookie.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body TokenRequest true "User credentials"
// @Success     200 {object} AuthResponse "Token issued"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "LOGIN", "user", user.ID, c.ClientIP(), nil)

	h.issueToken(c, http.StatusOK, user)
}

// Logout expires the auth cookie and revokes the presented token
// @Summary     Log out
// @Description Expire the auth cookie. A valid token sent with the request is revoked until it expires.
// @Tags        auth
// @Produce     json
// @Success     200 {object} MessageResponse "Logged out"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	cfg := config.Get()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.CookieSecure, true)

	if raw := middleware.ExtractToken(c); raw != "" {
		if claims, err := middleware.ParseToken(raw); err == nil && claims.ExpiresAt != nil {
			if err := h.denylist.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
				// The cookie is already expired; only the bearer token stays usable.
				logger.Get().Errorw("token revocation failed", "error", err, "user_id", claims.UserID)
				respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
				return
			}
			h.auditService.Log(claims.UserID, "LOGOUT", "user", claims.UserID, c.ClientIP(), nil)
		} else if err != nil {
			logger.Get().Debugw("logout with unusable token", "error", err)
		}
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}

// UserInfo returns the caller's user
// @Summary     Current user
// @Description Get the authenticated user's information
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} UserResponse "User"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /user-info [get]
func (h *AuthHandler) UserInfo(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), p, p.UserID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"budgetapp/internal/access"
	"budgetapp/internal/config"
	apperrors "budgetapp/internal/errors"
	"budgetapp/internal/logger"
	"budgetapp/internal/models"
	"budgetapp/internal/tokens"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID    = "userID"
	ContextUsername  = "username"
	ContextIsAdmin   = "isAdmin"
	ContextPrincipal = "principal"
	ContextClaims    = "claims"
)

const tokenIssuer = "budgetapp-api"

// getJWTKey returns the JWT key from configuration
func getJWTKey() []byte {
	return []byte(config.Get().JWTSecret)
}

// JWTClaims represents the claims in the JWT. RegisteredClaims.ID carries
// the token id used for revocation.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for user, valid for the configured duration.
func GenerateToken(user *models.User) (string, *JWTClaims, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.Get().JWTExpirationDur)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(getJWTKey())
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ParseToken validates a signed token and returns its claims.
func ParseToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getJWTKey(), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ExtractToken returns the raw token from "Authorization: Bearer <t>",
// "Authorization: Token <t>" or the auth cookie, in that order.
func ExtractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Fields(authHeader)
		if len(parts) == 2 {
			switch strings.ToLower(parts[0]) {
			case "bearer", "token":
				return parts[1]
			}
		}
		return ""
	}
	if cookie, err := c.Cookie(config.Get().CookieName); err == nil {
		return cookie
	}
	return ""
}

func abortWithError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{"code": appErr.Code, "message": appErr.Message},
	})
}

// AuthMiddleware verifies the token, rejects revoked ones and sets the
// caller's principal in the context.
func AuthMiddleware(denylist tokens.Denylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		claims, err := ParseToken(tokenString)
		if err != nil {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired token"))
			return
		}

		revoked, err := denylist.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			logger.Get().Errorw("revocation check failed", "error", err, "user_id", claims.UserID)
			abortWithError(c, apperrors.ErrInternalServer)
			return
		}
		if revoked {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Token has been revoked"))
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextIsAdmin, claims.IsAdmin)
		c.Set(ContextClaims, claims)
		c.Set(ContextPrincipal, access.Principal{UserID: claims.UserID, IsAdmin: claims.IsAdmin})
		c.Next()
	}
}

// GetPrincipal returns the caller set by AuthMiddleware.
func GetPrincipal(c *gin.Context) (access.Principal, bool) {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return access.Principal{}, false
	}
	p, ok := v.(access.Principal)
	return p, ok && !p.Anonymous()
}

// RequireAdmin rejects callers without the admin flag. Must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}
		if !p.IsAdmin {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrForbidden, "Admin access required"))
			return
		}
		c.Next()
	}
}

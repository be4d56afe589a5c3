package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shareit/service-booking/pkg/auth"
)

// UserIDHeader is set by the gateway with the authenticated user id.
const UserIDHeader = "X-Sharer-User-Id"

const (
	userIDKey   = "user_id"
	userRoleKey = "user_role"
)

// AuthMiddleware resolves the caller identity.
// With a JWT manager a Bearer token is required; without one the gateway header is trusted.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtManager == nil {
			raw := c.GetHeader(UserIDHeader)
			userID, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid " + UserIDHeader + " header"})
				return
			}
			c.Set(userIDKey, userID)
			c.Set(userRoleKey, auth.RoleUser)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		userID, claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(userIDKey, userID)
		c.Set(userRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole rejects callers whose role differs from role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if got, _ := GetUserRole(c); got != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// GetUserID returns the caller id set by AuthMiddleware.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// GetUserRole returns the caller role set by AuthMiddleware.
func GetUserRole(c *gin.Context) (string, bool) {
	v, ok := c.Get(userRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}

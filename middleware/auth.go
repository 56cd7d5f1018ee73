// middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"campusbook/models"
	"campusbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware turns the bearer token into an explicit models.AuthContext
// stored on the request. The token itself is forwarded to the backend unchanged.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		claims, err := utils.ExtractClaims(tokenString)
		if err != nil {
			utils.GetLogger().Debug("rejecting bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		role := models.Role(claims.Role)
		switch role {
		case models.RoleAdmin, models.RoleStaff, models.RoleStudent:
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Token carries no booking role"})
			return
		}

		c.Set(utils.AuthContextKey, models.AuthContext{
			UserID:    claims.Subject,
			Email:     claims.Email,
			Role:      role,
			AuthToken: tokenString,
		})
		c.Next()
	}
}

// GetAuthContext returns the caller identity set by AuthMiddleware.
func GetAuthContext(c *gin.Context) (models.AuthContext, bool) {
	v, exists := c.Get(utils.AuthContextKey)
	if !exists {
		return models.AuthContext{}, false
	}
	auth, ok := v.(models.AuthContext)
	return auth, ok
}

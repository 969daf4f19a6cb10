// auth_middleware.go
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"water-delivery-backend/internal/model"
	"water-delivery-backend/internal/service"
)

// AuthMiddleware verifies the bearer token and stores the resolved
// principal in the gin context for the handlers.
func AuthMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Token gerekli."})
			c.Abort()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		user, err := auth.Authenticate(c.Request.Context(), token)
		if errors.Is(err, service.ErrUnknownTokenUser) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Token kullanicisi bulunamadi."})
			c.Abort()
			return
		}
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Gecersiz veya suresi dolmus token."})
			c.Abort()
			return
		}

		role := user.Role
		if role == "" {
			role = model.RoleUser
		}
		c.Set("userID", user.UserID)
		c.Set("userRole", role)
		c.Next()
	}
}

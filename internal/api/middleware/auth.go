// internal/api/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cattle-certification-api-server/internal/auth"
	"cattle-certification-api-server/internal/models"
)

// Các key lưu thông tin user trong gin.Context
const (
	KeyUserID    = "user_id"
	KeyUserRole  = "user_role"
	KeyProfileID = "user_profile_id"
)

// Principal là user đã xác thực của request hiện tại.
type Principal struct {
	UserID    string
	Role      models.Role
	ProfileID string
}

// Authenticate là middleware xác thực token JWT.
// Nó kiểm tra tính hợp lệ của token và đưa thông tin user vào context.
func Authenticate(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// Lưu thông tin user vào context của request
		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyUserRole, string(claims.Role))
		c.Set(KeyProfileID, claims.ProfileID)

		c.Next()
	}
}

// Authorize là một middleware factory để kiểm tra vai trò của người dùng.
func Authorize(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(KeyUserRole)
		if userRole == "" {
			// Lỗi này không nên xảy ra nếu Authenticate được gọi trước
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "User role not found in context"})
			return
		}

		for _, role := range allowedRoles {
			if string(role) == userRole {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
	}
}

// CurrentPrincipal đọc user đã được Authenticate đặt vào context.
func CurrentPrincipal(c *gin.Context) Principal {
	return Principal{
		UserID:    c.GetString(KeyUserID),
		Role:      models.Role(c.GetString(KeyUserRole)),
		ProfileID: c.GetString(KeyProfileID),
	}
}

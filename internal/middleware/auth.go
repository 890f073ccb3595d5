package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/surerank/core/internal/models"
	"github.com/surerank/core/internal/pkg/jwt"
	"github.com/surerank/core/internal/pkg/response"
	"gorm.io/gorm"
)

const ContextKeyUserID = "user_id"

// Auth returns a middleware that enforces JWT authentication for an
// administrator account.
func Auth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := ValidateToken(db, extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// ValidateToken validates a JWT and returns the authenticated user id. The
// user must still exist and hold the administrator role.
func ValidateToken(db *gorm.DB, rawToken string) (string, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return "", errors.New("token is required")
	}

	claims, err := jwt.Parse(token)
	if err != nil {
		return "", err
	}

	var user models.UserModel
	if err := db.Select("id, role").Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		return "", errors.New("unknown user")
	}
	if user.Role != models.RoleAdministrator {
		return "", errors.New("administrator role required")
	}
	return user.ID, nil
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if header != "" {
		return header
	}
	return c.Query("token")
}

package middleware

import (
	"net/http"

	"incorpo/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired checks that the authenticated user has the ADMIN role.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// IsAdmin reports whether the authenticated caller is an admin.
func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == domain.RoleAdmin
}

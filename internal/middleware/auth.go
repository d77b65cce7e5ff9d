package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
)

// RequireAuth rejects requests from sessions without a signed-in user.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := CurrentSession(c)
		if s == nil || !s.Auth.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "redirect": "/login"})
			return
		}
		c.Next()
	}
}

// AdminOnly lets through signed-in users with the admin flag.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "redirect": "/login"})
			return
		}
		if !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	s := CurrentSession(c)
	if s == nil {
		return models.User{}, false
	}
	return s.Auth.CurrentUser()
}

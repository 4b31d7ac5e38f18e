package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAuth rejects requests without an authenticated session by
// redirecting to the login page. On success the user identity is placed
// in the gin context for handlers downstream.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, userID)
		if username, ok := CurrentUsername(c); ok {
			c.Set(ContextKeyUsername, username)
		}
		c.Next()
	}
}

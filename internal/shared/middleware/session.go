package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"catalog-sync-backend/internal/shared/response"
)

const SessionCookie = "session_token"

// SessionToken extracts the session token from the cookie or, as a
// fallback, a bearer Authorization header.
func SessionToken(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}

	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	return ""
}

// SessionAuth guards operator endpoints behind a valid session.
func SessionAuth(validate func(c *gin.Context, token string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c)
		if token == "" {
			response.Unauthorized(c, "missing session token")
			c.Abort()
			return
		}

		if err := validate(c, token); err != nil {
			response.Unauthorized(c, "invalid or expired session")
			c.Abort()
			return
		}

		c.Next()
	}
}

package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/gym-billing-system/shared/utils"
)

// RequireAPIKey guards operator routes with a static key sent in X-API-Key.
// An empty key disables the routes entirely.
func RequireAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			utils.ForbiddenResponse(c, "Admin API disabled")
			c.Abort()
			return
		}
		got := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			utils.UnauthorizedResponse(c, "Invalid API key")
			c.Abort()
			return
		}
		c.Next()
	}
}

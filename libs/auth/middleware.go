package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const ContextOperatorKey = "console_operator"

// Middleware guards the local console with a static access token. An empty token
// leaves the console open, which is the default for loopback binds.
func Middleware(accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if accessToken == "" {
			c.Next()
			return
		}

		token := ExtractBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "missing token"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(accessToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "invalid token"})
			return
		}

		c.Set(ContextOperatorKey, true)
		c.Next()
	}
}

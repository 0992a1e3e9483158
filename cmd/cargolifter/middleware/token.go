package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lgulliver/cargolifter/pkg/utils"
)

const tokenKey = "token"

// RequireToken rejects requests without an Authorization header. The
// credential is not validated here; it is forwarded to the forge as is.
func RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := utils.StripBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"errors": []gin.H{{"detail": "missing Authorization header"}},
			})
			return
		}

		c.Set(tokenKey, token)
		c.Next()
	}
}

// Token returns the credential stored by RequireToken
func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}

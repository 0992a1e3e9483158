package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lgulliver/cargolifter/pkg/types"
)

// ValidCrate rejects requests whose :name or :version path parameters are
// not a legal crate name or version, before they reach the index or storage
func ValidCrate() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := types.ValidateCrateName(c.Param("name"))
		if vers, ok := c.Params.Get("version"); ok && err == nil {
			err = types.ValidateCrateVersion(vers)
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"errors": []gin.H{{"detail": err.Error()}},
			})
			return
		}

		c.Next()
	}
}

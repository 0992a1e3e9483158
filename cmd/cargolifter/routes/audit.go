package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lgulliver/cargolifter/cmd/cargolifter/middleware"
	"github.com/rs/zerolog/log"
)

const (
	defaultOperationLimit = 20
	maxOperationLimit     = 100
)

// AuditRoutes exposes the recorded operations of a crate
func AuditRoutes(api *gin.RouterGroup, operations OperationLog) {
	api.GET("/operations/:name", middleware.RequireToken(), middleware.ValidCrate(), handleOperations(operations))
}

func handleOperations(operations OperationLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")

		limit := defaultOperationLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				cargoError(c, http.StatusBadRequest, "invalid limit: "+raw)
				return
			}
			limit = min(n, maxOperationLimit)
		}

		ops, err := operations.List(c.Request.Context(), name, limit)
		if err != nil {
			log.Error().Err(err).Str("crate", name).Msg("Failed to list operations")
			cargoError(c, http.StatusInternalServerError, "failed to list operations for "+name)
			return
		}

		c.JSON(http.StatusOK, gin.H{"operations": ops})
	}
}

package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lgulliver/cargolifter/cmd/cargolifter/middleware"
	"github.com/lgulliver/cargolifter/pkg/types"
	"github.com/rs/zerolog/log"
)

// CargoRoutes sets up the Cargo registry web API
func CargoRoutes(api *gin.RouterGroup, index IndexService, crates CrateStorage) {
	api.PUT("/crates/new", middleware.RequireToken(), handlePublish(index, crates))
	api.DELETE("/crates/:name/:version/yank", middleware.RequireToken(), middleware.ValidCrate(), handleYank(index, true))
	api.PUT("/crates/:name/:version/unyank", middleware.RequireToken(), middleware.ValidCrate(), handleYank(index, false))
	api.GET("/crates/:name/:version/published", middleware.RequireToken(), middleware.ValidCrate(), handlePublished(index))
	api.GET("/crates/:name/:version/download", middleware.ValidCrate(), handleDownload(crates))
}

// cargoError writes the error shape cargo displays to its user
func cargoError(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"errors": []gin.H{{"detail": detail}}})
}

func handlePublish(index IndexService, crates CrateStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := ParsePublishRequest(c.Request.Body)
		if err != nil {
			log.Warn().Err(err).Msg("Invalid publish request")
			cargoError(c, http.StatusBadRequest, err.Error())
			return
		}
		if err := req.Meta.Validate(); err != nil {
			cargoError(c, http.StatusBadRequest, err.Error())
			return
		}

		ctx := c.Request.Context()
		name, vers := req.Meta.Name, req.Meta.Vers

		if !index.Publish(ctx, middleware.Token(c), req) {
			cargoError(c, http.StatusInternalServerError, "failed to publish "+name+" "+vers)
			return
		}
		if !crates.Put(ctx, name, vers, req.Data) {
			cargoError(c, http.StatusInternalServerError, "failed to store "+name+" "+vers)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"warnings": gin.H{
				"invalid_categories": []string{},
				"invalid_badges":     []string{},
				"other":              []string{},
			},
		})
	}
}

func handleYank(index IndexService, yank bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := &types.YankRequest{
			Name: c.Param("name"),
			Vers: c.Param("version"),
			Yank: yank,
		}

		if !index.Yank(c.Request.Context(), middleware.Token(c), req) {
			action := "unyank"
			if yank {
				action = "yank"
			}
			cargoError(c, http.StatusInternalServerError, "failed to "+action+" "+req.Name+" "+req.Vers)
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func handlePublished(index IndexService) gin.HandlerFunc {
	return func(c *gin.Context) {
		published := index.IsVersionPublished(c.Request.Context(), middleware.Token(c), c.Param("name"), c.Param("version"))
		c.JSON(http.StatusOK, gin.H{"published": published})
	}
}

func handleDownload(crates CrateStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, vers := c.Param("name"), c.Param("version")

		data := crates.Get(c.Request.Context(), name, vers)
		if data == nil {
			cargoError(c, http.StatusNotFound, "crate "+name+" "+vers+" not found")
			return
		}

		c.Header("Content-Disposition", "attachment; filename=\""+name+"-"+vers+".crate\"")
		c.Data(http.StatusOK, "application/gzip", data)
	}
}

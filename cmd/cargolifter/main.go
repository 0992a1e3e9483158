package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lgulliver/cargolifter/cmd/cargolifter/routes"
	"github.com/lgulliver/cargolifter/internal/audit"
	"github.com/lgulliver/cargolifter/internal/common"
	"github.com/lgulliver/cargolifter/internal/forge"
	"github.com/lgulliver/cargolifter/internal/registry"
	"github.com/lgulliver/cargolifter/internal/storage"
	"github.com/lgulliver/cargolifter/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML configuration file")
	pflag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg.Logging.SetupLogging()
	log.Info().Str("backend", cfg.Backend.Type).Str("storage", cfg.Storage.Type).Msg("Starting cargolifter")

	backend, err := forge.NewBackend(cfg.Backend)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure backend")
	}

	var opts []registry.Option
	var operations routes.OperationLog

	if cfg.Database.Driver != "" {
		db, err := common.NewDatabase(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		store := audit.NewStore(db.DB)
		opts = append(opts, registry.WithRecorder(store))
		operations = store
	}

	if cfg.Redis.Enabled {
		cache, err := common.NewCache(&cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer cache.Close()
		opts = append(opts, registry.WithCache(cache))
	}

	blobStorage, err := storage.NewStorageFactory(&cfg.Storage).CreateStorage(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	commands := registry.NewService(
		registry.NewIndex(backend, forge.Credentials{MergeToken: cfg.Backend.MergeToken}),
		opts...,
	)
	crates := storage.NewService(storage.NewBlobCrateStore(blobStorage))

	// the actors outlive the HTTP server so in-flight requests get their replies
	actorCtx, stopActors := context.WithCancel(context.Background())
	defer stopActors()
	go commands.Run(actorCtx)
	go crates.Run(actorCtx)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      setupRouter(commands, crates, operations),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	} else {
		log.Info().Msg("Server shutdown complete")
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv(), nil
	}
	return config.LoadFromFile(path)
}

// setupRouter builds the HTTP API. The operations routes are only mounted
// when an audit trail is configured.
func setupRouter(index routes.IndexService, crates routes.CrateStorage, operations routes.OperationLog) *gin.Engine {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "cargolifter",
			"time":    time.Now().UTC(),
		})
	})

	api := router.Group("/api/v1")
	routes.CargoRoutes(api, index, crates)
	if operations != nil {
		routes.AuditRoutes(api, operations)
	}

	return router
}

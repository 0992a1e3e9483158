package main

import (
	"fmt"
	"os"

	"github.com/lgulliver/cargolifter/internal/common"
	"github.com/lgulliver/cargolifter/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML configuration file")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-c config.yaml]\n\nCreates or updates the audit tables.\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	cfg := config.LoadFromEnv()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	cfg.Logging.SetupLogging()

	if cfg.Database.Driver == "" {
		log.Fatal().Msg("DB_DRIVER is not set, nothing to migrate")
	}

	db, err := common.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("Migrations completed successfully")
}

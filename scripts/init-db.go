package main

import (
	"os"

	"order_scheduler/internal/config"
	"order_scheduler/internal/database"
	"order_scheduler/internal/migrations"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Standalone schema/seed initializer: go run ./scripts
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := migrations.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	log.Info().Msg("database initialized")
}

// @title Budayana API
// @version 1.0
// @description Attempt and progress server for the Budayana cultural literacy game.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"

	"budayana_backend/internal/app"
	"budayana_backend/internal/config"
	"budayana_backend/pkg/configwatcher"
	"budayana_backend/pkg/database"
	"budayana_backend/pkg/logger"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migration and exit")
	migrate := flag.Bool("migrate", false, "force migration on startup even in release mode")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	if cfg.MigrateOnly {
		// Migrate and seed without booting the server, redis, or tracing.
		if _, err := database.InitDB(&cfg.Database, true); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migration complete, exiting")
		return
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	go configwatcher.WatchConfig("configs/config.yaml", application.ApplyConfig)

	application.Run()
}

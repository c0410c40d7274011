package main

import (
	"flag"
	"log"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/johnquangdev/shot-analyzer/internal/infrastructure/database"
	"github.com/johnquangdev/shot-analyzer/pkg/config"
	"github.com/johnquangdev/shot-analyzer/pkg/logger"
)

func main() {
	dir := flag.String("dir", database.MigrationsDir, "migrations directory")
	down := flag.Bool("down", false, "roll back every migration")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewPostgresDB(cfg, zapLogger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	direction := migrate.Up
	if *down {
		direction = migrate.Down
	}

	if _, err := database.Migrate(db, *dir, direction, zapLogger); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
}

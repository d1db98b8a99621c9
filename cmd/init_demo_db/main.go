package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"travelcrm/db"
)

func main() {
	// Initialize a local SQLite demo database without external dependencies:
	// the schema plus the seed administrator.
	dbPath := "travelcrm.db"

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := db.DefaultConfig()
	cfg.Driver = db.DriverSQLite
	cfg.DatabaseURL = dbPath

	res, err := db.Run(context.Background(), cfg, logger.Sugar())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	log.Printf("Demo database initialized successfully at %s", dbPath)
	log.Printf("Applied migrations: %v, administrator created: %t", res.Applied, res.AdminSeeded)
}

// migrate_gorm.go - Run this file to test GORM migrations
// Usage: go run migrate_gorm.go

//go:build ignore

package main

import (
	"context"
	"log"
	"time"

	"github.com/sahilchouksey/codelearn-api/config"
	"github.com/sahilchouksey/codelearn-api/database"
	applog "github.com/sahilchouksey/codelearn-api/utils/logger"
	"gorm.io/gorm"
)

func main() {
	log.Println("=== GORM Migration Test ===")

	// Load environment variables
	if err := config.LoadENV(); err != nil {
		log.Println("No .env file loaded:", err)
	}

	l, err := applog.New("development")
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	applog.SetDefault(l)

	// Initialize GORM connection
	store, err := database.StartGORM()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer store.Close()

	// Run migrations
	if err := store.Init(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Health check
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.HealthCheck(ctx); err != nil {
		log.Fatal("Database health check failed:", err)
	}

	log.Println("All migrations completed successfully")
	log.Println("Tables:")
	db := store.GetDB()
	for _, m := range database.Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			log.Println("  - (unparsed)", err)
			continue
		}
		log.Println("  -", stmt.Schema.Table)
	}
}

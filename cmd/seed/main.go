package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sahilchouksey/codelearn-api/database"
	applog "github.com/sahilchouksey/codelearn-api/utils/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	l, err := applog.New("development")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	applog.SetDefault(l)
	defer l.Sync()

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("CodeLearn - Database Seeding")
	fmt.Println(separator)

	if err := database.RunSeeds(store.GetDB()); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	fmt.Println(separator)
	fmt.Println("Seeding completed successfully!")
	fmt.Println("Admin user is created from ADMIN_EMAIL and ADMIN_PASSWORD when both are set.")
	fmt.Println(separator)
}

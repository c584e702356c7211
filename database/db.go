package database

import (
	"fmt"
	"log"
	"os"

	"touroperator-backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect opens the shared connection pool. Credentials come from the
// environment (config.Load has already pulled in .env when present).
func Connect() {
	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "db"
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		host, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"), port)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}
}

// AutoMigrate applies the public-schema tables (tenant registry and users).
func AutoMigrate() {
	if err := DB.AutoMigrate(&models.OperatorContact{}, &models.Agency{}, &models.User{}); err != nil {
		log.Fatalf("public automigrate failed: %v", err)
	}
}

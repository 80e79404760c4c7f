package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIRONMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnvironmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	APP_URL      string
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// Email Configuration
	SMTP_HOST        string
	SMTP_PORT        string
	SMTP_USERNAME    string
	SMTP_PASSWORD    string
	EMAIL_FROM       string
	SENDGRID_API_KEY string
	EMAIL_TIMEOUT    time.Duration
	ADMIN_EMAILS     []string
	// Razorpay Configuration
	RAZORPAY_KEY_ID     string
	RAZORPAY_KEY_SECRET string
	RAZORPAY_BASE_URL   string
	// Storage Configuration
	STORAGE_DRIVER        string // local, spaces
	STORAGE_LOCAL_DIR     string
	DO_SPACES_ACCESS_KEY  string
	DO_SPACES_SECRET_KEY  string
	DO_SPACES_BUCKET      string
	DO_SPACES_REGION      string
	DO_SPACES_ENDPOINT    string
	ENCRYPTION_MASTER_KEY string
	// Events
	KAFKA_BROKERS []string
	KAFKA_TOPIC   string
	// Misc
	CRON_ENABLED    bool
	METRICS_ENABLED bool
	ALLOWED_ORIGINS string
}

func Get() (*EnvironmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	emailTimeout, err := time.ParseDuration(os.Getenv("EMAIL_TIMEOUT"))
	if err != nil || emailTimeout <= 0 {
		emailTimeout = 15 * time.Second
	}

	envVariables := &EnvironmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		APP_URL:      getOrDefault("APP_URL", "http://localhost:3000"),
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getOrDefault("JWT_ISSUER", "codelearn-api"),
		// Redis
		REDIS_URL: getOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		// Email
		SMTP_HOST:        os.Getenv("SMTP_HOST"),
		SMTP_PORT:        getOrDefault("SMTP_PORT", "587"),
		SMTP_USERNAME:    os.Getenv("SMTP_USERNAME"),
		SMTP_PASSWORD:    os.Getenv("SMTP_PASSWORD"),
		EMAIL_FROM:       getOrDefault("EMAIL_FROM", "no-reply@codelearn.local"),
		SENDGRID_API_KEY: os.Getenv("SENDGRID_API_KEY"),
		EMAIL_TIMEOUT:    emailTimeout,
		ADMIN_EMAILS:     splitList(os.Getenv("ADMIN_EMAILS")),
		// Razorpay
		RAZORPAY_KEY_ID:     os.Getenv("RAZORPAY_KEY_ID"),
		RAZORPAY_KEY_SECRET: os.Getenv("RAZORPAY_KEY_SECRET"),
		RAZORPAY_BASE_URL:   getOrDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
		// Storage
		STORAGE_DRIVER:        getOrDefault("STORAGE_DRIVER", "local"),
		STORAGE_LOCAL_DIR:     getOrDefault("STORAGE_LOCAL_DIR", "./uploads"),
		DO_SPACES_ACCESS_KEY:  os.Getenv("DO_SPACES_ACCESS_KEY"),
		DO_SPACES_SECRET_KEY:  os.Getenv("DO_SPACES_SECRET_KEY"),
		DO_SPACES_BUCKET:      os.Getenv("DO_SPACES_BUCKET"),
		DO_SPACES_REGION:      getOrDefault("DO_SPACES_REGION", "blr1"),
		DO_SPACES_ENDPOINT:    os.Getenv("DO_SPACES_ENDPOINT"),
		ENCRYPTION_MASTER_KEY: os.Getenv("ENCRYPTION_MASTER_KEY"),
		// Events
		KAFKA_BROKERS: splitList(os.Getenv("KAFKA_BROKERS")),
		KAFKA_TOPIC:   getOrDefault("KAFKA_TOPIC", "codelearn.events"),
		// Misc
		CRON_ENABLED:    os.Getenv("CRON_ENABLED") != "false", // Default to enabled
		METRICS_ENABLED: os.Getenv("METRICS_ENABLED") != "false",
		ALLOWED_ORIGINS: getOrDefault("ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	return envVariables, nil
}

// IsProduction reports whether the service runs with production settings
func (e *EnvironmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

func getOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	JWTSecret     string
	PlaidClientID string
	PlaidSecret   string
	PlaidEnv      string
	WebhookURL    string
	Categorizer   string // "keyword" or "gemini"
	GeminiAPIKey  string
	GeminiModel   string
	PlaidRate     string // ulule/limiter format, e.g. "500-H"
}

func Load() Config {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		PlaidClientID: getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:   getEnv("PLAID_SECRET", ""),
		PlaidEnv:      getEnv("PLAID_ENV", "sandbox"),
		WebhookURL:    getEnv("PLAID_WEBHOOK_URL", ""),
		Categorizer:   getEnv("CATEGORIZER", "keyword"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		PlaidRate:     getEnv("PLAID_RATE_LIMIT", "500-H"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	if cfg.PlaidClientID == "" || cfg.PlaidSecret == "" {
		log.Fatal("PLAID_CLIENT_ID and PLAID_SECRET are required")
	}
	if cfg.Categorizer == "gemini" && cfg.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY is required when CATEGORIZER=gemini")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

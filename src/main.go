package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"finflow-server/src/api"
	"finflow-server/src/categorize"
	"finflow-server/src/config"
	"finflow-server/src/db"
	sqldb "finflow-server/src/db/sql"
	"finflow-server/src/plaid"
	syncengine "finflow-server/src/sync"
	"finflow-server/src/util"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Connect to database
	pool, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("DB connection failed: %v", err)
	}
	defer pool.Close()

	db.InitCache()

	plaidClient := plaid.NewClient(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv, cfg.WebhookURL)

	var categorizer categorize.Categorizer
	switch cfg.Categorizer {
	case "gemini":
		gemini, err := categorize.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			log.Fatalf("Gemini categorizer init failed: %v", err)
		}
		categorizer = gemini
	case "keyword":
		categorizer = categorize.Keyword{}
	default:
		log.Fatalf("Invalid categorizer: %s", cfg.Categorizer)
	}

	engine := syncengine.NewEngine(plaidClient, sqldb.NewSyncStore(pool), categorizer, logger)

	rate, err := limiter.NewRateFromFormatted(cfg.PlaidRate)
	if err != nil {
		log.Fatalf("Invalid PLAID_RATE_LIMIT: %v", err)
	}
	plaidLimit := limiter.New(memory.NewStore(), rate)

	router := api.NewRouter(api.Deps{
		Pool:        pool,
		PlaidClient: plaidClient,
		Engine:      engine,
		Verifier:    util.NewWebhookVerifier(plaidClient),
		PlaidLimit:  plaidLimit,
		JWTSecret:   cfg.JWTSecret,
	})

	log.Println("API server running on port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}

package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	cache "finflow-server/src/db"
	db "finflow-server/src/db/sql"
	"finflow-server/src/middleware"
	"finflow-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

func GetTransactions(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		cacheKey := fmt.Sprintf("transactions:%d", userID)
		if cached, found := cache.Cache.Get(cacheKey); found {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(cached)
			return
		}

		transactions, err := db.GetTransactionsByUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get transactions for user %d: %v", userID, err)
			http.Error(w, "Failed to retrieve transactions", http.StatusInternalServerError)
			return
		}

		cache.SetTransactionCache(cacheKey, transactions)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(transactions)
	}
}

// SpendingSummary aggregates spending per category over a date range,
// defaulting to the last 30 days. Expenses add positively to each total,
// income subtracts.
func SpendingSummary(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		end := time.Now()
		start := end.AddDate(0, 0, -30)

		if v := r.URL.Query().Get("start_date"); v != "" {
			parsed, err := time.Parse("2006-01-02", v)
			if err != nil {
				http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			start = parsed
		}
		if v := r.URL.Query().Get("end_date"); v != "" {
			parsed, err := time.Parse("2006-01-02", v)
			if err != nil {
				http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			end = parsed
		}

		cacheKey := fmt.Sprintf("summary:%d:%s:%s", userID, start.Format("2006-01-02"), end.Format("2006-01-02"))
		if cached, found := cache.Cache.Get(cacheKey); found {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(cached)
			return
		}

		summary, err := db.SpendingSummary(r.Context(), pool, userID, start, end)
		if err != nil {
			log.Printf("ERROR: Failed to compute spending summary for user %d: %v", userID, err)
			http.Error(w, "Failed to compute summary", http.StatusInternalServerError)
			return
		}
		if summary == nil {
			summary = []models.CategorySummary{}
		}

		cache.SetSummaryCache(cacheKey, summary)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

// RecategorizeTransactions re-checks stored transactions against the keyword
// categorizer and fixes drift.
func RecategorizeTransactions(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		changed, err := db.RecategorizeTransactions(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Recategorization failed for user %d: %v", userID, err)
			http.Error(w, "Failed to recategorize transactions", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"recategorized": changed})
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	cache "finflow-server/src/db"
	db "finflow-server/src/db/sql"
	"finflow-server/src/middleware"
	"finflow-server/src/models"
	"finflow-server/src/plaid"
	syncengine "finflow-server/src/sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

func CreateLinkToken(client plaid.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		linkToken, err := client.CreateLinkToken(r.Context(), userID)
		if err != nil {
			log.Printf("ERROR: Plaid link token creation failed for user %d: %v", userID, err)
			http.Error(w, "Failed to create link token", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"link_token": linkToken})
	}
}

// ExchangePublicToken turns a Link public token into stored credentials and
// pulls the item's accounts so transactions have somewhere to land.
func ExchangePublicToken(client plaid.Client, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		var req struct {
			PublicToken string `json:"public_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PublicToken == "" {
			log.Printf("ERROR: Failed to decode exchange public token request body: %v", err)
			http.Error(w, "public_token is required", http.StatusBadRequest)
			return
		}

		accessToken, externalItemID, institutionID, err := client.ExchangePublicToken(r.Context(), req.PublicToken)
		if err != nil {
			if plaid.IsKind(err, plaid.KindInvalidToken) {
				http.Error(w, "invalid or expired public token", http.StatusBadRequest)
				return
			}
			log.Printf("ERROR: Plaid public token exchange failed for user %d: %v", userID, err)
			http.Error(w, "Failed to exchange public token", http.StatusBadGateway)
			return
		}

		itemID, err := db.SaveItem(r.Context(), pool, userID, externalItemID, accessToken, institutionID)
		if err != nil {
			log.Printf("ERROR: Failed to save item for user %d: %v", userID, err)
			http.Error(w, "Failed to save linked item", http.StatusInternalServerError)
			return
		}

		snapshots, err := client.GetAccounts(r.Context(), accessToken)
		if err != nil {
			log.Printf("ERROR: Failed to fetch accounts for user %d, item %s: %v", userID, externalItemID, err)
			http.Error(w, "Failed to fetch accounts", http.StatusBadGateway)
			return
		}
		for _, snapshot := range snapshots {
			if err := db.UpsertAccount(r.Context(), pool, itemID, snapshot); err != nil {
				log.Printf("ERROR: Failed to save account %s for user %d: %v", snapshot.AccountID, userID, err)
				http.Error(w, "Failed to save accounts", http.StatusInternalServerError)
				return
			}
		}

		log.Printf("INFO: Linked item %s with %d accounts for user %d", externalItemID, len(snapshots), userID)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"item_id":  externalItemID,
			"accounts": len(snapshots),
		})
	}
}

// SyncTransactions runs one sync pass for each of the user's linked items and
// returns aggregate counts, or a structured error telling the client whether
// re-linking is required.
func SyncTransactions(engine *syncengine.Engine, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		items, err := db.GetItemsByUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to load items for user %d: %v", userID, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if len(items) == 0 {
			http.Error(w, "no bank account connected", http.StatusBadRequest)
			return
		}

		var total models.SyncResult
		for _, item := range items {
			result, err := engine.Sync(r.Context(), item)
			if err != nil {
				if errors.Is(err, syncengine.ErrReauthRequired) {
					log.Printf("ERROR: Item %d needs re-linking for user %d: %v", item.ID, userID, err)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusConflict)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"error":           "bank credentials expired, please re-link your account",
						"reauth_required": true,
						"item_id":         item.ItemID,
					})
					return
				}
				log.Printf("ERROR: Sync failed for user %d, item %d: %v", userID, item.ID, err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadGateway)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error":           "transaction sync failed, try again later",
					"reauth_required": false,
				})
				return
			}
			total.Added += result.Added
			total.Modified += result.Modified
			total.Removed += result.Removed
			total.Skipped += result.Skipped
		}

		cache.ClearUserCaches()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(total)
	}
}

func GetItems(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		items, err := db.GetItemsByUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get items for user %d: %v", userID, err)
			http.Error(w, "Failed to retrieve linked items", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(items)
	}
}

func GetAccounts(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		accounts, err := db.GetAccountsByUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get accounts for user %d: %v", userID, err)
			http.Error(w, "Failed to retrieve accounts", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(accounts)
	}
}

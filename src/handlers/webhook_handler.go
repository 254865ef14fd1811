package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	cache "finflow-server/src/db"
	db "finflow-server/src/db/sql"
	syncengine "finflow-server/src/sync"
	"finflow-server/src/util"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PlaidWebhook handles provider webhooks. A verified SYNC_UPDATES_AVAILABLE
// notification triggers a sync pass for the matching item; everything else is
// acknowledged and ignored.
func PlaidWebhook(verifier *util.WebhookVerifier, engine *syncengine.Engine, pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		if err := verifier.Verify(r.Context(), body, r.Header.Get("Plaid-Verification")); err != nil {
			log.Printf("ERROR: Webhook verification failed: %v", err)
			http.Error(w, "verification failed", http.StatusUnauthorized)
			return
		}

		var payload struct {
			WebhookType string `json:"webhook_type"`
			WebhookCode string `json:"webhook_code"`
			ItemID      string `json:"item_id"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		if payload.WebhookType != "TRANSACTIONS" || payload.WebhookCode != "SYNC_UPDATES_AVAILABLE" {
			log.Printf("INFO: Ignoring webhook %s/%s for item %s", payload.WebhookType, payload.WebhookCode, payload.ItemID)
			w.WriteHeader(http.StatusOK)
			return
		}

		item, err := db.GetItemByExternalID(r.Context(), pool, payload.ItemID)
		if err != nil {
			log.Printf("ERROR: Webhook for unknown item %s: %v", payload.ItemID, err)
			// 200 so the provider does not retry forever for an item we
			// deleted on our side.
			w.WriteHeader(http.StatusOK)
			return
		}

		result, err := engine.Sync(r.Context(), *item)
		if err != nil {
			log.Printf("ERROR: Webhook-triggered sync failed for item %s: %v", payload.ItemID, err)
			w.WriteHeader(http.StatusOK)
			return
		}

		cache.ClearUserCaches()
		log.Printf("INFO: Webhook sync for item %s: %d added, %d modified, %d removed",
			payload.ItemID, result.Added, result.Modified, result.Removed)
		w.WriteHeader(http.StatusOK)
	}
}

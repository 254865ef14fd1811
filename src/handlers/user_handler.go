package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	db "finflow-server/src/db/sql"
	"finflow-server/src/middleware"

	"github.com/jackc/pgx/v5/pgxpool"
)

func GetConsentStatus(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		user, err := db.GetUserByID(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to load user %d for consent status: %v", userID, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"consent_given": user.ConsentGiven,
			"consent_date":  user.ConsentDate,
		})
	}
}

func UpdateConsent(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		var req struct {
			DataConsent bool `json:"data_consent"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode consent request body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		if err := db.UpdateUserConsent(r.Context(), pool, userID, req.DataConsent); err != nil {
			log.Printf("ERROR: Failed to update consent for user %d: %v", userID, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		log.Printf("INFO: Consent updated for user %d: %v", userID, req.DataConsent)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"consent_given": req.DataConsent})
	}
}

func DeleteUser(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		if err := db.DeleteUser(r.Context(), pool, userID); err != nil {
			log.Printf("ERROR: Failed to delete user %d: %v", userID, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		log.Printf("INFO: Deleted user %d", userID)
		w.WriteHeader(http.StatusNoContent)
	}
}

package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	cache "finflow-server/src/db"
	db "finflow-server/src/db/sql"
	"finflow-server/src/middleware"
	"finflow-server/src/models"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func CreateAutoRule(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		var rule models.AutoRule
		if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
			log.Printf("ERROR: Failed to decode auto rule body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if rule.Name == "" || rule.Category == "" || len(rule.Keywords) == 0 {
			http.Error(w, "name, category, and keywords are required", http.StatusBadRequest)
			return
		}
		rule.UserID = userID

		created, err := db.CreateAutoRule(r.Context(), pool, &rule)
		if err != nil {
			log.Printf("ERROR: Failed to create auto rule for user %d: %v", userID, err)
			http.Error(w, "Failed to create rule", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func GetAllAutoRules(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		rules, err := db.GetAllAutoRules(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get auto rules for user %d: %v", userID, err)
			http.Error(w, "Failed to retrieve rules", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rules)
	}
}

func GetAutoRuleByID(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		ruleID, err := strconv.ParseInt(chi.URLParam(r, "rule_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid rule id", http.StatusBadRequest)
			return
		}

		rule, err := db.GetAutoRuleByID(r.Context(), pool, userID, ruleID)
		if err != nil {
			http.Error(w, "rule not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rule)
	}
}

func UpdateAutoRule(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		ruleID, err := strconv.ParseInt(chi.URLParam(r, "rule_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid rule id", http.StatusBadRequest)
			return
		}

		var rule models.AutoRule
		if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
			log.Printf("ERROR: Failed to decode auto rule body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		rule.ID = ruleID
		rule.UserID = userID

		updated, err := db.UpdateAutoRule(r.Context(), pool, &rule)
		if err != nil {
			log.Printf("ERROR: Failed to update auto rule %d for user %d: %v", ruleID, userID, err)
			http.Error(w, "Failed to update rule", http.StatusInternalServerError)
			return
		}

		cache.ClearUserCaches()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updated)
	}
}

func DeleteAutoRule(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		ruleID, err := strconv.ParseInt(chi.URLParam(r, "rule_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid rule id", http.StatusBadRequest)
			return
		}

		if err := db.DeleteAutoRule(r.Context(), pool, userID, ruleID); err != nil {
			http.Error(w, "rule not found", http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

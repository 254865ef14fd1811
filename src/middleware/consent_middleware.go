package middleware

import (
	"log"
	"net/http"

	db "finflow-server/src/db/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RequireConsent blocks routes that pull bank data for users who have not
// given data-processing consent.
func RequireConsent(pool *pgxpool.Pool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := db.GetUserByID(r.Context(), pool, userID)
			if err != nil {
				log.Printf("ERROR: Consent check failed for user %d: %v", userID, err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if !user.ConsentGiven {
				http.Error(w, "data-processing consent is required before connecting bank accounts", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

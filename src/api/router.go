package api

import (
	"net/http"

	"finflow-server/src/handlers"
	"finflow-server/src/middleware"
	"finflow-server/src/plaid"
	syncengine "finflow-server/src/sync"
	"finflow-server/src/util"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ulule/limiter/v3"
)

type Deps struct {
	Pool        *pgxpool.Pool
	PlaidClient plaid.Client
	Engine      *syncengine.Engine
	Verifier    *util.WebhookVerifier
	PlaidLimit  *limiter.Limiter
	JWTSecret   string
}

func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", handlers.Login(deps.Pool, deps.JWTSecret))
		r.Post("/register", handlers.Register(deps.Pool, deps.JWTSecret))
		r.Post("/plaid/webhook", handlers.PlaidWebhook(deps.Verifier, deps.Engine, deps.Pool))

		// Protected routes
		r.With(middleware.JWTAuth(deps.JWTSecret)).Group(func(r chi.Router) {
			// User
			r.Get("/consent", handlers.GetConsentStatus(deps.Pool))
			r.Post("/consent", handlers.UpdateConsent(deps.Pool))
			r.Delete("/user", handlers.DeleteUser(deps.Pool))

			// Stored data
			r.Get("/accounts", handlers.GetAccounts(deps.Pool))
			r.Get("/transactions", handlers.GetTransactions(deps.Pool))
			r.Get("/transactions/summary", handlers.SpendingSummary(deps.Pool))
			r.Post("/transactions/recategorize", handlers.RecategorizeTransactions(deps.Pool))

			// Auto rules
			r.Post("/rules", handlers.CreateAutoRule(deps.Pool))
			r.Get("/rules", handlers.GetAllAutoRules(deps.Pool))
			r.Get("/rules/{rule_id}", handlers.GetAutoRuleByID(deps.Pool))
			r.Put("/rules/{rule_id}", handlers.UpdateAutoRule(deps.Pool))
			r.Delete("/rules/{rule_id}", handlers.DeleteAutoRule(deps.Pool))

			// Provider-facing routes: consent-gated and rate-limited
			r.With(middleware.RequireConsent(deps.Pool), middleware.ProviderRateLimit(deps.PlaidLimit)).Group(func(r chi.Router) {
				r.Post("/plaid/create-link-token", handlers.CreateLinkToken(deps.PlaidClient))
				r.Post("/plaid/exchange-public-token", handlers.ExchangePublicToken(deps.PlaidClient, deps.Pool))
				r.Post("/plaid/sync", handlers.SyncTransactions(deps.Engine, deps.Pool))
				r.Get("/plaid/items", handlers.GetItems(deps.Pool))
			})
		})
	})

	return r
}

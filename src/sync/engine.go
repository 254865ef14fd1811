// Package sync runs one full synchronization pass for one linked item:
// it drives pagination against the aggregator, reconciles deltas into the
// store, categorizes new transactions, and persists the updated cursor.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finflow-server/src/categorize"
	"finflow-server/src/models"
	"finflow-server/src/plaid"
)

// ErrReauthRequired means the provider rejected the stored credentials and
// the user has to re-link the institution. The cursor is left untouched.
var ErrReauthRequired = errors.New("reauthentication required")

// Cursors older than this are discarded before the first page rather than
// letting the provider reject them. A heuristic, not a correctness guard.
const defaultCursorMaxAge = 30 * 24 * time.Hour

// Aggregator is the slice of the provider contract the engine needs.
// plaid.Client satisfies it.
type Aggregator interface {
	SyncTransactions(ctx context.Context, accessToken, cursor string) (*models.SyncPage, error)
	GetAccounts(ctx context.Context, accessToken string) ([]models.AccountSnapshot, error)
}

type Engine struct {
	agg          Aggregator
	store        Store
	categorizer  categorize.Categorizer
	fallback     categorize.Keyword
	logger       *slog.Logger
	cursorMaxAge time.Duration
}

func NewEngine(agg Aggregator, store Store, categorizer categorize.Categorizer, logger *slog.Logger) *Engine {
	return &Engine{
		agg:          agg,
		store:        store,
		categorizer:  categorizer,
		logger:       logger,
		cursorMaxAge: defaultCursorMaxAge,
	}
}

// Sync runs one pass to completion for item. On success the store reflects
// the provider's delta stream up to the point queried and the new cursor is
// persisted. On failure the cursor keeps its pre-pass value so a later retry
// resumes safely; the one exception is a provider-invalidated cursor, which
// is cleared and retried once within the same pass.
func (e *Engine) Sync(ctx context.Context, item models.Item) (models.SyncResult, error) {
	var result models.SyncResult
	logger := e.logger.With(slog.Int64("item_id", item.ID), slog.Int64("user_id", item.UserID))

	cursor, cursorUpdatedAt, err := e.store.GetCursor(ctx, item.ID)
	if err != nil {
		return result, fmt.Errorf("load sync cursor: %w", err)
	}

	if cursor != "" && cursorUpdatedAt != nil && time.Since(*cursorUpdatedAt) > e.cursorMaxAge {
		logger.Info("discarding stale sync cursor", slog.Time("cursor_updated_at", *cursorUpdatedAt))
		if err := e.store.ClearCursor(ctx, item.ID); err != nil {
			return result, fmt.Errorf("clear stale cursor: %w", err)
		}
		cursor = ""
	}

	rules, err := e.store.ActiveRules(ctx, item.UserID)
	if err != nil {
		logger.Warn("failed to load auto rules, syncing without them", slog.String("error", err.Error()))
		rules = nil
	}

	cursorResets := 0
	for {
		page, err := e.agg.SyncTransactions(ctx, item.AccessToken, cursor)
		if err != nil {
			switch {
			case plaid.IsKind(err, plaid.KindCursorStale):
				// Upstream mutated mid-pagination. Restart from a null
				// cursor, once per pass.
				if cursorResets > 0 {
					return result, fmt.Errorf("cursor still invalid after reset: %w", err)
				}
				cursorResets++
				cursor = ""
				if err := e.store.ClearCursor(ctx, item.ID); err != nil {
					return result, fmt.Errorf("clear invalidated cursor: %w", err)
				}
				logger.Info("sync cursor invalidated by provider, restarting pagination")
				continue
			case plaid.IsKind(err, plaid.KindCredentialExpired), plaid.IsKind(err, plaid.KindInvalidCredential):
				return result, fmt.Errorf("%w: %v", ErrReauthRequired, err)
			default:
				return result, fmt.Errorf("provider sync failed: %w", err)
			}
		}

		for _, delta := range page.Added {
			if e.reconcile(ctx, logger, item, delta, rules) {
				result.Added++
			} else {
				result.Skipped++
			}
		}
		for _, delta := range page.Modified {
			if e.reconcile(ctx, logger, item, delta, rules) {
				result.Modified++
			} else {
				result.Skipped++
			}
		}
		for _, externalID := range page.Removed {
			if err := e.store.DeleteTransaction(ctx, item.UserID, externalID); err != nil {
				logger.Warn("failed to remove transaction",
					slog.String("transaction_id", externalID), slog.String("error", err.Error()))
				result.Skipped++
				continue
			}
			result.Removed++
		}

		if !page.HasMore {
			if err := e.store.SaveCursor(ctx, item.ID, page.NextCursor); err != nil {
				return result, fmt.Errorf("persist sync cursor: %w", err)
			}
			break
		}
		cursor = page.NextCursor
	}

	// Balances are best effort; transaction correctness is not.
	e.refreshBalances(ctx, logger, item)

	logger.Info("sync pass complete",
		slog.Int("added", result.Added), slog.Int("modified", result.Modified),
		slog.Int("removed", result.Removed), slog.Int("skipped", result.Skipped))
	return result, nil
}

// reconcile stores one delta. Errors are isolated: they are logged and the
// delta is skipped, never aborting the pass.
func (e *Engine) reconcile(ctx context.Context, logger *slog.Logger, item models.Item, delta models.TxnDelta, rules []models.AutoRule) bool {
	label := e.resolveCategory(ctx, delta, rules)

	categoryID, err := e.store.GetOrCreateCategory(ctx, label)
	if err != nil {
		logger.Warn("failed to resolve category",
			slog.String("transaction_id", delta.TransactionID),
			slog.String("category", label), slog.String("error", err.Error()))
		return false
	}

	if err := e.store.UpsertTransaction(ctx, item.UserID, delta, categoryID); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			logger.Warn("skipping transaction for unknown account",
				slog.String("transaction_id", delta.TransactionID),
				slog.String("account_id", delta.AccountID))
		} else {
			logger.Warn("failed to store transaction",
				slog.String("transaction_id", delta.TransactionID),
				slog.String("error", err.Error()))
		}
		return false
	}
	return true
}

func (e *Engine) resolveCategory(ctx context.Context, delta models.TxnDelta, rules []models.AutoRule) string {
	label := delta.Category
	if label == "" {
		label = e.categorizer.Categorize(ctx, delta.Name, delta.MerchantName, delta.Amount)
	}

	for _, rule := range rules {
		if ruleMatches(rule, delta.Name, delta.MerchantName) {
			label = rule.Category
			break
		}
	}

	// Money out is never income, whatever the provider or a rule says.
	if label == categorize.Income && delta.Amount.IsNegative() {
		label = e.fallback.Categorize(ctx, delta.Name, delta.MerchantName, delta.Amount)
	}
	return label
}

func (e *Engine) refreshBalances(ctx context.Context, logger *slog.Logger, item models.Item) {
	snapshots, err := e.agg.GetAccounts(ctx, item.AccessToken)
	if err != nil {
		logger.Warn("balance refresh failed", slog.String("error", err.Error()))
		return
	}
	for _, snapshot := range snapshots {
		if err := e.store.UpsertAccount(ctx, item.ID, snapshot); err != nil {
			logger.Warn("failed to upsert account",
				slog.String("account_id", snapshot.AccountID), slog.String("error", err.Error()))
		}
	}
}

func ruleMatches(rule models.AutoRule, name, merchantName string) bool {
	haystack := strings.ToLower(name)
	if merchantName != "" {
		haystack += " " + strings.ToLower(merchantName)
	}
	for _, keyword := range rule.Keywords {
		if keyword != "" && strings.Contains(haystack, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

package sync

import (
	"context"
	"errors"
	"time"

	"finflow-server/src/models"
)

// ErrAccountNotFound is returned by Store.UpsertTransaction when the delta
// references an account that was never created locally. The engine skips the
// delta; it never aborts the pass.
var ErrAccountNotFound = errors.New("account not found for transaction")

// Store is the durable storage the engine reconciles against. The pgx
// implementation lives in src/db/sql; tests use an in-memory fake.
type Store interface {
	// GetCursor returns the persisted cursor for an item, "" when none,
	// along with the time it was last written.
	GetCursor(ctx context.Context, itemID int64) (string, *time.Time, error)
	SaveCursor(ctx context.Context, itemID int64, cursor string) error
	ClearCursor(ctx context.Context, itemID int64) error

	// UpsertTransaction inserts the delta's transaction or, when a row with
	// the same external transaction id already exists, overwrites its
	// mutable fields. Both directions make re-delivery and out-of-order
	// "modified" deltas harmless.
	UpsertTransaction(ctx context.Context, userID int64, delta models.TxnDelta, categoryID int64) error
	DeleteTransaction(ctx context.Context, userID int64, externalTransactionID string) error

	UpsertAccount(ctx context.Context, itemID int64, snapshot models.AccountSnapshot) error

	// GetOrCreateCategory resolves a label to a category id, creating the
	// row if needed. Must be atomic under concurrent callers.
	GetOrCreateCategory(ctx context.Context, name string) (int64, error)

	// ActiveRules returns the user's active auto rules, highest priority
	// first.
	ActiveRules(ctx context.Context, userID int64) ([]models.AutoRule, error)
}

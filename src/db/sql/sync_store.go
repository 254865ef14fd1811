package db

import (
	"context"
	"time"

	"finflow-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SyncStore adapts the SQL functions in this package to the sync engine's
// Store interface.
type SyncStore struct {
	Pool *pgxpool.Pool
}

func NewSyncStore(pool *pgxpool.Pool) *SyncStore {
	return &SyncStore{Pool: pool}
}

func (s *SyncStore) GetCursor(ctx context.Context, itemID int64) (string, *time.Time, error) {
	return GetSyncCursor(ctx, s.Pool, itemID)
}

func (s *SyncStore) SaveCursor(ctx context.Context, itemID int64, cursor string) error {
	return UpdateSyncCursor(ctx, s.Pool, itemID, cursor)
}

func (s *SyncStore) ClearCursor(ctx context.Context, itemID int64) error {
	return ClearSyncCursor(ctx, s.Pool, itemID)
}

func (s *SyncStore) UpsertTransaction(ctx context.Context, userID int64, delta models.TxnDelta, categoryID int64) error {
	return UpsertTransaction(ctx, s.Pool, userID, delta, categoryID)
}

func (s *SyncStore) DeleteTransaction(ctx context.Context, userID int64, externalTransactionID string) error {
	return DeleteTransactionByExternalID(ctx, s.Pool, userID, externalTransactionID)
}

func (s *SyncStore) UpsertAccount(ctx context.Context, itemID int64, snapshot models.AccountSnapshot) error {
	return UpsertAccount(ctx, s.Pool, itemID, snapshot)
}

func (s *SyncStore) GetOrCreateCategory(ctx context.Context, name string) (int64, error) {
	return GetOrCreateCategory(ctx, s.Pool, name)
}

func (s *SyncStore) ActiveRules(ctx context.Context, userID int64) ([]models.AutoRule, error) {
	return GetActiveAutoRules(ctx, s.Pool, userID)
}

package db

import (
	"context"
	"errors"
	"time"

	"finflow-server/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrItemNotFound = errors.New("linked item not found")

// SaveItem stores the credentials for a newly linked institution. Re-linking
// the same item replaces the access token, and a replaced token invalidates
// any stored cursor, so the cursor is cleared in the same statement.
func SaveItem(ctx context.Context, pool *pgxpool.Pool, userID int64, itemID, accessToken, institutionID string) (int64, error) {
	query := `
		INSERT INTO items (user_id, item_id, access_token, institution_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (item_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			institution_id = EXCLUDED.institution_id,
			sync_cursor = NULL,
			cursor_updated_at = NULL
		RETURNING id
	`
	var id int64
	err := pool.QueryRow(ctx, query, userID, itemID, accessToken, institutionID).Scan(&id)
	return id, err
}

func GetItemsByUser(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.Item, error) {
	query := `
		SELECT id, user_id, item_id, access_token, institution_id, COALESCE(sync_cursor, ''), cursor_updated_at, created_at
		FROM items
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		err := rows.Scan(&item.ID, &item.UserID, &item.ItemID, &item.AccessToken,
			&item.InstitutionID, &item.SyncCursor, &item.CursorUpdatedAt, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetItemByExternalID looks an item up by the aggregator-assigned id, used by
// the webhook handler where no user is on the request.
func GetItemByExternalID(ctx context.Context, pool *pgxpool.Pool, externalItemID string) (*models.Item, error) {
	query := `
		SELECT id, user_id, item_id, access_token, institution_id, COALESCE(sync_cursor, ''), cursor_updated_at, created_at
		FROM items
		WHERE item_id = $1
	`
	var item models.Item
	err := pool.QueryRow(ctx, query, externalItemID).Scan(&item.ID, &item.UserID, &item.ItemID,
		&item.AccessToken, &item.InstitutionID, &item.SyncCursor, &item.CursorUpdatedAt, &item.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func GetSyncCursor(ctx context.Context, pool *pgxpool.Pool, itemID int64) (string, *time.Time, error) {
	query := `SELECT COALESCE(sync_cursor, ''), cursor_updated_at FROM items WHERE id = $1`
	var cursor string
	var updatedAt *time.Time
	err := pool.QueryRow(ctx, query, itemID).Scan(&cursor, &updatedAt)
	if err != nil {
		return "", nil, err
	}
	return cursor, updatedAt, nil
}

func UpdateSyncCursor(ctx context.Context, pool *pgxpool.Pool, itemID int64, cursor string) error {
	query := `UPDATE items SET sync_cursor = $1, cursor_updated_at = NOW() WHERE id = $2`
	_, err := pool.Exec(ctx, query, cursor, itemID)
	return err
}

func ClearSyncCursor(ctx context.Context, pool *pgxpool.Pool, itemID int64) error {
	query := `UPDATE items SET sync_cursor = NULL, cursor_updated_at = NULL WHERE id = $1`
	_, err := pool.Exec(ctx, query, itemID)
	return err
}

func DeleteItem(ctx context.Context, pool *pgxpool.Pool, userID, itemID int64) error {
	query := `DELETE FROM items WHERE id = $1 AND user_id = $2`
	cmd, err := pool.Exec(ctx, query, itemID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

package db

import (
	"context"

	"finflow-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

func UpsertAccount(ctx context.Context, pool *pgxpool.Pool, itemID int64, snapshot models.AccountSnapshot) error {
	query := `
		INSERT INTO accounts (item_id, account_id, name, official_name, mask, type, subtype, current_balance)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8)
		ON CONFLICT (account_id) DO UPDATE SET
			name = EXCLUDED.name,
			official_name = EXCLUDED.official_name,
			current_balance = EXCLUDED.current_balance,
			updated_at = NOW()
	`
	_, err := pool.Exec(ctx, query,
		itemID,
		snapshot.AccountID,
		snapshot.Name,
		snapshot.OfficialName,
		snapshot.Mask,
		snapshot.Type,
		snapshot.Subtype,
		snapshot.CurrentBalance,
	)
	return err
}

func GetAccountsByUser(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.Account, error) {
	query := `
		SELECT a.id, a.item_id, a.account_id, a.name, a.official_name, a.mask, a.type, a.subtype, a.current_balance, a.created_at, a.updated_at
		FROM accounts a
		JOIN items i ON a.item_id = i.id
		WHERE i.user_id = $1
		ORDER BY a.id
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var account models.Account
		err := rows.Scan(&account.ID, &account.ItemID, &account.AccountID, &account.Name,
			&account.OfficialName, &account.Mask, &account.Type, &account.Subtype,
			&account.CurrentBalance, &account.CreatedAt, &account.UpdatedAt)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

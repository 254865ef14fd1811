package db

import (
	"context"
	"time"

	"finflow-server/src/models"
	syncengine "finflow-server/src/sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UpsertTransaction inserts a delta's transaction or overwrites the existing
// row with the same external transaction id. The owning account is resolved
// by its external id scoped to the user; when it does not exist locally the
// statement touches no rows and ErrAccountNotFound is returned so the sync
// engine can skip the delta.
func UpsertTransaction(ctx context.Context, pool *pgxpool.Pool, userID int64, delta models.TxnDelta, categoryID int64) error {
	query := `
		INSERT INTO transactions (account_id, transaction_id, amount, date, name, merchant_name, category_id, pending)
		SELECT a.id, $1, $2, $3, $4, NULLIF($5, ''), $6, $7
		FROM accounts a
		JOIN items i ON a.item_id = i.id
		WHERE i.user_id = $8 AND a.account_id = $9
		ON CONFLICT (transaction_id) DO UPDATE SET
			amount = EXCLUDED.amount,
			date = EXCLUDED.date,
			name = EXCLUDED.name,
			merchant_name = EXCLUDED.merchant_name,
			category_id = EXCLUDED.category_id,
			pending = EXCLUDED.pending,
			updated_at = NOW()
	`
	cmd, err := pool.Exec(ctx, query,
		delta.TransactionID,
		delta.Amount,
		delta.Date,
		delta.Name,
		delta.MerchantName,
		categoryID,
		delta.Pending,
		userID,
		delta.AccountID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return syncengine.ErrAccountNotFound
	}
	return nil
}

// DeleteTransactionByExternalID removes a transaction the provider reports as
// removed. Deleting an id we never stored is not an error.
func DeleteTransactionByExternalID(ctx context.Context, pool *pgxpool.Pool, userID int64, externalID string) error {
	query := `
		DELETE FROM transactions t
		USING accounts a, items i
		WHERE t.account_id = a.id AND a.item_id = i.id
		  AND i.user_id = $1 AND t.transaction_id = $2
	`
	_, err := pool.Exec(ctx, query, userID, externalID)
	return err
}

func GetTransactionsByUser(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.Transaction, error) {
	query := `
		SELECT t.id, t.account_id, t.transaction_id, t.amount, t.date, t.name, t.merchant_name, c.name, t.pending, t.created_at, t.updated_at
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		JOIN accounts a ON t.account_id = a.id
		JOIN items i ON a.item_id = i.id
		WHERE i.user_id = $1
		ORDER BY t.date DESC, t.id DESC
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var txn models.Transaction
		err := rows.Scan(&txn.ID, &txn.AccountID, &txn.TransactionID, &txn.Amount, &txn.Date,
			&txn.Name, &txn.MerchantName, &txn.Category, &txn.Pending, &txn.CreatedAt, &txn.UpdatedAt)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

// SpendingSummary aggregates per category over a date range. Amounts are
// negated so expenses add positively to the total and income subtracts.
func SpendingSummary(ctx context.Context, pool *pgxpool.Pool, userID int64, start, end time.Time) ([]models.CategorySummary, error) {
	query := `
		SELECT COALESCE(c.name, 'Uncategorized'), SUM(-t.amount)
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		JOIN accounts a ON t.account_id = a.id
		JOIN items i ON a.item_id = i.id
		WHERE i.user_id = $1 AND t.date BETWEEN $2 AND $3
		GROUP BY COALESCE(c.name, 'Uncategorized')
		ORDER BY 2 DESC
	`
	rows, err := pool.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summary []models.CategorySummary
	for rows.Next() {
		var row models.CategorySummary
		if err := rows.Scan(&row.Category, &row.Total); err != nil {
			return nil, err
		}
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

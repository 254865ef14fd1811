package db

import (
	"context"
	"fmt"
	"log"

	"finflow-server/src/categorize"
	cache "finflow-server/src/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// RecategorizeTransactions re-runs the deterministic keyword categorizer over
// every stored transaction for a user and fixes the ones whose category
// differs. A cleanup heuristic for rows categorized before a keyword group
// existed, not part of the sync pass.
func RecategorizeTransactions(ctx context.Context, pool *pgxpool.Pool, userID int64) (int, error) {
	query := `
		SELECT t.id, t.name, COALESCE(t.merchant_name, ''), t.amount, COALESCE(c.name, '')
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		JOIN accounts a ON t.account_id = a.id
		JOIN items i ON a.item_id = i.id
		WHERE i.user_id = $1
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	defer rows.Close()

	type txnRow struct {
		ID           int64
		Name         string
		MerchantName string
		Amount       decimal.Decimal
		Category     string
	}

	var txns []txnRow
	for rows.Next() {
		var row txnRow
		if err := rows.Scan(&row.ID, &row.Name, &row.MerchantName, &row.Amount, &row.Category); err != nil {
			return 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, row)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var keyword categorize.Keyword
	changed := 0
	for _, txn := range txns {
		label := keyword.Categorize(ctx, txn.Name, txn.MerchantName, txn.Amount)
		if label == txn.Category {
			continue
		}
		categoryID, err := GetOrCreateCategory(ctx, pool, label)
		if err != nil {
			return changed, fmt.Errorf("failed to resolve category %q: %w", label, err)
		}
		_, err = pool.Exec(ctx,
			"UPDATE transactions SET category_id = $1, updated_at = NOW() WHERE id = $2",
			categoryID, txn.ID)
		if err != nil {
			return changed, fmt.Errorf("failed to update transaction category: %w", err)
		}
		changed++
	}

	if changed > 0 {
		log.Printf("INFO: RecategorizeTransactions: %d transactions recategorized for user %d", changed, userID)
		cache.ClearUserCaches()
	}
	return changed, nil
}

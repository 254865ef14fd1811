package db

import (
	"context"
	"fmt"

	"finflow-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

func CreateAutoRule(ctx context.Context, pool *pgxpool.Pool, rule *models.AutoRule) (*models.AutoRule, error) {
	query := `
		INSERT INTO auto_rules (user_id, name, keywords, category, priority, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, name, keywords, category, priority, active, created_at, updated_at
	`
	var r models.AutoRule
	err := pool.QueryRow(ctx, query, rule.UserID, rule.Name, rule.Keywords, rule.Category, rule.Priority, rule.Active).
		Scan(&r.ID, &r.UserID, &r.Name, &r.Keywords, &r.Category, &r.Priority, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func GetAutoRuleByID(ctx context.Context, pool *pgxpool.Pool, userID, ruleID int64) (*models.AutoRule, error) {
	query := `
		SELECT id, user_id, name, keywords, category, priority, active, created_at, updated_at
		FROM auto_rules
		WHERE id = $1 AND user_id = $2
	`
	var r models.AutoRule
	err := pool.QueryRow(ctx, query, ruleID, userID).
		Scan(&r.ID, &r.UserID, &r.Name, &r.Keywords, &r.Category, &r.Priority, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func GetAllAutoRules(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.AutoRule, error) {
	query := `
		SELECT id, user_id, name, keywords, category, priority, active, created_at, updated_at
		FROM auto_rules
		WHERE user_id = $1
		ORDER BY priority DESC, id
	`
	return queryRules(ctx, pool, query, userID)
}

// GetActiveAutoRules returns the rules the sync engine applies, highest
// priority first.
func GetActiveAutoRules(ctx context.Context, pool *pgxpool.Pool, userID int64) ([]models.AutoRule, error) {
	query := `
		SELECT id, user_id, name, keywords, category, priority, active, created_at, updated_at
		FROM auto_rules
		WHERE user_id = $1 AND active
		ORDER BY priority DESC, id
	`
	return queryRules(ctx, pool, query, userID)
}

func queryRules(ctx context.Context, pool *pgxpool.Pool, query string, userID int64) ([]models.AutoRule, error) {
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.AutoRule
	for rows.Next() {
		var r models.AutoRule
		err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Keywords, &r.Category, &r.Priority, &r.Active, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func UpdateAutoRule(ctx context.Context, pool *pgxpool.Pool, rule *models.AutoRule) (*models.AutoRule, error) {
	query := `
		UPDATE auto_rules
		SET name = $1, keywords = $2, category = $3, priority = $4, active = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING id, user_id, name, keywords, category, priority, active, created_at, updated_at
	`
	var r models.AutoRule
	err := pool.QueryRow(ctx, query, rule.Name, rule.Keywords, rule.Category, rule.Priority, rule.Active, rule.ID, rule.UserID).
		Scan(&r.ID, &r.UserID, &r.Name, &r.Keywords, &r.Category, &r.Priority, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func DeleteAutoRule(ctx context.Context, pool *pgxpool.Pool, userID, ruleID int64) error {
	query := `DELETE FROM auto_rules WHERE id = $1 AND user_id = $2`
	cmd, err := pool.Exec(ctx, query, ruleID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("auto rule not found")
	}
	return nil
}

package db

import (
	"context"

	"finflow-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GetOrCreateCategory resolves a label to its category id, creating the row
// when it does not exist yet. The no-op DO UPDATE makes RETURNING yield the
// existing id on conflict, so two concurrent sync passes creating the same
// name both get the one row without a read-then-write race.
func GetOrCreateCategory(ctx context.Context, pool *pgxpool.Pool, name string) (int64, error) {
	query := `
		INSERT INTO categories (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`
	var id int64
	err := pool.QueryRow(ctx, query, name).Scan(&id)
	return id, err
}

func GetAllCategories(ctx context.Context, pool *pgxpool.Pool) ([]models.Category, error) {
	query := `SELECT id, name, description, created_at FROM categories ORDER BY name`
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finflow-server/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

func GetUserByID(ctx context.Context, pool *pgxpool.Pool, id int64) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, username, email, password_hash, consent_given, consent_date, created_at
		FROM users
		WHERE id = $1
	`
	err := pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.ConsentGiven,
		&user.ConsentDate,
		&user.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query error: %w", err)
	}
	return &user, nil
}

func GetUserByUsername(ctx context.Context, pool *pgxpool.Pool, username string) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, username, email, password_hash, consent_given, consent_date, created_at
		FROM users
		WHERE username = $1
	`
	err := pool.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.ConsentGiven,
		&user.ConsentDate,
		&user.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query error: %w", err)
	}
	return &user, nil
}

func GetUserByEmail(ctx context.Context, pool *pgxpool.Pool, email string) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, username, email, password_hash, consent_given, consent_date, created_at
		FROM users
		WHERE email = $1
	`
	err := pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.ConsentGiven,
		&user.ConsentDate,
		&user.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query error: %w", err)
	}
	return &user, nil
}

func CreateUser(ctx context.Context, pool *pgxpool.Pool, req models.RegisterRequest, hashedPassword string) (*models.RegisterResponse, error) {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var userID int64
	err := pool.QueryRow(ctx, query, req.Username, req.Email, hashedPassword).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.RegisterResponse{
		ID:       userID,
		Email:    req.Email,
		Username: req.Username,
	}, nil
}

func UpdateUserConsent(ctx context.Context, pool *pgxpool.Pool, userID int64, consent bool) error {
	var consentDate *time.Time
	if consent {
		now := time.Now()
		consentDate = &now
	}
	query := `UPDATE users SET consent_given = $1, consent_date = $2 WHERE id = $3`
	_, err := pool.Exec(ctx, query, consent, consentDate, userID)
	if err != nil {
		return fmt.Errorf("failed to update consent: %w", err)
	}
	return nil
}

func DeleteUser(ctx context.Context, pool *pgxpool.Pool, userID int64) error {
	query := `DELETE FROM users WHERE id = $1`
	_, err := pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

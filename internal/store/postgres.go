package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wealthpulse/backend/internal/models"
)

const pgUniqueViolation = "23505"

// PostgresUserStore handles user accounts in PostgreSQL. It is used
// instead of MongoUserStore when USER_BACKEND=postgres.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

// Migrate creates the users table if it doesn't exist.
func (s *PostgresUserStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username   VARCHAR(50)  UNIQUE NOT NULL,
			email      VARCHAR(255) UNIQUE NOT NULL,
			password   VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	return err
}

func (s *PostgresUserStore) CreateUser(ctx context.Context, username, email, hashedPassword string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING id::text, username, email, created_at`,
		username, email, hashedPassword,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, &DuplicateError{Field: constraintField(pgErr.ConstraintName), Err: err}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// FindByIdentifier returns the user whose username or email equals
// identifier exactly.
func (s *PostgresUserStore) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return s.queryUser(ctx,
		`SELECT id::text, username, email, password, created_at
		 FROM users WHERE username = $1 OR email = $1
		 ORDER BY username = $1 DESC LIMIT 1`, identifier)
}

func (s *PostgresUserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.queryUser(ctx,
		`SELECT id::text, username, email, password, created_at FROM users WHERE username = $1`, username)
}

func (s *PostgresUserStore) queryUser(ctx context.Context, sql string, arg string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, sql, arg).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// constraintField maps a default unique constraint name such as
// "users_email_key" to its column.
func constraintField(name string) string {
	field := strings.TrimPrefix(name, "users_")
	field = strings.TrimSuffix(field, "_key")
	if field == "" || field == name {
		return "record"
	}
	return field
}

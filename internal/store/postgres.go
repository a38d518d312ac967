package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ayush/mining-tracker/internal/models"
)

// Sentinel errors surfaced to handlers. The duplicate variants carry
// which unique field collided so registration can report it per-field.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateLogin    = errors.New("login already in use")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicate         = errors.New("duplicate value")
)

const uniqueViolationCode = "23505"

// PostgresStore handles user and mining-record persistence.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users and mining_records tables if they don't
// exist. The unique constraints are named so violations can be mapped
// back to a field without parsing error text. mining_records carries a
// snapshot of the owner's username/email on purpose: there is no foreign
// key, and history is queried and summed by the (username,
// cryptocurrency) index.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username   VARCHAR(50)  NOT NULL CONSTRAINT users_username_key UNIQUE,
			login      VARCHAR(50)  NOT NULL CONSTRAINT users_login_key UNIQUE,
			password   VARCHAR(255) NOT NULL,
			email      VARCHAR(255) NOT NULL CONSTRAINT users_email_key UNIQUE,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS mining_records (
			id             BIGSERIAL PRIMARY KEY,
			username       VARCHAR(50),
			email          VARCHAR(255),
			cryptocurrency VARCHAR(50) NOT NULL,
			amount         NUMERIC(20,10) NOT NULL DEFAULT 0,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS mining_records_username_crypto_idx
			ON mining_records (username, cryptocurrency)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// mapUniqueViolation translates a unique-constraint violation into the
// field-specific sentinel, checking username, login, then email. Any
// other error passes through unchanged.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return err
	}
	switch pgErr.ConstraintName {
	case "users_username_key":
		return ErrDuplicateUsername
	case "users_login_key":
		return ErrDuplicateLogin
	case "users_email_key":
		return ErrDuplicateEmail
	}
	return ErrDuplicate
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, login, hashedPassword, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, login, password, email)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, username, login, email, created_at`,
		username, login, hashedPassword, email,
	).Scan(&u.ID, &u.Username, &u.Login, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, login, email, password, created_at FROM users WHERE login = $1`, login,
	).Scan(&u.ID, &u.Username, &u.Login, &u.Email, &u.Password, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, login, email, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Login, &u.Email, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// InsertMiningRecord stores one mining event and fills in the generated
// id and created_at.
func (s *PostgresStore) InsertMiningRecord(ctx context.Context, rec *models.MiningRecord) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO mining_records (username, email, cryptocurrency, amount)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		rec.Username, rec.Email, rec.Cryptocurrency, rec.Amount,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert mining record: %w", err)
	}
	return nil
}

// TotalMined recomputes the running total for one user and currency
// from the full history, so the figure always reflects committed rows.
func (s *PostgresStore) TotalMined(ctx context.Context, username, cryptocurrency string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM mining_records
		 WHERE username = $1 AND cryptocurrency = $2`,
		username, cryptocurrency,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum mining records: %w", err)
	}
	return total, nil
}

// ListMiningByUsername returns every record for the given username,
// most recent first.
func (s *PostgresStore) ListMiningByUsername(ctx context.Context, username string) ([]models.MiningRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, username, email, cryptocurrency, amount, created_at
		 FROM mining_records
		 WHERE username = $1
		 ORDER BY created_at DESC`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("list mining records: %w", err)
	}
	defer rows.Close()

	var records []models.MiningRecord
	for rows.Next() {
		var rec models.MiningRecord
		if err := rows.Scan(&rec.ID, &rec.Username, &rec.Email, &rec.Cryptocurrency, &rec.Amount, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("list mining records: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list mining records: %w", err)
	}
	return records, nil
}

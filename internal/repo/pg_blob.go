package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/trip-tracker/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgBlobStore is the Postgres implementation of BlobStore, backed by the
// kv_blobs table.
type pgBlobStore struct {
	db db
}

// NewPGBlobStore constructs a BlobStore backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx.
func NewPGBlobStore(db db) BlobStore {
	return &pgBlobStore{db: db}
}

// Get reads a blob by key.
func (s *pgBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `
		SELECT value
		FROM kv_blobs
		WHERE key = @key`

	var value []byte
	err := s.db.QueryRow(ctx, q, pgx.NamedArgs{"key": key}).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("repo.BlobStore.Get: %w", err)
	}
	return value, nil
}

// Set upserts a blob.
func (s *pgBlobStore) Set(ctx context.Context, key string, value []byte) error {
	const q = `
		INSERT INTO kv_blobs (key, value)
		VALUES (@key, @value)
		ON CONFLICT (key) DO UPDATE
		SET value      = EXCLUDED.value,
		    updated_at = now()`

	args := pgx.NamedArgs{
		"key":   key,
		"value": value,
	}
	if _, err := s.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.BlobStore.Set: %w", err)
	}
	return nil
}

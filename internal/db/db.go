// Package db provides PostgreSQL access for the Sparkify star schema.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors.
var (
	ErrNotFound = errors.New("not found")
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// repositories hands out table repositories bound to one querier.
type repositories struct {
	q querier
}

// Songs returns a SongRepository.
func (r repositories) Songs() *SongRepository {
	return &SongRepository{q: r.q}
}

// Artists returns an ArtistRepository.
func (r repositories) Artists() *ArtistRepository {
	return &ArtistRepository{q: r.q}
}

// Users returns a UserRepository.
func (r repositories) Users() *UserRepository {
	return &UserRepository{q: r.q}
}

// Times returns a TimeRepository.
func (r repositories) Times() *TimeRepository {
	return &TimeRepository{q: r.q}
}

// Songplays returns a SongplayRepository.
func (r repositories) Songplays() *SongplayRepository {
	return &SongplayRepository{q: r.q}
}

// DB wraps a PostgreSQL connection pool.
type DB struct {
	repositories
	pool *pgxpool.Pool
}

// Option configures the connection pool.
type Option func(*pgxpool.Config)

// WithMaxConns caps the number of pooled connections.
func WithMaxConns(n int32) Option {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

// New creates a new database connection pool and verifies it with a ping.
func New(ctx context.Context, databaseURL string, opts ...Option) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	for _, opt := range opts {
		opt(config)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{repositories: repositories{q: pool}, pool: pool}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Pool returns the underlying connection pool for advanced operations.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Tx exposes the table repositories inside one transaction.
type Tx struct {
	repositories
}

// WithTx runs fn in a transaction. The transaction commits when fn returns nil
// and rolls back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Tx{repositories: repositories{q: tx}}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Tables lists the schema tables in creation order: dimensions before facts.
var Tables = []string{"artists", "songs", "users", "time", "songplays"}

var createTableQueries = []string{
	`CREATE TABLE IF NOT EXISTS artists (
		artist_id TEXT PRIMARY KEY,
		name      TEXT NOT NULL,
		location  TEXT,
		latitude  DOUBLE PRECISION,
		longitude DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS songs (
		song_id   TEXT PRIMARY KEY,
		title     TEXT NOT NULL,
		artist_id TEXT NOT NULL REFERENCES artists (artist_id),
		year      INT NOT NULL,
		duration  DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id    INT PRIMARY KEY,
		first_name TEXT,
		last_name  TEXT,
		gender     TEXT,
		level      TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS "time" (
		start_time TIMESTAMPTZ PRIMARY KEY,
		hour       INT NOT NULL,
		day        INT NOT NULL,
		week       INT NOT NULL,
		month      INT NOT NULL,
		year       INT NOT NULL,
		weekday    INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS songplays (
		songplay_id SERIAL PRIMARY KEY,
		start_time  TIMESTAMPTZ NOT NULL REFERENCES "time" (start_time),
		user_id     INT NOT NULL REFERENCES users (user_id),
		level       TEXT NOT NULL,
		song_id     TEXT REFERENCES songs (song_id),
		artist_id   TEXT REFERENCES artists (artist_id),
		session_id  INT NOT NULL,
		location    TEXT,
		user_agent  TEXT
	)`,
}

// dropTableQueries drop facts before dimensions.
var dropTableQueries = []string{
	`DROP TABLE IF EXISTS songplays`,
	`DROP TABLE IF EXISTS users`,
	`DROP TABLE IF EXISTS songs`,
	`DROP TABLE IF EXISTS artists`,
	`DROP TABLE IF EXISTS "time"`,
}

// CreateTables creates every table that does not exist yet.
func (db *DB) CreateTables(ctx context.Context) error {
	for _, query := range createTableQueries {
		if _, err := db.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}
	return nil
}

// DropTables drops every table that exists.
func (db *DB) DropTables(ctx context.Context) error {
	for _, query := range dropTableQueries {
		if _, err := db.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("dropping tables: %w", err)
		}
	}
	return nil
}

// Reset drops and recreates all tables.
func (db *DB) Reset(ctx context.Context) error {
	if err := db.DropTables(ctx); err != nil {
		return err
	}
	return db.CreateTables(ctx)
}

// Counts returns the row count of every table.
func (db *DB) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(Tables))
	for _, table := range Tables {
		var n int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", pgx.Identifier{table}.Sanitize())
		if err := db.pool.QueryRow(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// RecreateDatabase connects to the maintenance database at adminURL, drops the
// named database if it exists and creates it again with UTF8 encoding.
func RecreateDatabase(ctx context.Context, adminURL, name string) error {
	conn, err := pgx.Connect(ctx, adminURL)
	if err != nil {
		return fmt.Errorf("connecting to maintenance database: %w", err)
	}
	defer conn.Close(ctx)

	ident := pgx.Identifier{name}.Sanitize()
	if _, err := conn.Exec(ctx, "DROP DATABASE IF EXISTS "+ident); err != nil {
		return fmt.Errorf("dropping database %s: %w", name, err)
	}
	if _, err := conn.Exec(ctx, "CREATE DATABASE "+ident+" WITH ENCODING 'utf8' TEMPLATE template0"); err != nil {
		return fmt.Errorf("creating database %s: %w", name, err)
	}
	return nil
}

package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/justestif/go-sparkify/internal/model"
)

// ArtistRepository handles artist database operations.
type ArtistRepository struct {
	q querier
}

// Insert adds an artist. Existing artist ids are left untouched.
func (r *ArtistRepository) Insert(ctx context.Context, artist model.Artist) error {
	query := `
		INSERT INTO artists (artist_id, name, location, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (artist_id) DO NOTHING
	`
	_, err := r.q.Exec(ctx, query,
		artist.ArtistID,
		artist.Name,
		artist.Location,
		artist.Latitude,
		artist.Longitude,
	)
	if err != nil {
		return fmt.Errorf("inserting artist: %w", err)
	}
	return nil
}

// Get retrieves an artist by ID.
func (r *ArtistRepository) Get(ctx context.Context, id string) (*model.Artist, error) {
	query := `
		SELECT artist_id, name, location, latitude, longitude
		FROM artists
		WHERE artist_id = $1
	`
	var artist model.Artist
	err := r.q.QueryRow(ctx, query, id).Scan(
		&artist.ArtistID,
		&artist.Name,
		&artist.Location,
		&artist.Latitude,
		&artist.Longitude,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying artist: %w", err)
	}
	return &artist, nil
}

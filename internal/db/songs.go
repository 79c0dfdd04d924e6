package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/justestif/go-sparkify/internal/model"
	"github.com/justestif/go-sparkify/internal/transform"
)

// SongRepository handles song database operations.
type SongRepository struct {
	q querier
}

// Insert adds a song. Existing song ids are left untouched.
func (r *SongRepository) Insert(ctx context.Context, song model.Song) error {
	query := `
		INSERT INTO songs (song_id, title, artist_id, year, duration)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (song_id) DO NOTHING
	`
	_, err := r.q.Exec(ctx, query,
		song.SongID,
		song.Title,
		song.ArtistID,
		song.Year,
		song.Duration,
	)
	if err != nil {
		return fmt.Errorf("inserting song: %w", err)
	}
	return nil
}

// Get retrieves a song by ID.
func (r *SongRepository) Get(ctx context.Context, id string) (*model.Song, error) {
	query := `
		SELECT song_id, title, artist_id, year, duration
		FROM songs
		WHERE song_id = $1
	`
	var song model.Song
	err := r.q.QueryRow(ctx, query, id).Scan(
		&song.SongID,
		&song.Title,
		&song.ArtistID,
		&song.Year,
		&song.Duration,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying song: %w", err)
	}
	return &song, nil
}

// Index builds the (title, artist name, duration) lookup index from the
// songs and artists tables.
func (r *SongRepository) Index(ctx context.Context) (*transform.SongIndex, error) {
	query := `
		SELECT s.title, a.name, s.duration, s.song_id, s.artist_id
		FROM songs s
		JOIN artists a ON a.artist_id = s.artist_id
		ORDER BY s.song_id
	`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying song index: %w", err)
	}
	defer rows.Close()

	idx := &transform.SongIndex{}
	for rows.Next() {
		var (
			title, artist    string
			duration         float64
			songID, artistID string
		)
		if err := rows.Scan(&title, &artist, &duration, &songID, &artistID); err != nil {
			return nil, fmt.Errorf("scanning song index: %w", err)
		}
		idx.Add(title, artist, duration, songID, artistID)
	}
	return idx, rows.Err()
}

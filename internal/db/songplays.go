package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/justestif/go-sparkify/internal/model"
)

// SongplayRepository handles songplay fact operations.
type SongplayRepository struct {
	q querier
}

// Insert adds one songplay.
func (r *SongplayRepository) Insert(ctx context.Context, play model.Songplay) error {
	query := `
		INSERT INTO songplays (start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.Exec(ctx, query,
		play.StartTime,
		play.UserID,
		play.Level,
		play.SongID,
		play.ArtistID,
		play.SessionID,
		play.Location,
		play.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("inserting songplay: %w", err)
	}
	return nil
}

// InsertBatch adds multiple songplays in one statement, preserving their order.
func (r *SongplayRepository) InsertBatch(ctx context.Context, plays []model.Songplay) error {
	if len(plays) == 0 {
		return nil
	}

	query := `
		INSERT INTO songplays (start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
		SELECT start_time, user_id, level, song_id, artist_id, session_id, location, user_agent
		FROM unnest($1::timestamptz[], $2::int[], $3::text[], $4::text[], $5::text[], $6::int[], $7::text[], $8::text[])
			WITH ORDINALITY AS p(start_time, user_id, level, song_id, artist_id, session_id, location, user_agent, ord)
		ORDER BY ord
	`

	starts := make([]time.Time, len(plays))
	userIDs := make([]int32, len(plays))
	levels := make([]string, len(plays))
	songIDs := make([]*string, len(plays))
	artistIDs := make([]*string, len(plays))
	sessionIDs := make([]int32, len(plays))
	locations := make([]string, len(plays))
	agents := make([]string, len(plays))

	for i, p := range plays {
		starts[i] = p.StartTime
		userIDs[i] = int32(p.UserID)
		levels[i] = p.Level
		songIDs[i] = p.SongID
		artistIDs[i] = p.ArtistID
		sessionIDs[i] = int32(p.SessionID)
		locations[i] = p.Location
		agents[i] = p.UserAgent
	}

	_, err := r.q.Exec(ctx, query, starts, userIDs, levels, songIDs, artistIDs, sessionIDs, locations, agents)
	if err != nil {
		return fmt.Errorf("batch inserting songplays: %w", err)
	}
	return nil
}

// List returns every songplay in insertion order.
func (r *SongplayRepository) List(ctx context.Context) ([]model.Songplay, error) {
	query := `
		SELECT start_time, user_id, level, song_id, artist_id, session_id, COALESCE(location, ''), COALESCE(user_agent, '')
		FROM songplays
		ORDER BY songplay_id
	`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying songplays: %w", err)
	}
	defer rows.Close()

	var plays []model.Songplay
	for rows.Next() {
		var p model.Songplay
		if err := rows.Scan(
			&p.StartTime,
			&p.UserID,
			&p.Level,
			&p.SongID,
			&p.ArtistID,
			&p.SessionID,
			&p.Location,
			&p.UserAgent,
		); err != nil {
			return nil, fmt.Errorf("scanning songplay: %w", err)
		}
		p.StartTime = p.StartTime.UTC()
		plays = append(plays, p)
	}
	return plays, rows.Err()
}

// TopUsers counts songplays per user, most plays first. Ties keep the order
// in which users first appear in the fact table.
func (r *SongplayRepository) TopUsers(ctx context.Context, limit int) ([]model.PlayCount, error) {
	query := `
		SELECT sp.user_id, COALESCE(NULLIF(TRIM(CONCAT(u.first_name, ' ', u.last_name)), ''), sp.user_id::text), COUNT(*)
		FROM songplays sp
		LEFT JOIN users u ON u.user_id = sp.user_id
		GROUP BY sp.user_id, u.first_name, u.last_name
		ORDER BY COUNT(*) DESC, MIN(sp.songplay_id)
		LIMIT $1
	`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top users: %w", err)
	}
	defer rows.Close()

	var counts []model.PlayCount
	for rows.Next() {
		var (
			id    int
			label string
			plays int
		)
		if err := rows.Scan(&id, &label, &plays); err != nil {
			return nil, fmt.Errorf("scanning top users: %w", err)
		}
		counts = append(counts, model.PlayCount{Key: strconv.Itoa(id), Label: label, Plays: plays})
	}
	return counts, rows.Err()
}

// ByLevel counts songplays per subscription level.
func (r *SongplayRepository) ByLevel(ctx context.Context) ([]model.PlayCount, error) {
	return r.group(ctx, "by level", `
		SELECT level, COUNT(*)
		FROM songplays
		GROUP BY level
		ORDER BY COUNT(*) DESC, MIN(songplay_id)
	`)
}

// ByGender counts songplays per user gender. Plays of unknown users are
// grouped under the empty key.
func (r *SongplayRepository) ByGender(ctx context.Context) ([]model.PlayCount, error) {
	return r.group(ctx, "by gender", `
		SELECT COALESCE(u.gender, ''), COUNT(*)
		FROM songplays sp
		LEFT JOIN users u ON u.user_id = sp.user_id
		GROUP BY COALESCE(u.gender, '')
		ORDER BY COUNT(*) DESC, MIN(sp.songplay_id)
	`)
}

func (r *SongplayRepository) group(ctx context.Context, what, query string) ([]model.PlayCount, error) {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying songplays %s: %w", what, err)
	}
	defer rows.Close()

	var counts []model.PlayCount
	for rows.Next() {
		var c model.PlayCount
		if err := rows.Scan(&c.Key, &c.Plays); err != nil {
			return nil, fmt.Errorf("scanning songplays %s: %w", what, err)
		}
		c.Label = c.Key
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

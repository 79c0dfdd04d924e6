package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/justestif/go-sparkify/internal/model"
)

// TimeRepository handles time dimension operations.
type TimeRepository struct {
	q querier
}

// Insert adds a time row. Existing timestamps are left untouched.
func (r *TimeRepository) Insert(ctx context.Context, t model.Time) error {
	query := `
		INSERT INTO "time" (start_time, hour, day, week, month, year, weekday)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (start_time) DO NOTHING
	`
	_, err := r.q.Exec(ctx, query, t.StartTime, t.Hour, t.Day, t.Week, t.Month, t.Year, t.Weekday)
	if err != nil {
		return fmt.Errorf("inserting time: %w", err)
	}
	return nil
}

// InsertBatch adds multiple time rows in one statement.
func (r *TimeRepository) InsertBatch(ctx context.Context, rows []model.Time) error {
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO "time" (start_time, hour, day, week, month, year, weekday)
		SELECT * FROM unnest($1::timestamptz[], $2::int[], $3::int[], $4::int[], $5::int[], $6::int[], $7::int[])
		ON CONFLICT (start_time) DO NOTHING
	`

	starts := make([]time.Time, len(rows))
	hours := make([]int32, len(rows))
	days := make([]int32, len(rows))
	weeks := make([]int32, len(rows))
	months := make([]int32, len(rows))
	years := make([]int32, len(rows))
	weekdays := make([]int32, len(rows))

	for i, t := range rows {
		starts[i] = t.StartTime
		hours[i] = int32(t.Hour)
		days[i] = int32(t.Day)
		weeks[i] = int32(t.Week)
		months[i] = int32(t.Month)
		years[i] = int32(t.Year)
		weekdays[i] = int32(t.Weekday)
	}

	_, err := r.q.Exec(ctx, query, starts, hours, days, weeks, months, years, weekdays)
	if err != nil {
		return fmt.Errorf("batch inserting time: %w", err)
	}
	return nil
}

// Get retrieves the time row of a timestamp.
func (r *TimeRepository) Get(ctx context.Context, start time.Time) (*model.Time, error) {
	query := `
		SELECT start_time, hour, day, week, month, year, weekday
		FROM "time"
		WHERE start_time = $1
	`
	var t model.Time
	err := r.q.QueryRow(ctx, query, start).Scan(
		&t.StartTime, &t.Hour, &t.Day, &t.Week, &t.Month, &t.Year, &t.Weekday,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying time: %w", err)
	}
	t.StartTime = t.StartTime.UTC()
	return &t, nil
}

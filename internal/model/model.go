// Package model defines the row types of the Sparkify star schema.
//
// Every table has an explicit row struct. Rows are validated at the transform
// boundary with Validate before they reach the database or the dashboard.
package model

import "time"

// Song is a row of the songs dimension.
type Song struct {
	SongID   string  `validate:"required"`
	Title    string  `validate:"required"`
	ArtistID string  `validate:"required"`
	Year     int     `validate:"gte=0"`
	Duration float64 `validate:"gte=0"`
}

// Artist is a row of the artists dimension.
type Artist struct {
	ArtistID  string   `validate:"required"`
	Name      string   `validate:"required"`
	Location  *string  // nullable
	Latitude  *float64 `validate:"omitnil,latitude"`
	Longitude *float64 `validate:"omitnil,longitude"`
}

// User is a row of the users dimension.
type User struct {
	UserID    int `validate:"gt=0"`
	FirstName string
	LastName  string
	Gender    string
	Level     string `validate:"oneof=free paid"`
}

// Name returns the display name of the user.
func (u User) Name() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Time is a row of the time dimension. Weekday counts from Monday (0) to
// Sunday (6); Week is the ISO-8601 week number.
type Time struct {
	StartTime time.Time `validate:"required"`
	Hour      int
	Day       int
	Week      int
	Month     int
	Year      int
	Weekday   int
}

// NewTime decomposes t into a time dimension row.
func NewTime(t time.Time) Time {
	_, week := t.ISOWeek()
	return Time{
		StartTime: t,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      week,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   (int(t.Weekday()) + 6) % 7,
	}
}

// Songplay is a row of the songplays fact table. SongID and ArtistID are nil
// when the event could not be matched against the song dimension.
type Songplay struct {
	StartTime time.Time `validate:"required"`
	UserID    int       `validate:"gt=0"`
	Level     string
	SongID    *string // nullable
	ArtistID  *string // nullable
	SessionID int     `validate:"gte=0"`
	Location  string
	UserAgent string
}

// Resolved reports whether the songplay references a known song.
func (s Songplay) Resolved() bool {
	return s.SongID != nil && s.ArtistID != nil
}

// PlayCount is one group of a songplay aggregate.
type PlayCount struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Plays int    `json:"plays"`
}

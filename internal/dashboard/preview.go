package dashboard

import (
	"strconv"
	"time"

	"github.com/justestif/go-sparkify/internal/model"
)

// Preview is the head of one table, rendered as strings.
type Preview struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Previews returns the first n rows of every table in schema order.
func (t *Tables) Previews(n int) []Preview {
	return []Preview{
		{
			Name:    "songplays",
			Columns: []string{"start_time", "user_id", "level", "song_id", "artist_id", "session_id", "location", "user_agent"},
			Rows: rows(t.Songplays, n, func(p model.Songplay) []string {
				return []string{
					FormatTime(p.StartTime), strconv.Itoa(p.UserID), p.Level, optional(p.SongID), optional(p.ArtistID),
					strconv.Itoa(p.SessionID), p.Location, p.UserAgent,
				}
			}),
		},
		{
			Name:    "users",
			Columns: []string{"user_id", "first_name", "last_name", "gender", "level"},
			Rows: rows(t.Users, n, func(u model.User) []string {
				return []string{strconv.Itoa(u.UserID), u.FirstName, u.LastName, u.Gender, u.Level}
			}),
		},
		{
			Name:    "songs",
			Columns: []string{"song_id", "title", "artist_id", "year", "duration"},
			Rows: rows(t.Songs, n, func(s model.Song) []string {
				return []string{s.SongID, s.Title, s.ArtistID, strconv.Itoa(s.Year), formatFloat(s.Duration)}
			}),
		},
		{
			Name:    "artists",
			Columns: []string{"artist_id", "name", "location", "latitude", "longitude"},
			Rows: rows(t.Artists, n, func(a model.Artist) []string {
				return []string{a.ArtistID, a.Name, optional(a.Location), optionalFloat(a.Latitude), optionalFloat(a.Longitude)}
			}),
		},
		{
			Name:    "time",
			Columns: []string{"start_time", "hour", "day", "week", "month", "year", "weekday"},
			Rows: rows(t.Times, n, func(tm model.Time) []string {
				return []string{
					FormatTime(tm.StartTime), strconv.Itoa(tm.Hour), strconv.Itoa(tm.Day), strconv.Itoa(tm.Week),
					strconv.Itoa(tm.Month), strconv.Itoa(tm.Year), strconv.Itoa(tm.Weekday),
				}
			}),
		},
	}
}

// FormatTime renders a start time with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05.000")
}

func rows[T any](items []T, n int, fn func(T) []string) [][]string {
	if n < len(items) {
		items = items[:n]
	}
	out := make([][]string, 0, len(items))
	for _, it := range items {
		out = append(out, fn(it))
	}
	return out
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

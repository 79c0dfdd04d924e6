// Package dashboard rebuilds the star schema in memory from the data files
// and computes the aggregates shown by the web dashboard.
//
// Tables are loaded once at process start and are read-only afterwards.
package dashboard

import (
	"fmt"

	"github.com/justestif/go-sparkify/internal/files"
	"github.com/justestif/go-sparkify/internal/logging"
	"github.com/justestif/go-sparkify/internal/metrics"
	"github.com/justestif/go-sparkify/internal/model"
	"github.com/justestif/go-sparkify/internal/transform"
)

// Tables holds the in-memory star schema.
type Tables struct {
	Songs     []model.Song
	Artists   []model.Artist
	Users     []model.User
	Times     []model.Time
	Songplays []model.Songplay

	// Unresolved counts songplays without a song match.
	Unresolved int
}

// Load reads every song file under songRoot and every log file under logRoot
// with the given extension. Dimensions keep one row per key: the first song
// and artist seen, the last user seen and one time row per timestamp.
func Load(songRoot, logRoot, ext string) (*Tables, error) {
	t := &Tables{}

	songFiles, err := files.Find(songRoot, ext)
	if err != nil {
		return nil, fmt.Errorf("discovering song files: %w", err)
	}
	seenSongs := make(map[string]struct{})
	seenArtists := make(map[string]struct{})
	for _, path := range songFiles {
		song, artist, err := transform.SongFile(path)
		if err != nil {
			return nil, err
		}
		if _, ok := seenArtists[artist.ArtistID]; !ok {
			seenArtists[artist.ArtistID] = struct{}{}
			t.Artists = append(t.Artists, artist)
		}
		if _, ok := seenSongs[song.SongID]; !ok {
			seenSongs[song.SongID] = struct{}{}
			t.Songs = append(t.Songs, song)
		}
	}

	index := transform.NewSongIndex(t.Songs, t.Artists)

	logFiles, err := files.Find(logRoot, ext)
	if err != nil {
		return nil, fmt.Errorf("discovering log files: %w", err)
	}
	userPos := make(map[int]int)
	seenTimes := make(map[int64]struct{})
	for _, path := range logFiles {
		res, err := transform.LogFile(path, index)
		if err != nil {
			return nil, err
		}
		for _, tm := range res.Times {
			k := tm.StartTime.UnixMilli()
			if _, ok := seenTimes[k]; ok {
				continue
			}
			seenTimes[k] = struct{}{}
			t.Times = append(t.Times, tm)
		}
		for _, u := range res.Users {
			if i, ok := userPos[u.UserID]; ok {
				t.Users[i] = u
				continue
			}
			userPos[u.UserID] = len(t.Users)
			t.Users = append(t.Users, u)
		}
		t.Songplays = append(t.Songplays, res.Songplays...)
		t.Unresolved += res.Unresolved
	}

	for table, n := range t.Counts() {
		metrics.DashboardRows.WithLabelValues(table).Set(float64(n))
	}
	logging.Info().
		Int("song_files", len(songFiles)).
		Int("log_files", len(logFiles)).
		Int("songplays", len(t.Songplays)).
		Int("unresolved", t.Unresolved).
		Msg("dashboard tables loaded")
	return t, nil
}

// Counts returns the number of rows per table.
func (t *Tables) Counts() map[string]int {
	return map[string]int{
		"songs":     len(t.Songs),
		"artists":   len(t.Artists),
		"users":     len(t.Users),
		"time":      len(t.Times),
		"songplays": len(t.Songplays),
	}
}

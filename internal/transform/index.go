package transform

import (
	"cmp"
	"slices"

	"github.com/justestif/go-sparkify/internal/model"
)

// SongMatch holds the keys a playback event resolves to.
type SongMatch struct {
	SongID   string
	ArtistID string
}

type songKey struct {
	title    string
	artist   string
	duration float64
}

// SongIndex resolves (title, artist name, duration) to song and artist ids by
// exact match. Build it once per run; it is read-only while transforming.
type SongIndex struct {
	entries map[songKey]SongMatch
}

// NewSongIndex joins songs to artists on artist id and indexes the result.
// Songs whose artist is unknown cannot be matched by name and are skipped.
// Songs sharing a key resolve to the smallest song id, as the database
// index does.
func NewSongIndex(songs []model.Song, artists []model.Artist) *SongIndex {
	names := make(map[string]string, len(artists))
	for _, a := range artists {
		if _, ok := names[a.ArtistID]; !ok {
			names[a.ArtistID] = a.Name
		}
	}

	sorted := slices.SortedStableFunc(slices.Values(songs), func(a, b model.Song) int {
		return cmp.Compare(a.SongID, b.SongID)
	})

	idx := &SongIndex{entries: make(map[songKey]SongMatch, len(songs))}
	for _, s := range sorted {
		name, ok := names[s.ArtistID]
		if !ok {
			continue
		}
		idx.Add(s.Title, name, s.Duration, s.SongID, s.ArtistID)
	}
	return idx
}

// Add indexes one song. The first entry for a key wins.
func (x *SongIndex) Add(title, artist string, duration float64, songID, artistID string) {
	if x.entries == nil {
		x.entries = make(map[songKey]SongMatch)
	}
	k := songKey{title: title, artist: artist, duration: duration}
	if _, ok := x.entries[k]; ok {
		return
	}
	x.entries[k] = SongMatch{SongID: songID, ArtistID: artistID}
}

// Lookup returns the match for the given event fields.
func (x *SongIndex) Lookup(title, artist string, duration float64) (SongMatch, bool) {
	if x == nil {
		return SongMatch{}, false
	}
	m, ok := x.entries[songKey{title: title, artist: artist, duration: duration}]
	return m, ok
}

// Len returns the number of indexed songs.
func (x *SongIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.entries)
}

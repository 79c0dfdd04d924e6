package etl

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justestif/go-sparkify/internal/model"
	"github.com/justestif/go-sparkify/internal/transform"
)

// memState is the content of an in-memory star schema.
type memState struct {
	Artists map[string]model.Artist
	Songs   map[string]model.Song
	Users   map[int]model.User
	Times   map[int64]model.Time
	Plays   []model.Songplay
}

func newMemState() *memState {
	return &memState{
		Artists: map[string]model.Artist{},
		Songs:   map[string]model.Song{},
		Users:   map[int]model.User{},
		Times:   map[int64]model.Time{},
	}
}

func (s *memState) clone() *memState {
	return &memState{
		Artists: maps.Clone(s.Artists),
		Songs:   maps.Clone(s.Songs),
		Users:   maps.Clone(s.Users),
		Times:   maps.Clone(s.Times),
		Plays:   slices.Clone(s.Plays),
	}
}

// memStore is a Store keeping rows in memory with the same conflict rules as
// the database.
type memStore struct {
	state   *memState
	commits int
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (m *memStore) WithTx(ctx context.Context, fn func(w Writer) error) error {
	staged := m.state.clone()
	if err := fn(memWriter{s: staged}); err != nil {
		return err
	}
	m.state = staged
	m.commits++
	return nil
}

func (m *memStore) SongIndex(ctx context.Context) (*transform.SongIndex, error) {
	songs := slices.Collect(maps.Values(m.state.Songs))
	slices.SortFunc(songs, func(a, b model.Song) int {
		return cmp.Compare(a.SongID, b.SongID)
	})
	return transform.NewSongIndex(songs, slices.Collect(maps.Values(m.state.Artists))), nil
}

type memWriter struct {
	s *memState
}

func (w memWriter) InsertArtist(ctx context.Context, a model.Artist) error {
	if _, ok := w.s.Artists[a.ArtistID]; !ok {
		w.s.Artists[a.ArtistID] = a
	}
	return nil
}

func (w memWriter) InsertSong(ctx context.Context, s model.Song) error {
	if _, ok := w.s.Artists[s.ArtistID]; !ok {
		return fmt.Errorf("song %s references unknown artist %s", s.SongID, s.ArtistID)
	}
	if _, ok := w.s.Songs[s.SongID]; !ok {
		w.s.Songs[s.SongID] = s
	}
	return nil
}

func (w memWriter) UpsertUser(ctx context.Context, u model.User) error {
	w.s.Users[u.UserID] = u
	return nil
}

func (w memWriter) InsertTimes(ctx context.Context, rows []model.Time) error {
	for _, t := range rows {
		k := t.StartTime.UnixMilli()
		if _, ok := w.s.Times[k]; !ok {
			w.s.Times[k] = t
		}
	}
	return nil
}

func (w memWriter) InsertSongplays(ctx context.Context, plays []model.Songplay) error {
	for _, p := range plays {
		if _, ok := w.s.Users[p.UserID]; !ok {
			return fmt.Errorf("songplay references unknown user %d", p.UserID)
		}
		if _, ok := w.s.Times[p.StartTime.UnixMilli()]; !ok {
			return fmt.Errorf("songplay references unknown time %s", p.StartTime)
		}
	}
	w.s.Plays = append(w.s.Plays, plays...)
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func songJSON(songID, title, artistID, artistName string, duration float64) string {
	return fmt.Sprintf(`{"num_songs": 1, "artist_id": %q, "artist_latitude": null, "artist_longitude": null, "artist_location": "", "artist_name": %q, "song_id": %q, "title": %q, "duration": %v, "year": 2004}`,
		artistID, artistName, songID, title, duration)
}

func eventJSON(page string, userID int, level, song, artist string, length float64, ts int64) string {
	return fmt.Sprintf(`{"artist":%q,"auth":"Logged In","firstName":"User%d","gender":"F","itemInSession":0,"lastName":"Test","length":%v,"level":%q,"location":"Atlanta-Sandy Springs-Roswell, GA","method":"PUT","page":%q,"registration":1540000000000,"sessionId":77,"song":%q,"status":200,"ts":%d,"userAgent":"Mozilla/5.0","userId":"%d"}`,
		artist, userID, length, level, page, song, ts, userID)
}

// dataset writes a small song and log dataset and returns both roots.
//
// Two events match the one song in the dimension, a third matches nothing,
// and user 10 moves from free to paid in the later log file.
func dataset(t *testing.T) (songRoot, logRoot string) {
	t.Helper()
	root := t.TempDir()
	songRoot = filepath.Join(root, "song_data")
	logRoot = filepath.Join(root, "log_data")

	writeFile(t, filepath.Join(songRoot, "A", "A", "A", "TRAAAAW128F429D538.json"),
		songJSON("SOZCTXZ12AB0182364", "Setanta matins", "AR5KOSW1187FB35FF4", "Elena", 269.58322))
	writeFile(t, filepath.Join(songRoot, "A", "A", "B", "TRAABCL128F4286650.json"),
		songJSON("SOUDSGM12AC9618304", "Insatiable (Instrumental Version)", "ARNTLGG11E2835DDB9", "Clp", 266.39628))

	writeFile(t, filepath.Join(logRoot, "2018", "11", "2018-11-01-events.json"),
		eventJSON("NextSong", 10, "free", "Setanta matins", "Elena", 269.58322, 1541105830796)+"\n"+
			eventJSON("Home", 10, "free", "", "", 0, 1541105840796)+"\n"+
			eventJSON("NextSong", 10, "free", "Setanta matins", "Elena", 269.58322, 1541106106796)+"\n")
	writeFile(t, filepath.Join(logRoot, "2018", "11", "2018-11-02-events.json"),
		eventJSON("NextSong", 10, "paid", "Unknown Song", "Nobody", 123.4, 1541207073796)+"\n"+
			eventJSON("NextSong", 20, "free", "Setanta matins", "Elena", 1, 1541207123796)+"\n")
	return songRoot, logRoot
}

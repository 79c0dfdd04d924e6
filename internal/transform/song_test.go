package transform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/justestif/go-sparkify/internal/model"
)

const songJSON = `{"num_songs": 1, "artist_id": "ARD7TVE1187B99BFB1", "artist_latitude": null, "artist_longitude": null, "artist_location": "California - LA", "artist_name": "Casual", "song_id": "SOMZWCG12A8C13C480", "title": "I Didn't Mean To", "duration": 218.93179, "year": 0}`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func strPtr(s string) *string { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestSongFile(t *testing.T) {
	path := writeTemp(t, "TRAAAAW128F429D538.json", songJSON+"\n")

	song, artist, err := SongFile(path)
	require.NoError(t, err)

	if diff := cmp.Diff(model.Song{
		SongID:   "SOMZWCG12A8C13C480",
		Title:    "I Didn't Mean To",
		ArtistID: "ARD7TVE1187B99BFB1",
		Year:     0,
		Duration: 218.93179,
	}, song); diff != "" {
		t.Errorf("song mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.Artist{
		ArtistID: "ARD7TVE1187B99BFB1",
		Name:     "Casual",
		Location: strPtr("California - LA"),
	}, artist); diff != "" {
		t.Errorf("artist mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeSong_PassThrough(t *testing.T) {
	in := `{"artist_id": "ARKRRTF1187B9984DA", "artist_latitude": 35.14968, "artist_longitude": -90.04892, "artist_location": "", "artist_name": "Sonora Santanera", "song_id": "SOXVLOJ12AB0189215", "title": "Amor De Cabaret", "duration": 177.47546, "year": 0}`

	song, artist, err := DecodeSong(strings.NewReader(in))
	require.NoError(t, err)

	require.Equal(t, "SOXVLOJ12AB0189215", song.SongID)
	require.Equal(t, "Amor De Cabaret", song.Title)
	require.Equal(t, 177.47546, song.Duration)
	require.Equal(t, "Sonora Santanera", artist.Name)
	require.Equal(t, strPtr(""), artist.Location)
	require.Equal(t, floatPtr(35.14968), artist.Latitude)
	require.Equal(t, floatPtr(-90.04892), artist.Longitude)
}

func TestDecodeSong_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "empty file",
			input:   "\n\n",
			wantErr: "empty song file",
		},
		{
			name:    "malformed json",
			input:   `{"song_id": `,
			wantErr: "line 1",
		},
		{
			name:    "missing fields",
			input:   `{"song_id": "S1", "artist_id": "A1", "duration": 1.0}`,
			wantErr: "missing title, artist_name, year",
		},
		{
			name: "second record",
			input: `{"song_id": "S1", "title": "t", "artist_id": "A1", "artist_name": "n", "duration": 1.0, "year": 1999}

{"song_id": "S2", "title": "u", "artist_id": "A1", "artist_name": "n", "duration": 2.0, "year": 1999}`,
			wantErr: "line 3",
		},
		{
			name:    "empty song id",
			input:   `{"song_id": "", "title": "t", "artist_id": "A1", "artist_name": "n", "duration": 1.0, "year": 1999}`,
			wantErr: "SongID is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeSong(strings.NewReader(tt.input))
			require.ErrorIs(t, err, ErrInvalidRecord)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSongFile_Missing(t *testing.T) {
	_, _, err := SongFile(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSongFile_ErrorNamesFile(t *testing.T) {
	path := writeTemp(t, "bad.json", `{"title": "x"}`)
	_, _, err := SongFile(path)
	require.ErrorIs(t, err, ErrInvalidRecord)
	require.Contains(t, err.Error(), path)
}

package transform

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/justestif/go-sparkify/internal/model"
)

// songRecord is one record of the song dataset. Pointer fields distinguish
// absent keys from zero values.
type songRecord struct {
	SongID          *string  `json:"song_id"`
	Title           *string  `json:"title"`
	Year            *int     `json:"year"`
	Duration        *float64 `json:"duration"`
	ArtistID        *string  `json:"artist_id"`
	ArtistName      *string  `json:"artist_name"`
	ArtistLocation  *string  `json:"artist_location"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
}

func (r *songRecord) missing() []string {
	var fields []string
	if r.SongID == nil {
		fields = append(fields, "song_id")
	}
	if r.Title == nil {
		fields = append(fields, "title")
	}
	if r.ArtistID == nil {
		fields = append(fields, "artist_id")
	}
	if r.ArtistName == nil {
		fields = append(fields, "artist_name")
	}
	if r.Year == nil {
		fields = append(fields, "year")
	}
	if r.Duration == nil {
		fields = append(fields, "duration")
	}
	return fields
}

// SongFile reads a song file holding exactly one JSON record and projects it
// into a song row and an artist row.
func SongFile(path string) (model.Song, model.Artist, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Song{}, model.Artist{}, fmt.Errorf("opening song file: %w", err)
	}
	defer f.Close()

	song, artist, err := DecodeSong(f)
	if err != nil {
		return model.Song{}, model.Artist{}, fmt.Errorf("%s: %w", path, err)
	}
	return song, artist, nil
}

// DecodeSong decodes the single record of r. Values are passed through
// unchanged. A second non-blank line is an error.
func DecodeSong(r io.Reader) (model.Song, model.Artist, error) {
	var rec songRecord
	var recLine int
	err := forEachLine(r, func(n int, line []byte) error {
		if recLine != 0 {
			return fmt.Errorf("line %d: %w: more than one record in song file", n, ErrInvalidRecord)
		}
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("line %d: %w: %v", n, ErrInvalidRecord, err)
		}
		recLine = n
		return nil
	})
	if err != nil {
		return model.Song{}, model.Artist{}, err
	}
	if recLine == 0 {
		return model.Song{}, model.Artist{}, fmt.Errorf("%w: empty song file", ErrInvalidRecord)
	}
	if missing := rec.missing(); len(missing) > 0 {
		return model.Song{}, model.Artist{}, fmt.Errorf("line %d: %w: missing %s", recLine, ErrInvalidRecord, strings.Join(missing, ", "))
	}

	song := model.Song{
		SongID:   *rec.SongID,
		Title:    *rec.Title,
		ArtistID: *rec.ArtistID,
		Year:     *rec.Year,
		Duration: *rec.Duration,
	}
	artist := model.Artist{
		ArtistID:  *rec.ArtistID,
		Name:      *rec.ArtistName,
		Location:  rec.ArtistLocation,
		Latitude:  rec.ArtistLatitude,
		Longitude: rec.ArtistLongitude,
	}

	if err := model.Validate(song); err != nil {
		return model.Song{}, model.Artist{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := model.Validate(artist); err != nil {
		return model.Song{}, model.Artist{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return song, artist, nil
}

package transform

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/justestif/go-sparkify/internal/logging"
	"github.com/justestif/go-sparkify/internal/model"
)

// userID accepts the user id as either a JSON string or a JSON number.
// Logged-out events carry an empty string.
type userID string

func (u *userID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*u = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*u = userID(s)
		return nil
	}
	*u = userID(b)
	return nil
}

// logRecord is one page-view event of the activity log.
type logRecord struct {
	Artist    *string  `json:"artist"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Gender    string   `json:"gender"`
	Length    *float64 `json:"length"`
	Level     string   `json:"level"`
	Location  string   `json:"location"`
	Page      string   `json:"page"`
	SessionID int      `json:"sessionId"`
	Song      *string  `json:"song"`
	TS        int64    `json:"ts"`
	UserAgent string   `json:"userAgent"`
	UserID    userID   `json:"userId"`
}

// LogResult holds the rows derived from one log file.
type LogResult struct {
	Times     []model.Time
	Users     []model.User
	Songplays []model.Songplay

	// Unresolved counts songplays whose song could not be matched.
	Unresolved int
}

// LogFile reads a newline-delimited log file and derives time, user and
// songplay rows from its NextSong events.
func LogFile(path string, index *SongIndex) (*LogResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	res, err := DecodeLog(f, index)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// DecodeLog derives rows from the NextSong events of r. Users are deduplicated
// on user id keeping the first occurrence, time rows on timestamp.
func DecodeLog(r io.Reader, index *SongIndex) (*LogResult, error) {
	res := &LogResult{}
	seenUsers := make(map[int]struct{})
	seenTimes := make(map[int64]struct{})

	err := forEachLine(r, func(n int, line []byte) error {
		var rec logRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("line %d: %w: %v", n, ErrInvalidRecord, err)
		}
		if rec.Page != NextSongPage {
			return nil
		}

		uid, err := strconv.Atoi(string(rec.UserID))
		if err != nil {
			return fmt.Errorf("line %d: %w: userId %q is not an integer", n, ErrInvalidRecord, rec.UserID)
		}
		ts := time.UnixMilli(rec.TS).UTC()

		if _, ok := seenTimes[rec.TS]; !ok {
			seenTimes[rec.TS] = struct{}{}
			res.Times = append(res.Times, model.NewTime(ts))
		}

		if _, ok := seenUsers[uid]; !ok {
			user := model.User{
				UserID:    uid,
				FirstName: rec.FirstName,
				LastName:  rec.LastName,
				Gender:    rec.Gender,
				Level:     rec.Level,
			}
			if err := model.Validate(user); err != nil {
				return fmt.Errorf("line %d: %w: %v", n, ErrInvalidRecord, err)
			}
			seenUsers[uid] = struct{}{}
			res.Users = append(res.Users, user)
		}

		play := model.Songplay{
			StartTime: ts,
			UserID:    uid,
			Level:     rec.Level,
			SessionID: rec.SessionID,
			Location:  rec.Location,
			UserAgent: rec.UserAgent,
		}
		if m, ok := lookup(index, rec); ok {
			play.SongID = &m.SongID
			play.ArtistID = &m.ArtistID
		} else {
			res.Unresolved++
			logging.Debug().
				Int("line", n).
				Str("song", deref(rec.Song)).
				Str("artist", deref(rec.Artist)).
				Msg("songplay not matched to a song")
		}
		if err := model.Validate(play); err != nil {
			return fmt.Errorf("line %d: %w: %v", n, ErrInvalidRecord, err)
		}
		res.Songplays = append(res.Songplays, play)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func lookup(index *SongIndex, rec logRecord) (SongMatch, bool) {
	if rec.Song == nil || rec.Artist == nil || rec.Length == nil {
		return SongMatch{}, false
	}
	return index.Lookup(*rec.Song, *rec.Artist, *rec.Length)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

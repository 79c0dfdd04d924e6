package etl

import (
	"context"

	"github.com/justestif/go-sparkify/internal/db"
	"github.com/justestif/go-sparkify/internal/model"
	"github.com/justestif/go-sparkify/internal/transform"
)

// Writer persists the rows of one data file.
type Writer interface {
	InsertArtist(ctx context.Context, artist model.Artist) error
	InsertSong(ctx context.Context, song model.Song) error
	UpsertUser(ctx context.Context, user model.User) error
	InsertTimes(ctx context.Context, rows []model.Time) error
	InsertSongplays(ctx context.Context, plays []model.Songplay) error
}

// Store is the database the pipeline loads into.
type Store interface {
	// WithTx runs fn in one transaction, committing when it returns nil.
	WithTx(ctx context.Context, fn func(w Writer) error) error

	// SongIndex builds the song lookup index from the loaded dimensions.
	SongIndex(ctx context.Context) (*transform.SongIndex, error)
}

// NewStore adapts a database to the Store interface.
func NewStore(database *db.DB) Store {
	return &dbStore{db: database}
}

type dbStore struct {
	db *db.DB
}

func (s *dbStore) WithTx(ctx context.Context, fn func(w Writer) error) error {
	return s.db.WithTx(ctx, func(tx *db.Tx) error {
		return fn(txWriter{tx: tx})
	})
}

func (s *dbStore) SongIndex(ctx context.Context) (*transform.SongIndex, error) {
	return s.db.Songs().Index(ctx)
}

type txWriter struct {
	tx *db.Tx
}

func (w txWriter) InsertArtist(ctx context.Context, artist model.Artist) error {
	return w.tx.Artists().Insert(ctx, artist)
}

func (w txWriter) InsertSong(ctx context.Context, song model.Song) error {
	return w.tx.Songs().Insert(ctx, song)
}

func (w txWriter) UpsertUser(ctx context.Context, user model.User) error {
	return w.tx.Users().Upsert(ctx, user)
}

func (w txWriter) InsertTimes(ctx context.Context, rows []model.Time) error {
	return w.tx.Times().InsertBatch(ctx, rows)
}

func (w txWriter) InsertSongplays(ctx context.Context, plays []model.Songplay) error {
	return w.tx.Songplays().InsertBatch(ctx, plays)
}

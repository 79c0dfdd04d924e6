// Package etl drives the batch load of song and log files into the database.
package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/justestif/go-sparkify/internal/files"
	"github.com/justestif/go-sparkify/internal/logging"
	"github.com/justestif/go-sparkify/internal/metrics"
	"github.com/justestif/go-sparkify/internal/transform"
)

// File kinds.
const (
	KindSong = "song"
	KindLog  = "log"
)

// Rows counts the rows written for one or more files.
type Rows struct {
	Artists    int
	Songs      int
	Users      int
	Times      int
	Songplays  int
	Unresolved int
}

func (r *Rows) add(o Rows) {
	r.Artists += o.Artists
	r.Songs += o.Songs
	r.Users += o.Users
	r.Times += o.Times
	r.Songplays += o.Songplays
	r.Unresolved += o.Unresolved
}

// HandlerFunc transforms the file at path and writes its rows with w.
type HandlerFunc func(ctx context.Context, w Writer, path string) (Rows, error)

// FileError records a file skipped because it failed.
type FileError struct {
	Path string
	Err  error
}

// PhaseResult summarizes the processing of one directory.
type PhaseResult struct {
	Kind      string
	Root      string
	Found     int
	Processed int
	Failed    []FileError
	Rows      Rows
}

// Result summarizes a full run.
type Result struct {
	RunID uuid.UUID
	Songs *PhaseResult
	Logs  *PhaseResult
}

// Pipeline loads data files into a Store, one transaction per file.
type Pipeline struct {
	store      Store
	ext        string
	skipFailed bool
	log        zerolog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithExtension sets the extension of data files.
func WithExtension(ext string) Option {
	return func(p *Pipeline) {
		p.ext = ext
	}
}

// WithSkipFailedFiles makes a failing file roll back and be skipped instead
// of aborting the run.
func WithSkipFailedFiles(skip bool) Option {
	return func(p *Pipeline) {
		p.skipFailed = skip
	}
}

// New creates a new pipeline.
func New(store Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store: store,
		ext:   files.DefaultExt,
		log:   logging.Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run loads every song file under songRoot, then every log file under
// logRoot. The song index used to resolve songplays is built once, after the
// song phase.
func (p *Pipeline) Run(ctx context.Context, songRoot, logRoot string) (*Result, error) {
	res := &Result{RunID: uuid.New()}
	log := p.log.With().Str("run_id", res.RunID.String()).Logger()
	run := *p
	run.log = log

	songs, err := run.Process(ctx, KindSong, songRoot, SongHandler)
	res.Songs = songs
	if err != nil {
		return res, err
	}

	index, err := p.store.SongIndex(ctx)
	if err != nil {
		return res, fmt.Errorf("building song index: %w", err)
	}
	log.Info().Int("songs", index.Len()).Msg("song index built")

	logs, err := run.Process(ctx, KindLog, logRoot, LogHandler(index))
	res.Logs = logs
	if err != nil {
		return res, err
	}

	log.Info().
		Int("songplays", logs.Rows.Songplays).
		Int("unresolved", logs.Rows.Unresolved).
		Msg("run complete")
	return res, nil
}

// Process applies fn to every data file under root, committing after each
// file.
func (p *Pipeline) Process(ctx context.Context, kind, root string, fn HandlerFunc) (*PhaseResult, error) {
	res := &PhaseResult{Kind: kind, Root: root}

	paths, err := files.Find(root, p.ext)
	if err != nil {
		return res, fmt.Errorf("discovering %s files: %w", kind, err)
	}
	res.Found = len(paths)
	metrics.FilesFound.WithLabelValues(kind).Add(float64(len(paths)))
	p.log.Info().Str("kind", kind).Str("root", root).Int("files", len(paths)).
		Msgf("%d files found in %s", len(paths), root)

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		start := time.Now()
		var rows Rows
		err := p.store.WithTx(ctx, func(w Writer) error {
			var err error
			rows, err = fn(ctx, w, path)
			return err
		})
		metrics.FileDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.FilesProcessed.WithLabelValues(kind, "failed").Inc()
			if !p.skipFailed {
				return res, fmt.Errorf("processing %s: %w", path, err)
			}
			res.Failed = append(res.Failed, FileError{Path: path, Err: err})
			p.log.Warn().Err(err).Str("file", path).Msg("skipping failed file")
			continue
		}

		metrics.FilesProcessed.WithLabelValues(kind, "ok").Inc()
		recordRows(rows)
		res.Rows.add(rows)
		res.Processed++
		p.log.Info().Str("kind", kind).Int("done", i+1).Int("total", len(paths)).
			Msgf("%d/%d files processed.", i+1, len(paths))
	}
	return res, nil
}

func recordRows(r Rows) {
	metrics.RowsWritten.WithLabelValues("artists").Add(float64(r.Artists))
	metrics.RowsWritten.WithLabelValues("songs").Add(float64(r.Songs))
	metrics.RowsWritten.WithLabelValues("users").Add(float64(r.Users))
	metrics.RowsWritten.WithLabelValues("time").Add(float64(r.Times))
	metrics.RowsWritten.WithLabelValues("songplays").Add(float64(r.Songplays))
	metrics.UnresolvedSongplays.Add(float64(r.Unresolved))
}

// SongHandler writes the artist and song rows of one song file.
func SongHandler(ctx context.Context, w Writer, path string) (Rows, error) {
	song, artist, err := transform.SongFile(path)
	if err != nil {
		return Rows{}, err
	}
	// Artist first: songs reference artists.
	if err := w.InsertArtist(ctx, artist); err != nil {
		return Rows{}, err
	}
	if err := w.InsertSong(ctx, song); err != nil {
		return Rows{}, err
	}
	return Rows{Artists: 1, Songs: 1}, nil
}

// LogHandler returns a handler writing the time, user and songplay rows of
// one log file, resolving songs against index.
func LogHandler(index *transform.SongIndex) HandlerFunc {
	return func(ctx context.Context, w Writer, path string) (Rows, error) {
		res, err := transform.LogFile(path, index)
		if err != nil {
			return Rows{}, err
		}
		if err := w.InsertTimes(ctx, res.Times); err != nil {
			return Rows{}, err
		}
		for _, u := range res.Users {
			if err := w.UpsertUser(ctx, u); err != nil {
				return Rows{}, err
			}
		}
		if err := w.InsertSongplays(ctx, res.Songplays); err != nil {
			return Rows{}, err
		}
		if res.Unresolved > 0 {
			logging.Debug().Str("file", path).Int("unresolved", res.Unresolved).Msg("songplays without song match")
		}
		return Rows{
			Users:      len(res.Users),
			Times:      len(res.Times),
			Songplays:  len(res.Songplays),
			Unresolved: res.Unresolved,
		}, nil
	}
}

// Package transform turns raw song and log files into star schema rows.
package transform

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// NextSongPage is the page marker of a playback event.
const NextSongPage = "NextSong"

// ErrInvalidRecord is wrapped by every row-level transform error.
var ErrInvalidRecord = errors.New("invalid record")

// maxLineSize bounds a single JSON line.
const maxLineSize = 1 << 20

// forEachLine calls fn with every non-blank line of r and its 1-based number.
func forEachLine(r io.Reader, fn func(n int, line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	n := 0
	for sc.Scan() {
		n++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	return sc.Err()
}

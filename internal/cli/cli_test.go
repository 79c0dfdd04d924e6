package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// dataDir writes a one-song dataset and points the config at it.
func dataDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SPARKIFY_CONFIG", "")

	writeFile(t, filepath.Join(dir, "data", "song_data", "A", "TRA.json"),
		`{"num_songs": 1, "artist_id": "AR1", "artist_latitude": 35.1, "artist_longitude": -90.0, "artist_location": "Memphis", "artist_name": "Elvis", "song_id": "SO1", "title": "Hound Dog", "duration": 136.0, "year": 1956}`)
	var log bytes.Buffer
	for i, level := range []string{"free", "paid", "paid"} {
		fmt.Fprintf(&log, `{"artist":"Elvis","firstName":"Lily","gender":"F","lastName":"Koch","length":136.0,"level":%q,"location":"Chicago","page":"NextSong","sessionId":9,"song":"Hound Dog","ts":%d,"userAgent":"curl","userId":"15"}`+"\n",
			level, 1541105830796+int64(i)*1000)
	}
	writeFile(t, filepath.Join(dir, "data", "log_data", "2018-11-01-events.json"), log.String())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReport_Files(t *testing.T) {
	dataDir(t)

	out, err := execute(t, "report", "--rows", "1")
	require.NoError(t, err)
	require.Contains(t, out, "Top listeners")
	require.Contains(t, out, "Lily Koch")
	require.Contains(t, out, "Female")
	require.Contains(t, out, "Hound Dog")
	require.Contains(t, out, "Memphis")
	require.Contains(t, out, "3 songplays in total.")
}

func TestReport_InvalidSource(t *testing.T) {
	dataDir(t)

	_, err := execute(t, "report", "--source", "s3")
	require.ErrorContains(t, err, `invalid source "s3"`)
}

func TestReport_MissingData(t *testing.T) {
	dataDir(t)
	t.Setenv("SPARKIFY_DATA_SONG_DIR", filepath.Join(t.TempDir(), "missing"))

	_, err := execute(t, "report")
	require.Error(t, err)
}

func TestETL_MissingCredentials(t *testing.T) {
	dataDir(t)
	t.Setenv("SPARKIFY_DATABASE_USERNAME", "")

	_, err := execute(t, "etl")
	require.ErrorContains(t, err, "missing database credentials")
}

func TestInvalidConfig(t *testing.T) {
	dataDir(t)
	t.Setenv("SPARKIFY_LOGGING_FORMAT", "xml")

	_, err := execute(t, "report")
	require.ErrorContains(t, err, "invalid config")
}

func TestFlagOverrides(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("skip", false, "")
	flags.String("addr", ":8050", "")

	skip, err := boolFlag(flags, "skip", true)
	require.NoError(t, err)
	require.True(t, skip, "unset flag falls back to config")

	require.NoError(t, flags.Parse([]string{"--skip=false", "--addr", ":9000"}))
	skip, err = boolFlag(flags, "skip", true)
	require.NoError(t, err)
	require.False(t, skip)

	addr, err := stringFlag(flags, "addr", ":8050")
	require.NoError(t, err)
	require.Equal(t, ":9000", addr)
}

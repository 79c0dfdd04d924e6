package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/justestif/go-sparkify/internal/model"
	"github.com/justestif/go-sparkify/internal/testinfra"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	url := testinfra.Postgres(t)

	ctx := context.Background()
	database, err := New(ctx, url, WithMaxConns(1))
	require.NoError(t, err)
	t.Cleanup(database.Close)

	require.NoError(t, database.Reset(ctx))
	return database
}

func strPtr(s string) *string { return &s }

var (
	testArtist = model.Artist{ArtistID: "AR5KOSW1187FB35FF4", Name: "Elena", Location: strPtr("Dubai UAE")}
	testSong   = model.Song{SongID: "SOZCTXZ12AB0182364", Title: "Setanta matins", ArtistID: "AR5KOSW1187FB35FF4", Year: 0, Duration: 269.58322}
	testStart  = time.UnixMilli(1542242481796).UTC()
)

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), "://not a url")
	require.Error(t, err)
	require.Contains(t, err.Error(), "parsing database URL")
}

func TestSchema_CreateDropOrder(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	counts, err := database.Counts(ctx)
	require.NoError(t, err)
	for _, table := range Tables {
		require.Zero(t, counts[table], table)
	}

	// Populate every table so the drop must respect foreign keys.
	require.NoError(t, database.WithTx(ctx, func(tx *Tx) error {
		require.NoError(t, tx.Artists().Insert(ctx, testArtist))
		require.NoError(t, tx.Songs().Insert(ctx, testSong))
		require.NoError(t, tx.Users().Upsert(ctx, model.User{UserID: 15, FirstName: "Lily", LastName: "Koch", Gender: "F", Level: "paid"}))
		require.NoError(t, tx.Times().Insert(ctx, model.NewTime(testStart)))
		return tx.Songplays().Insert(ctx, model.Songplay{StartTime: testStart, UserID: 15, Level: "paid", SongID: &testSong.SongID, ArtistID: &testArtist.ArtistID, SessionID: 818})
	}))

	require.NoError(t, database.DropTables(ctx))
	require.NoError(t, database.CreateTables(ctx))
	require.NoError(t, database.CreateTables(ctx), "create is idempotent")

	counts, err = database.Counts(ctx)
	require.NoError(t, err)
	require.Zero(t, counts["songplays"])
}

func TestDimensions_InsertIgnoresDuplicates(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.Artists().Insert(ctx, testArtist))
	require.NoError(t, database.Artists().Insert(ctx, model.Artist{ArtistID: testArtist.ArtistID, Name: "Other"}))
	require.NoError(t, database.Songs().Insert(ctx, testSong))
	require.NoError(t, database.Songs().Insert(ctx, testSong))
	require.NoError(t, database.Times().InsertBatch(ctx, []model.Time{model.NewTime(testStart), model.NewTime(testStart.Add(time.Second))}))
	require.NoError(t, database.Times().Insert(ctx, model.NewTime(testStart)))

	artist, err := database.Artists().Get(ctx, testArtist.ArtistID)
	require.NoError(t, err)
	require.Equal(t, testArtist, *artist)

	song, err := database.Songs().Get(ctx, testSong.SongID)
	require.NoError(t, err)
	require.Equal(t, testSong, *song)

	tm, err := database.Times().Get(ctx, testStart)
	require.NoError(t, err)
	require.True(t, testStart.Equal(tm.StartTime))
	tm.StartTime = testStart
	require.Equal(t, model.NewTime(testStart), *tm)

	counts, err := database.Counts(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, counts["artists"])
	require.EqualValues(t, 1, counts["songs"])
	require.EqualValues(t, 2, counts["time"])

	_, err = database.Songs().Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUsers_UpsertUpdatesLevel(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.Users().Upsert(ctx, model.User{UserID: 80, FirstName: "Tegan", LastName: "Levine", Gender: "F", Level: "free"}))
	require.NoError(t, database.Users().Upsert(ctx, model.User{UserID: 80, FirstName: "Tegan", LastName: "Levine", Gender: "F", Level: "paid"}))

	user, err := database.Users().Get(ctx, 80)
	require.NoError(t, err)
	require.Equal(t, "paid", user.Level)

	counts, err := database.Counts(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, counts["users"])

	_, err = database.Users().Get(ctx, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSongIndex(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.Artists().Insert(ctx, testArtist))
	require.NoError(t, database.Songs().Insert(ctx, testSong))

	idx, err := database.Songs().Index(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, idx.Len())

	m, ok := idx.Lookup("Setanta matins", "Elena", 269.58322)
	require.True(t, ok)
	require.Equal(t, testSong.SongID, m.SongID)
	require.Equal(t, testArtist.ArtistID, m.ArtistID)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	err := database.WithTx(ctx, func(tx *Tx) error {
		require.NoError(t, tx.Artists().Insert(ctx, testArtist))
		// Unknown user and time violate the songplay foreign keys.
		return tx.Songplays().Insert(ctx, model.Songplay{StartTime: testStart, UserID: 99, Level: "free", SessionID: 1})
	})
	require.Error(t, err)

	counts, err := database.Counts(ctx)
	require.NoError(t, err)
	require.Zero(t, counts["artists"], "artist insert rolled back with the failing songplay")
}

func TestSongplays_BatchAndAggregates(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	users := []model.User{
		{UserID: 15, FirstName: "Lily", LastName: "Koch", Gender: "F", Level: "paid"},
		{UserID: 26, FirstName: "Ryan", LastName: "Smith", Gender: "M", Level: "free"},
		{UserID: 49, FirstName: "Chloe", LastName: "Cuevas", Gender: "F", Level: "paid"},
	}
	var plays []model.Songplay
	var times []model.Time
	add := func(uid int, level string, songID, artistID *string) {
		ts := testStart.Add(time.Duration(len(plays)) * time.Minute)
		times = append(times, model.NewTime(ts))
		plays = append(plays, model.Songplay{StartTime: ts, UserID: uid, Level: level, SongID: songID, ArtistID: artistID, SessionID: 818, Location: "Chicago", UserAgent: "Mozilla/5.0"})
	}
	add(26, "free", nil, nil)
	add(15, "paid", &testSong.SongID, &testArtist.ArtistID)
	add(15, "paid", nil, nil)
	add(49, "paid", nil, nil)
	add(49, "paid", nil, nil)

	require.NoError(t, database.WithTx(ctx, func(tx *Tx) error {
		require.NoError(t, tx.Artists().Insert(ctx, testArtist))
		require.NoError(t, tx.Songs().Insert(ctx, testSong))
		for _, u := range users {
			require.NoError(t, tx.Users().Upsert(ctx, u))
		}
		require.NoError(t, tx.Times().InsertBatch(ctx, times))
		return tx.Songplays().InsertBatch(ctx, plays)
	}))

	got, err := database.Songplays().List(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(plays))
	for i := range plays {
		require.True(t, plays[i].StartTime.Equal(got[i].StartTime))
		require.Equal(t, plays[i].UserID, got[i].UserID)
		require.Equal(t, plays[i].SongID, got[i].SongID)
	}

	top, err := database.Songplays().TopUsers(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []model.PlayCount{
		{Key: "15", Label: "Lily Koch", Plays: 2},
		{Key: "49", Label: "Chloe Cuevas", Plays: 2},
		{Key: "26", Label: "Ryan Smith", Plays: 1},
	}, top)

	levels, err := database.Songplays().ByLevel(ctx)
	require.NoError(t, err)
	require.Equal(t, []model.PlayCount{
		{Key: "paid", Label: "paid", Plays: 4},
		{Key: "free", Label: "free", Plays: 1},
	}, levels)

	genders, err := database.Songplays().ByGender(ctx)
	require.NoError(t, err)
	require.Equal(t, []model.PlayCount{
		{Key: "F", Label: "F", Plays: 4},
		{Key: "M", Label: "M", Plays: 1},
	}, genders)
}

func TestRecreateDatabase(t *testing.T) {
	url := testinfra.Postgres(t)
	adminURL := testinfra.WithDatabase(t, url, "postgres")
	scratchURL := testinfra.WithDatabase(t, url, "sparkify_scratch")
	ctx := context.Background()

	require.NoError(t, RecreateDatabase(ctx, adminURL, "sparkify_scratch"))

	scratch, err := New(ctx, scratchURL)
	require.NoError(t, err)
	require.NoError(t, scratch.CreateTables(ctx))
	scratch.Close()

	require.NoError(t, RecreateDatabase(ctx, adminURL, "sparkify_scratch"), "drops the existing database")

	scratch, err = New(ctx, scratchURL)
	require.NoError(t, err)
	defer scratch.Close()

	var songplays *string
	require.NoError(t, scratch.Pool().QueryRow(ctx, `SELECT to_regclass('songplays')::text`).Scan(&songplays))
	require.Nil(t, songplays, "tables are gone after recreate")

	var encoding string
	require.NoError(t, scratch.Pool().QueryRow(ctx,
		`SELECT pg_encoding_to_char(encoding) FROM pg_database WHERE datname = $1`, "sparkify_scratch",
	).Scan(&encoding))
	require.Equal(t, "UTF8", encoding)
}

func TestRecreateDatabase_BadAdminURL(t *testing.T) {
	err := RecreateDatabase(context.Background(), "://not a url", "sparkifydb")
	require.ErrorContains(t, err, "connecting to maintenance database")
}

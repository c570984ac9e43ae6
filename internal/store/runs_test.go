package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenInMemory()
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func testRun(id string, date time.Time, km float64, seconds int) Run {
	r := Run{
		ID:       id,
		OwnerID:  "athlete-1",
		Date:     date,
		Distance: km,
		Duration: seconds,
		Calories: int(km * 60),
		Type:     RunEasy,
	}
	if err := r.Normalize(); err != nil {
		panic(err)
	}
	return r
}

func TestAppendAndListRuns(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	older := testRun("a", time.Date(2024, 1, 2, 7, 30, 0, 0, time.UTC), 5, 1500)
	newer := testRun("b", time.Date(2024, 1, 9, 18, 0, 0, 0, time.UTC), 0.8, 192)
	newer.Type = RunInterval
	newer.Coordinates = []Coordinate{
		{Latitude: 48.8566, Longitude: 2.3522, Timestamp: 1704823200000},
		{Latitude: 48.8570, Longitude: 2.3530, Timestamp: 1704823260000},
	}
	newer.StartLocation = &LatLng{Latitude: 48.8566, Longitude: 2.3522}
	newer.EndLocation = &LatLng{Latitude: 48.8570, Longitude: 2.3530}

	require.NoError(t, db.AppendRun(ctx, older))
	require.NoError(t, db.AppendRun(ctx, newer))

	runs, err := db.ListRuns(ctx, "athlete-1")
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Most recent first
	assert.Equal(t, "b", runs[0].ID)
	assert.Equal(t, "a", runs[1].ID)

	got := runs[0]
	assert.True(t, got.Date.Equal(newer.Date))
	assert.Equal(t, 0.8, got.Distance)
	assert.Equal(t, 192, got.Duration)
	assert.Equal(t, "4:00", got.Pace)
	assert.Equal(t, RunInterval, got.Type)
	assert.Equal(t, newer.Coordinates, got.Coordinates)
	assert.Equal(t, newer.StartLocation, got.StartLocation)
	assert.Equal(t, newer.EndLocation, got.EndLocation)

	assert.Empty(t, runs[1].Coordinates)
	assert.NotNil(t, runs[1].Coordinates)
	assert.Nil(t, runs[1].StartLocation)
}

func TestListRuns_ScopedByOwner(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	mine := testRun("a", time.Date(2024, 1, 2, 7, 30, 0, 0, time.UTC), 5, 1500)
	theirs := testRun("b", time.Date(2024, 1, 2, 7, 30, 0, 0, time.UTC), 5, 1500)
	theirs.OwnerID = "athlete-2"
	require.NoError(t, db.AppendRun(ctx, mine))
	require.NoError(t, db.AppendRun(ctx, theirs))

	runs, err := db.ListRuns(ctx, "athlete-1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "a", runs[0].ID)

	none, err := db.ListRuns(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestAppendRun_RequiresID(t *testing.T) {
	db := setupTestDB(t)

	r := testRun("", time.Date(2024, 1, 2, 7, 30, 0, 0, time.UTC), 5, 1500)
	err := db.AppendRun(context.Background(), r)
	assert.ErrorIs(t, err, ErrInvalidRun)
}

func TestAppendRun_DuplicateID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testRun("a", time.Date(2024, 1, 2, 7, 30, 0, 0, time.UTC), 5, 1500)
	require.NoError(t, db.AppendRun(ctx, r))
	assert.Error(t, db.AppendRun(ctx, r))
}

func TestUpdateRun(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testRun("a", time.Date(2024, 1, 2, 7, 30, 0, 0, time.UTC), 5, 1500)
	require.NoError(t, db.AppendRun(ctx, r))

	r.Distance = 10
	r.Duration = 2700
	r.Type = RunLong
	require.NoError(t, r.Normalize())
	require.NoError(t, db.UpdateRun(ctx, r))

	got, err := db.GetRun(ctx, "athlete-1", "a")
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Distance)
	assert.Equal(t, 2700, got.Duration)
	assert.Equal(t, "4:30", got.Pace)
	assert.Equal(t, RunLong, got.Type)
}

func TestUpdateRun_NotFound(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testRun("missing", time.Date(2024, 1, 2, 7, 30, 0, 0, time.UTC), 5, 1500)
	err := db.UpdateRun(ctx, r)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	// Another owner's run is not reachable
	require.NoError(t, db.AppendRun(ctx, r))
	r.OwnerID = "athlete-2"
	assert.ErrorIs(t, db.UpdateRun(ctx, r), ErrRunNotFound)
}

func TestDeleteRun(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testRun("a", time.Date(2024, 1, 2, 7, 30, 0, 0, time.UTC), 5, 1500)
	require.NoError(t, db.AppendRun(ctx, r))

	assert.ErrorIs(t, db.DeleteRun(ctx, "athlete-2", "a"), ErrRunNotFound)
	require.NoError(t, db.DeleteRun(ctx, "athlete-1", "a"))
	assert.ErrorIs(t, db.DeleteRun(ctx, "athlete-1", "a"), ErrRunNotFound)

	_, err := db.GetRun(ctx, "athlete-1", "a")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunDate_KeepsOffset(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	paris := time.FixedZone("CET", 3600)
	date := time.Date(2024, 1, 7, 23, 30, 0, 123000000, paris)
	require.NoError(t, db.AppendRun(ctx, testRun("a", date, 5, 1500)))

	got, err := db.GetRun(ctx, "athlete-1", "a")
	require.NoError(t, err)
	assert.True(t, got.Date.Equal(date))

	_, offset := got.Date.Zone()
	assert.Equal(t, 3600, offset)
	assert.Equal(t, 23, got.Date.Hour())
}

func TestListRuns_OrdersByInstantAcrossOffsets(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Sorts after "late" as text but happened 30 minutes earlier
	early := time.Date(2024, 1, 8, 0, 30, 0, 0, time.FixedZone("EET", 2*3600))
	late := time.Date(2024, 1, 7, 23, 0, 0, 0, time.UTC)
	require.NoError(t, db.AppendRun(ctx, testRun("early", early, 5, 1500)))
	require.NoError(t, db.AppendRun(ctx, testRun("late", late, 5, 1500)))

	runs, err := db.ListRuns(ctx, "athlete-1")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "late", runs[0].ID)
	assert.Equal(t, "early", runs[1].ID)
}

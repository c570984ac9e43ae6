package store

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	r := Run{
		Date:     time.Date(2024, 1, 7, 10, 0, 0, 123456789, time.UTC),
		Distance: 1.5,
		Duration: 540,
		Pace:     "9:99",
	}
	require.NoError(t, r.Normalize())

	assert.Equal(t, "6:00", r.Pace)
	assert.Equal(t, RunEasy, r.Type)
	assert.NotNil(t, r.Coordinates)
	assert.Equal(t, 123000000, r.Date.Nanosecond())
}

func TestNormalize_ZeroDistance(t *testing.T) {
	r := Run{Date: time.Now(), Duration: 600}
	require.NoError(t, r.Normalize())
	assert.Equal(t, "0:00", r.Pace)
}

func TestNormalize_Invalid(t *testing.T) {
	base := func() Run {
		return Run{Date: time.Date(2024, 1, 7, 10, 0, 0, 0, time.UTC), Distance: 5, Duration: 1500}
	}

	tests := []struct {
		name   string
		modify func(r *Run)
	}{
		{"missing date", func(r *Run) { r.Date = time.Time{} }},
		{"negative distance", func(r *Run) { r.Distance = -1 }},
		{"NaN distance", func(r *Run) { r.Distance = math.NaN() }},
		{"infinite distance", func(r *Run) { r.Distance = math.Inf(1) }},
		{"negative duration", func(r *Run) { r.Duration = -5 }},
		{"negative calories", func(r *Run) { r.Calories = -5 }},
		{"unknown type", func(r *Run) { r.Type = "sprint" }},
		{"latitude out of range", func(r *Run) {
			r.Coordinates = []Coordinate{{Latitude: 91, Longitude: 0, Timestamp: 1}}
		}},
		{"timestamps go backwards", func(r *Run) {
			r.Coordinates = []Coordinate{
				{Latitude: 48, Longitude: 2, Timestamp: 2000},
				{Latitude: 48, Longitude: 2, Timestamp: 1000},
			}
		}},
		{"start location out of range", func(r *Run) { r.StartLocation = &LatLng{Latitude: 0, Longitude: 181} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.modify(&r)
			assert.ErrorIs(t, r.Normalize(), ErrInvalidRun)
		})
	}
}

func TestParseRunType(t *testing.T) {
	for _, rt := range RunTypes {
		got, err := ParseRunType(string(rt))
		require.NoError(t, err)
		assert.Equal(t, rt, got)
	}

	_, err := ParseRunType("jog")
	assert.ErrorIs(t, err, ErrInvalidRun)
}

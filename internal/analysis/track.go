package analysis

import (
	"fmt"
	"math"
	"time"

	"stride/internal/store"
)

const (
	// EarthRadiusKm is the mean Earth radius used for great-circle distances
	EarthRadiusKm = 6371.0088

	// CaloriesPerKm is the flat energy estimate applied when a run has no calorie count
	CaloriesPerKm = 60

	// MinTrackSamples is the minimum number of GPS samples that make a run
	MinTrackSamples = 2
)

// HaversineKm returns the great-circle distance between two positions in km
func HaversineKm(a, b store.LatLng) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// TrackDistance sums the segment lengths of a GPS track in km
func TrackDistance(samples []store.Coordinate) float64 {
	var total float64
	for i := 1; i < len(samples); i++ {
		total += HaversineKm(latLng(samples[i-1]), latLng(samples[i]))
	}
	return total
}

// EstimateCalories returns floor(km * CaloriesPerKm)
func EstimateCalories(km float64) int {
	if km <= 0 {
		return 0
	}
	return int(math.Floor(km * CaloriesPerKm))
}

// BuildRunFromTrack turns raw GPS samples into a normalized run.
// The run starts at the first sample and lasts until the last one; distance
// is rounded to the meter. The id is left for the caller to assign.
func BuildRunFromTrack(ownerID string, runType store.RunType, samples []store.Coordinate) (store.Run, error) {
	if len(samples) < MinTrackSamples {
		return store.Run{}, fmt.Errorf("%w: a track needs at least %d samples, got %d",
			store.ErrInvalidRun, MinTrackSamples, len(samples))
	}
	if err := store.ValidateCoordinates(samples); err != nil {
		return store.Run{}, err
	}

	first, last := samples[0], samples[len(samples)-1]
	km := math.Round(TrackDistance(samples)*1000) / 1000
	elapsed := time.Duration(last.Timestamp-first.Timestamp) * time.Millisecond

	start, end := latLng(first), latLng(last)
	run := store.Run{
		OwnerID:       ownerID,
		Date:          first.Time(),
		Distance:      km,
		Duration:      int(elapsed.Round(time.Second) / time.Second),
		Calories:      EstimateCalories(km),
		Type:          runType,
		Coordinates:   append([]store.Coordinate(nil), samples...),
		StartLocation: &start,
		EndLocation:   &end,
	}
	if err := run.Normalize(); err != nil {
		return store.Run{}, err
	}
	return run, nil
}

func latLng(c store.Coordinate) store.LatLng {
	return store.LatLng{Latitude: c.Latitude, Longitude: c.Longitude}
}

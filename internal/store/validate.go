package store

import (
	"fmt"
	"math"
	"time"

	"stride/internal/racetime"
)

// Normalize validates r and recomputes its derived fields: the pace string is
// rebuilt from duration and distance, the date is truncated to milliseconds and
// an empty type defaults to easy. Errors wrap ErrInvalidRun.
func (r *Run) Normalize() error {
	if r.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidRun)
	}
	if !finite(r.Distance) || r.Distance < 0 {
		return fmt.Errorf("%w: distance must be a finite non-negative number, got %v", ErrInvalidRun, r.Distance)
	}
	if r.Duration < 0 {
		return fmt.Errorf("%w: duration must be non-negative, got %d", ErrInvalidRun, r.Duration)
	}
	if r.Calories < 0 {
		return fmt.Errorf("%w: calories must be non-negative, got %d", ErrInvalidRun, r.Calories)
	}

	if r.Type == "" {
		r.Type = RunEasy
	}
	if !validRunType(r.Type) {
		return fmt.Errorf("%w: unknown run type %q", ErrInvalidRun, r.Type)
	}

	if err := ValidateCoordinates(r.Coordinates); err != nil {
		return err
	}
	for _, loc := range []*LatLng{r.StartLocation, r.EndLocation} {
		if loc != nil && !validLatLng(loc.Latitude, loc.Longitude) {
			return fmt.Errorf("%w: location out of range (%v, %v)", ErrInvalidRun, loc.Latitude, loc.Longitude)
		}
	}
	if r.Coordinates == nil {
		r.Coordinates = []Coordinate{}
	}

	r.Date = r.Date.Truncate(time.Millisecond)
	r.Pace = racetime.FormatPace(r.PaceSeconds())
	return nil
}

// ValidateCoordinates checks that every sample is on the globe and that
// timestamps never go backwards
func ValidateCoordinates(coords []Coordinate) error {
	for i, c := range coords {
		if !validLatLng(c.Latitude, c.Longitude) {
			return fmt.Errorf("%w: coordinate %d out of range (%v, %v)", ErrInvalidRun, i, c.Latitude, c.Longitude)
		}
		if i > 0 && c.Timestamp < coords[i-1].Timestamp {
			return fmt.Errorf("%w: coordinate %d timestamp goes backwards", ErrInvalidRun, i)
		}
	}
	return nil
}

// ParseRunType converts a string to a RunType
func ParseRunType(s string) (RunType, error) {
	t := RunType(s)
	if !validRunType(t) {
		return "", fmt.Errorf("%w: unknown run type %q", ErrInvalidRun, s)
	}
	return t, nil
}

func validRunType(t RunType) bool {
	for _, known := range RunTypes {
		if t == known {
			return true
		}
	}
	return false
}

func validLatLng(lat, lng float64) bool {
	return finite(lat) && finite(lng) && lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

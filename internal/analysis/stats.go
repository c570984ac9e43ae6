package analysis

import (
	"time"

	"stride/internal/racetime"
	"stride/internal/store"
)

// PeriodStats holds aggregated stats for a time period
type PeriodStats struct {
	Period        Period  `json:"period"`
	TotalDistance float64 `json:"totalDistance"` // km
	TotalRuns     int     `json:"totalRuns"`
	TotalDuration int     `json:"totalDuration"` // seconds
	AveragePace   string  `json:"averagePace"`
	TotalCalories int     `json:"totalCalories"`
}

// RunsForPeriod returns the runs dated within the period of the given kind
// containing t. Input order is kept.
func RunsForPeriod(kind PeriodKind, t time.Time, runs []store.Run) []store.Run {
	return filterRuns(PeriodFor(kind, t), runs)
}

// StatsForPeriod sums the runs dated within the period of the given kind
// containing t. An empty period yields zero totals and a "0:00" pace.
func StatsForPeriod(kind PeriodKind, t time.Time, runs []store.Run) PeriodStats {
	return aggregate(PeriodFor(kind, t), runs)
}

// Trend returns stats for the n consecutive periods ending with the one
// containing t, oldest first
func Trend(kind PeriodKind, t time.Time, n int, runs []store.Run) []PeriodStats {
	if n <= 0 {
		return []PeriodStats{}
	}

	// Walk back from the period start so clamped month days never drift
	current := periodStart(kind, t)
	stats := make([]PeriodStats, n)
	for i := 0; i < n; i++ {
		ref := current
		for j := 0; j < n-1-i; j++ {
			ref = Shift(kind, Previous, ref)
		}
		stats[i] = aggregate(PeriodFor(kind, ref), runs)
	}
	return stats
}

func filterRuns(p Period, runs []store.Run) []store.Run {
	filtered := []store.Run{}
	for _, r := range runs {
		if p.Contains(r.Date) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func aggregate(p Period, runs []store.Run) PeriodStats {
	stats := PeriodStats{Period: p}
	for _, r := range runs {
		if !p.Contains(r.Date) {
			continue
		}
		stats.TotalRuns++
		stats.TotalDistance += r.Distance
		stats.TotalDuration += r.Duration
		stats.TotalCalories += r.Calories
	}

	var pace float64
	if stats.TotalDistance > 0 {
		pace = float64(stats.TotalDuration) / stats.TotalDistance
	}
	stats.AveragePace = racetime.FormatPace(pace)
	return stats
}

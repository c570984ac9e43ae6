package analysis

import (
	"time"

	"stride/internal/racetime"
	"stride/internal/store"
)

// StandardDistance is a race distance with the band of recorded distances
// accepted as a run over it
type StandardDistance struct {
	Label  string
	Meters float64
	MinKm  float64
	MaxKm  float64
}

// Km returns the nominal distance in kilometers
func (d StandardDistance) Km() float64 {
	return d.Meters / 1000
}

// Accepts reports whether a recorded distance in km falls within the band
func (d StandardDistance) Accepts(km float64) bool {
	return km >= d.MinKm && km <= d.MaxKm
}

// StandardDistances are the distances personal records are projected onto
var StandardDistances = []StandardDistance{
	{Label: "100m", Meters: 100, MinKm: 0.09, MaxKm: 0.11},
	{Label: "400m", Meters: 400, MinKm: 0.39, MaxKm: 0.41},
	{Label: "800m", Meters: 800, MinKm: 0.79, MaxKm: 0.81},
	{Label: "1500m", Meters: 1500, MinKm: 1.49, MaxKm: 1.51},
	{Label: "5000m", Meters: 5000, MinKm: 4.9, MaxKm: 5.1},
	{Label: "10000m", Meters: 10000, MinKm: 9.9, MaxKm: 10.1},
	{Label: "21097m", Meters: 21097, MinKm: 21.0, MaxKm: 21.2},
	{Label: "42195m", Meters: 42195, MinKm: 42.0, MaxKm: 42.3},
}

// LookupDistance returns the standard distance with the given label
func LookupDistance(label string) (StandardDistance, bool) {
	for _, d := range StandardDistances {
		if d.Label == label {
			return d, true
		}
	}
	return StandardDistance{}, false
}

// PersonalRecord is the best run in a distance band, projected onto the
// exact standard distance at constant pace
type PersonalRecord struct {
	Distance string        `json:"distance"`
	Meters   float64       `json:"meters"`
	Time     string        `json:"time"`
	Date     time.Time     `json:"date"`
	RunID    string        `json:"runId"`
	Elapsed  time.Duration `json:"-"`
}

// ProjectPersonalRecords picks, for every standard distance, the fastest-paced
// run within its band and projects its time onto the nominal distance.
// Pace ties go to the earliest run, then the smallest id. Distances without a
// matching run are omitted.
func ProjectPersonalRecords(runs []store.Run) []PersonalRecord {
	records := []PersonalRecord{}
	for _, d := range StandardDistances {
		best := fastestInBand(d, runs)
		if best == nil {
			continue
		}

		elapsed := racetime.FromSeconds(best.PaceSeconds() * d.Km())
		records = append(records, PersonalRecord{
			Distance: d.Label,
			Meters:   d.Meters,
			Time:     racetime.Format(elapsed),
			Date:     best.Date,
			RunID:    best.ID,
			Elapsed:  elapsed,
		})
	}
	return records
}

// FindPersonalRecord returns the record for a distance label
func FindPersonalRecord(records []PersonalRecord, distance string) (PersonalRecord, bool) {
	for _, r := range records {
		if r.Distance == distance {
			return r, true
		}
	}
	return PersonalRecord{}, false
}

func fastestInBand(d StandardDistance, runs []store.Run) *store.Run {
	var best *store.Run
	for i := range runs {
		r := &runs[i]
		if r.Distance <= 0 || r.Duration <= 0 || !d.Accepts(r.Distance) {
			continue
		}
		if best == nil || faster(r, best) {
			best = r
		}
	}
	return best
}

func faster(a, b *store.Run) bool {
	pa, pb := a.PaceSeconds(), b.PaceSeconds()
	if pa != pb {
		return pa < pb
	}
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.ID < b.ID
}

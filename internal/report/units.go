package report

import (
	"fmt"

	"stride/internal/config"
	"stride/internal/racetime"
)

const kmPerMile = 1.609344

// Units provides unit conversion and formatting based on user preferences.
// Runs are stored in km; only the display changes.
type Units struct {
	cfg config.DisplayConfig
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg}
}

// FormatDistance formats a distance in km in the user's preferred unit
func (u Units) FormatDistance(km float64) string {
	return fmt.Sprintf("%s %s", u.FormatDistanceValue(km), u.DistanceLabel())
}

// FormatDistanceValue returns just the numeric distance value (no unit label)
func (u Units) FormatDistanceValue(km float64) string {
	return fmt.Sprintf("%.2f", u.ConvertDistance(km))
}

// ConvertDistance converts km to the user's distance unit
func (u Units) ConvertDistance(km float64) float64 {
	if u.IsMiles() {
		return km / kmPerMile
	}
	return km
}

// FormatPace formats a per-km pace string ("m:ss") in the user's pace unit
func (u Units) FormatPace(seconds int, km float64) string {
	if km <= 0 || seconds <= 0 {
		return "-"
	}
	perKm := float64(seconds) / km
	if u.cfg.PaceUnit == "min/mi" {
		return racetime.FormatPace(perKm * kmPerMile)
	}
	return racetime.FormatPace(perKm)
}

// FormatPaceWithUnit formats pace with the unit label
func (u Units) FormatPaceWithUnit(seconds int, km float64) string {
	pace := u.FormatPace(seconds, km)
	if pace == "-" {
		return pace
	}
	return pace + " " + u.PaceLabel()
}

// DistanceLabel returns the short unit label ("mi" or "km")
func (u Units) DistanceLabel() string {
	if u.IsMiles() {
		return "mi"
	}
	return "km"
}

// PaceLabel returns the pace unit label ("min/mi" or "min/km")
func (u Units) PaceLabel() string {
	if u.cfg.PaceUnit == "min/mi" {
		return "min/mi"
	}
	return "min/km"
}

// IsMiles returns true if distance unit is miles
func (u Units) IsMiles() bool {
	return u.cfg.DistanceUnit == "mi"
}

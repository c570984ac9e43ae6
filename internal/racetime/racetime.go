// Package racetime converts between durations and the "m:ss" strings used for
// race times and paces.
package racetime

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Centisecond is the resolution of every race time handled by the engine.
// Projected and official times are compared at this resolution.
const Centisecond = 10 * time.Millisecond

// ErrInvalidTime is returned when a race time string cannot be parsed
var ErrInvalidTime = errors.New("invalid race time")

// Round rounds d to the nearest centisecond
func Round(d time.Duration) time.Duration {
	return d.Round(Centisecond)
}

// FromSeconds converts fractional seconds to a centisecond-rounded duration
func FromSeconds(seconds float64) time.Duration {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0
	}
	return time.Duration(math.Round(seconds*100)) * Centisecond
}

// Format renders d as "m:ss" (minutes unbounded) or as bare seconds below one
// minute. A ".cc" suffix is added only when the centisecond part is non-zero,
// so 360s is "6:00" and 100.91s is "1:40.91".
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	cs := int64(Round(d) / Centisecond)
	secs, frac := cs/100, cs%100

	var out string
	if secs >= 60 {
		out = fmt.Sprintf("%d:%02d", secs/60, secs%60)
	} else {
		out = strconv.FormatInt(secs, 10)
	}
	if frac != 0 {
		out += fmt.Sprintf(".%02d", frac)
	}
	return out
}

// Parse reads "s", "s.cc", "m:ss", "m:ss.cc" or "h:mm:ss[.cc]".
// Parse(Format(d)) == Round(d) for every non-negative d.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTime)
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	var cs int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 || !allDigits(frac) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		n, _ := strconv.ParseInt(frac, 10, 64)
		if len(frac) == 1 {
			n *= 10
		}
		cs = n
	}

	parts := strings.Split(whole, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	var total int64
	for i, p := range parts {
		if !allDigits(p) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		// every component after the first is a base-60 digit pair
		if i > 0 && (len(p) != 2 || n >= 60) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		total = total*60 + n
	}

	return time.Duration(total*100+cs) * Centisecond, nil
}

// MustParse is Parse for static tables; it panics on malformed input.
func MustParse(s string) time.Duration {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FormatPace formats a pace in seconds per km as "m:ss", truncating partial
// seconds. Zero, negative and non-finite paces render as "0:00".
func FormatPace(secondsPerKm float64) string {
	if math.IsNaN(secondsPerKm) || math.IsInf(secondsPerKm, 0) || secondsPerKm <= 0 {
		return "0:00"
	}
	// 192s over 0.8km must stay 4:00 even when the division lands just below 240
	total := int64(math.Floor(secondsPerKm + 1e-9))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatClock formats whole seconds as "H:MM:SS" or "M:SS"
func FormatClock(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

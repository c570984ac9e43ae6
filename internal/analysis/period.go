package analysis

import (
	"fmt"
	"strings"
	"time"
)

// PeriodKind is a calendar period granularity
type PeriodKind string

const (
	PeriodDay   PeriodKind = "day"
	PeriodWeek  PeriodKind = "week"
	PeriodMonth PeriodKind = "month"
	PeriodYear  PeriodKind = "year"
)

// PeriodKinds lists every supported kind
var PeriodKinds = []PeriodKind{PeriodDay, PeriodWeek, PeriodMonth, PeriodYear}

// Tick is the resolution of period boundaries: a period ends one Tick before
// the next one starts.
const Tick = time.Millisecond

// ParsePeriodKind converts a string to a PeriodKind
func ParsePeriodKind(s string) (PeriodKind, error) {
	k := PeriodKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return k, nil
	}
	return "", fmt.Errorf("unknown period %q (want day, week, month or year)", s)
}

// Direction moves a reference instant backwards or forwards
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

// ParseDirection converts "previous"/"prev" or "next" to a Direction
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "previous", "prev":
		return Previous, nil
	case "next":
		return Next, nil
	}
	return 0, fmt.Errorf("unknown direction %q (want previous or next)", s)
}

// Period is an inclusive calendar window [Start, End]
type Period struct {
	Kind  PeriodKind `json:"kind"`
	Start time.Time  `json:"start"`
	End   time.Time  `json:"end"`
	Label string     `json:"label"`
}

// Contains reports whether t falls within the period, both ends included
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// PeriodFor returns the period of the given kind containing t, in t's location.
// Weeks run Monday to Sunday.
func PeriodFor(kind PeriodKind, t time.Time) Period {
	start := periodStart(kind, t)
	return Period{
		Kind:  kind,
		Start: start,
		End:   nextPeriodStart(kind, start).Add(-Tick),
		Label: PeriodLabel(kind, t),
	}
}

// PeriodLabel returns a human label for the period containing t:
// "Monday, January 1", "Week of Jan 1 - Jan 7", "January 2024" or "2024".
func PeriodLabel(kind PeriodKind, t time.Time) string {
	start := periodStart(kind, t)
	switch kind {
	case PeriodWeek:
		last := nextPeriodStart(kind, start).AddDate(0, 0, -1)
		return fmt.Sprintf("Week of %s - %s", start.Format("Jan 2"), last.Format("Jan 2"))
	case PeriodMonth:
		return start.Format("January 2006")
	case PeriodYear:
		return start.Format("2006")
	default:
		return start.Format("Monday, January 2")
	}
}

// Shift moves t by one unit of kind in the given direction, keeping the wall
// clock time. Month and year shifts clamp the day to the end of the target
// month, so Jan 31 + 1 month is Feb 28/29 and never skips February.
func Shift(kind PeriodKind, dir Direction, t time.Time) time.Time {
	n := int(dir)
	switch kind {
	case PeriodWeek:
		return t.AddDate(0, 0, 7*n)
	case PeriodMonth:
		return addMonthsClamped(t, n)
	case PeriodYear:
		return addMonthsClamped(t, 12*n)
	default:
		return t.AddDate(0, 0, n)
	}
}

// periodStart returns local midnight of the first day of the period containing t
func periodStart(kind PeriodKind, t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch kind {
	case PeriodWeek:
		return getMonday(t)
	case PeriodMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case PeriodYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

func nextPeriodStart(kind PeriodKind, start time.Time) time.Time {
	switch kind {
	case PeriodWeek:
		return start.AddDate(0, 0, 7)
	case PeriodMonth:
		return start.AddDate(0, 1, 0)
	case PeriodYear:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// getMonday returns midnight of the Monday of t's ISO week
func getMonday(t time.Time) time.Time {
	daysFromMonday := (int(t.Weekday()) + 6) % 7 // Monday = 0
	monday := t.AddDate(0, 0, -daysFromMonday)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, monday.Location())
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

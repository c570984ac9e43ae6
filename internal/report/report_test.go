package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stride/internal/analysis"
	"stride/internal/config"
	"stride/internal/service"
	"stride/internal/store"
)

var testNow = time.Date(2024, 1, 9, 18, 0, 0, 0, time.UTC)

func newTestRenderer(unit string) *Renderer {
	cfg := config.DefaultConfig().Display
	if unit == "mi" {
		cfg = config.DisplayConfig{DistanceUnit: "mi", PaceUnit: "min/mi"}
	}
	return NewRenderer(NewUnits(cfg), func() time.Time { return testNow })
}

func TestUnits(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		km       float64
		seconds  int
		distance string
		pace     string
	}{
		{"km", "km", 10, 3000, "10.00 km", "5:00 min/km"},
		{"miles", "mi", 1.609344, 480, "1.00 mi", "8:00 min/mi"},
		{"zero distance", "km", 0, 600, "0.00 km", "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newTestRenderer(tt.unit).units
			assert.Equal(t, tt.distance, u.FormatDistance(tt.km))
			assert.Equal(t, tt.pace, u.FormatPaceWithUnit(tt.seconds, tt.km))
		})
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		percent int
		full    int
	}{
		{0, 0},
		{50, 5},
		{100, 10},
		{150, 10},
		{-5, 0},
	}

	for _, tt := range tests {
		bar := RenderProgressBar(tt.percent, 10)
		assert.Equal(t, tt.full, strings.Count(bar, "█"), "percent %d", tt.percent)
		assert.Equal(t, 10-tt.full, strings.Count(bar, "░"), "percent %d", tt.percent)
	}
}

func TestRuns(t *testing.T) {
	r := newTestRenderer("km")

	assert.Contains(t, r.Runs(nil), "No runs yet")

	out := r.Runs([]store.Run{{
		ID:       "run-1",
		Date:     time.Date(2024, 1, 8, 7, 30, 0, 0, time.Local),
		Distance: 10,
		Duration: 3000,
		Calories: 600,
		Type:     store.RunLong,
	}})
	assert.Contains(t, out, "2024-01-08 07:30")
	assert.Contains(t, out, "10.00 km")
	assert.Contains(t, out, "50:00")
	assert.Contains(t, out, "5:00")
	assert.Contains(t, out, "run-1")
}

func TestStats(t *testing.T) {
	r := newTestRenderer("km")
	stats := analysis.StatsForPeriod(analysis.PeriodWeek, testNow, []store.Run{
		{ID: "a", Date: testNow, Distance: 5, Duration: 1500, Calories: 1200},
		{ID: "b", Date: testNow, Distance: 10, Duration: 3300, Calories: 600},
	})

	out := r.Stats(stats)
	assert.Contains(t, out, "Week of Jan 8 - Jan 14")
	assert.Contains(t, out, "15.00 km")
	assert.Contains(t, out, "1:20:00")
	assert.Contains(t, out, "5:20 min/km")
	assert.Contains(t, out, "1,800")
}

func TestTrend(t *testing.T) {
	r := newTestRenderer("km")

	assert.Contains(t, r.Trend(nil), "No periods")

	trend := analysis.Trend(analysis.PeriodWeek, testNow, 4, []store.Run{
		{ID: "a", Date: testNow, Distance: 12, Duration: 3600},
		{ID: "b", Date: testNow.AddDate(0, 0, -14), Distance: 6, Duration: 1800},
	})
	out := r.Trend(trend)
	assert.Contains(t, out, "Distance (km)")
	assert.Contains(t, out, "Week of Jan 8 - Jan 14")
	assert.Contains(t, out, "12.0")

	single := r.Trend(trend[len(trend)-1:])
	assert.Contains(t, single, "12.00 km")
}

func TestRecords(t *testing.T) {
	r := newTestRenderer("km")

	assert.Contains(t, r.Records(nil), "No personal records")

	out := r.Records([]analysis.PersonalRecord{
		{Distance: "800m", Time: "1:38", Date: testNow, RunID: "r1"},
	})
	assert.Contains(t, out, "800m")
	assert.Contains(t, out, "1:38")
	assert.Contains(t, out, "r1")
}

func TestAchievements(t *testing.T) {
	r := newTestRenderer("km")
	unlocked := testNow.Add(-2 * time.Hour)

	catalog := service.DefaultCatalog()
	catalog[0].IsUnlocked = true
	catalog[0].UnlockedAt = &unlocked
	catalog[0].Progress = 100

	out := r.Achievements(catalog, service.ProgressSummary{Unlocked: 1, Total: len(catalog), Percentage: 5})
	assert.Contains(t, out, "Achievements 1/21 (5%)")
	assert.Contains(t, out, catalog[0].Title)
	assert.Contains(t, out, "unlocked 2 hours ago")
	for _, c := range store.Categories {
		assert.Contains(t, out, service.CategoryLabel(c))
	}
}

func TestNotificationsAndSaveResult(t *testing.T) {
	r := newTestRenderer("km")

	assert.Contains(t, r.Notifications(nil), "No notifications")

	log := []store.RewardNotification{{
		ID:          "n1",
		Title:       "New personal record!",
		Description: "800m: 1:38",
		Icon:        "🏆",
		Timestamp:   testNow.Add(-3 * time.Minute),
		Type:        store.NotifyPersonalRecord,
	}}
	out := r.Notifications(log)
	assert.Contains(t, out, "New personal record!")
	assert.Contains(t, out, "800m: 1:38")
	assert.Contains(t, out, "3 minutes ago")

	res := &service.SaveResult{
		Run:           store.Run{ID: "r1", Distance: 0.8, Duration: 98, Calories: 48},
		Notifications: log,
		EvaluationErr: errors.New("backend unavailable"),
	}
	out = r.SaveResult(res)
	assert.Contains(t, out, "Saved run r1")
	assert.Contains(t, out, "2:02 min/km")
	assert.Contains(t, out, "backend unavailable")
	assert.Contains(t, out, "800m: 1:38")
}

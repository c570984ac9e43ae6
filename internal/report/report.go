// Package report renders runs, statistics and achievements for the terminal
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"stride/internal/analysis"
	"stride/internal/racetime"
	"stride/internal/service"
	"stride/internal/store"
)

const lineWidth = 60

// Renderer turns query results into styled text
type Renderer struct {
	units Units
	now   func() time.Time
}

// NewRenderer creates a Renderer. now anchors relative times such as "2 hours ago".
func NewRenderer(units Units, now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{units: units, now: now}
}

// Runs renders a run table, newest first as given
func (r *Renderer) Runs(runs []store.Run) string {
	if len(runs) == 0 {
		return mutedStyle.Render("No runs yet. Add one with `stride add`.")
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-16s  %-8s  %10s  %8s  %11s  %5s  %s",
		"Date", "Type", "Distance", "Time", "Pace", "kcal", "ID"))

	rows := []string{header}
	for _, run := range runs {
		rows = append(rows, fmt.Sprintf("%-16s  %-8s  %10s  %8s  %11s  %5d  %s",
			run.Date.Local().Format("2006-01-02 15:04"),
			run.Type,
			r.units.FormatDistance(run.Distance),
			racetime.FormatClock(run.Duration),
			r.units.FormatPace(run.Duration, run.Distance),
			run.Calories,
			mutedStyle.Render(run.ID),
		))
	}
	return strings.Join(rows, "\n")
}

// Stats renders the totals of one period in a card
func (r *Renderer) Stats(stats analysis.PeriodStats) string {
	title := titleStyle.Render(stats.Period.Label)
	lines := []string{
		RenderMetric("Runs", fmt.Sprintf("%d", stats.TotalRuns)),
		RenderMetric("Distance", r.units.FormatDistance(stats.TotalDistance)),
		RenderMetric("Time", racetime.FormatClock(stats.TotalDuration)),
		RenderMetric("Avg pace", r.units.FormatPaceWithUnit(stats.TotalDuration, stats.TotalDistance)),
		RenderMetric("Calories", humanize.Comma(int64(stats.TotalCalories))),
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")))
}

// Trend renders a distance chart over consecutive periods, oldest first
func (r *Renderer) Trend(trend []analysis.PeriodStats) string {
	if len(trend) == 0 {
		return mutedStyle.Render("No periods to chart.")
	}

	data := make([]float64, len(trend))
	for i, s := range trend {
		data[i] = r.units.ConvertDistance(s.TotalDistance)
	}

	first, last := trend[0].Period.Label, trend[len(trend)-1].Period.Label
	caption := fmt.Sprintf("Distance (%s): %s to %s", r.units.DistanceLabel(), first, last)

	// asciigraph needs at least two points to draw a line
	if len(data) < 2 {
		return lipgloss.JoinVertical(lipgloss.Left,
			sectionHeader("Trend", lineWidth),
			RenderMetric(first, r.units.FormatDistance(trend[0].TotalDistance)),
		)
	}

	chart := asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Width(lineWidth),
		asciigraph.Precision(1),
		asciigraph.Caption(caption),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sectionHeader("Trend", lineWidth), chart)
}

// Records renders the projected personal records
func (r *Renderer) Records(records []analysis.PersonalRecord) string {
	if len(records) == 0 {
		return mutedStyle.Render("No personal records yet.")
	}

	lines := []string{
		sectionHeader("Personal Records", lineWidth),
		tableHeaderStyle.Render(fmt.Sprintf("%-10s  %10s  %-12s  %s", "Distance", "Time", "Date", "Run")),
	}
	for _, rec := range records {
		lines = append(lines, fmt.Sprintf("%-10s  %10s  %-12s  %s",
			rec.Distance,
			successStyle.Render(rec.Time),
			rec.Date.Local().Format("2006-01-02"),
			mutedStyle.Render(rec.RunID),
		))
	}
	return strings.Join(lines, "\n")
}

// Achievements renders the catalog grouped by category with progress bars
func (r *Renderer) Achievements(catalog []store.Achievement, summary service.ProgressSummary) string {
	sections := []string{
		titleStyle.Render(fmt.Sprintf("Achievements %d/%d (%d%%)", summary.Unlocked, summary.Total, summary.Percentage)),
	}

	for _, category := range store.Categories {
		var lines []string
		for _, a := range catalog {
			if a.Category != category {
				continue
			}
			lines = append(lines, r.achievementLine(a))
		}
		if len(lines) == 0 {
			continue
		}
		sections = append(sections, sectionHeader(service.CategoryLabel(category), lineWidth))
		sections = append(sections, lines...)
		sections = append(sections, "")
	}
	return strings.Join(sections, "\n")
}

func (r *Renderer) achievementLine(a store.Achievement) string {
	status := mutedStyle.Render("  ")
	if a.IsUnlocked {
		status = successStyle.Render("✓ ")
	}

	detail := ""
	switch {
	case a.IsUnlocked && a.UnlockedAt != nil:
		detail = mutedStyle.Render("unlocked " + humanize.RelTime(*a.UnlockedAt, r.now(), "ago", "from now"))
	case a.TargetTime != "":
		detail = mutedStyle.Render("target " + a.TargetTime)
	}

	return fmt.Sprintf("%s%s %-30s %s %3d%%  %s",
		status, a.Icon, a.Title, RenderProgressBar(a.Progress, 20), a.Progress, detail)
}

// Notifications renders the notification log, newest first
func (r *Renderer) Notifications(log []store.RewardNotification) string {
	if len(log) == 0 {
		return mutedStyle.Render("No notifications.")
	}

	lines := []string{sectionHeader("Notifications", lineWidth)}
	for _, n := range log {
		lines = append(lines, fmt.Sprintf("%s %s  %s  %s",
			n.Icon,
			metricValueStyle.Render(n.Title),
			n.Description,
			mutedStyle.Render(humanize.RelTime(n.Timestamp, r.now(), "ago", "from now")+" · "+n.ID),
		))
	}
	return strings.Join(lines, "\n")
}

// SaveResult renders a stored run and the notifications it produced
func (r *Renderer) SaveResult(res *service.SaveResult) string {
	run := res.Run
	lines := []string{
		successStyle.Render(fmt.Sprintf("Saved run %s", run.ID)),
		RenderMetric("Distance", r.units.FormatDistance(run.Distance)),
		RenderMetric("Time", racetime.FormatClock(run.Duration)),
		RenderMetric("Pace", r.units.FormatPaceWithUnit(run.Duration, run.Distance)),
		RenderMetric("Calories", fmt.Sprintf("%d", run.Calories)),
	}
	if res.EvaluationErr != nil {
		lines = append(lines, warningStyle.Render("Achievements not updated: "+res.EvaluationErr.Error()))
	}
	if len(res.Notifications) > 0 {
		lines = append(lines, "", r.Notifications(res.Notifications))
	}
	return strings.Join(lines, "\n")
}

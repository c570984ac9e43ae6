package service

import (
	"context"
	"fmt"
	"time"

	"stride/internal/analysis"
	"stride/internal/store"
)

// QueryService provides read-only views over an owner's runs
type QueryService struct {
	runs RunStore
}

// NewQueryService creates a new query service
func NewQueryService(runs RunStore) *QueryService {
	return &QueryService{runs: runs}
}

// Runs returns every run of an owner
func (q *QueryService) Runs(ctx context.Context, ownerID string) ([]store.Run, error) {
	runs, err := q.runs.ListRuns(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("loading runs: %w: %w", store.ErrStorageRead, err)
	}
	return runs, nil
}

// StatsForPeriod aggregates the owner's runs over the period containing t
func (q *QueryService) StatsForPeriod(ctx context.Context, ownerID string, kind analysis.PeriodKind, t time.Time) (analysis.PeriodStats, error) {
	runs, err := q.Runs(ctx, ownerID)
	if err != nil {
		return analysis.PeriodStats{}, err
	}
	return analysis.StatsForPeriod(kind, t, runs), nil
}

// RunsForPeriod returns the owner's runs within the period containing t
func (q *QueryService) RunsForPeriod(ctx context.Context, ownerID string, kind analysis.PeriodKind, t time.Time) ([]store.Run, error) {
	runs, err := q.Runs(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return analysis.RunsForPeriod(kind, t, runs), nil
}

// PeriodLabel returns the label of the period containing t
func (q *QueryService) PeriodLabel(kind analysis.PeriodKind, t time.Time) string {
	return analysis.PeriodLabel(kind, t)
}

// Navigate moves the reference instant one period back or forward and
// returns the new period
func (q *QueryService) Navigate(kind analysis.PeriodKind, dir analysis.Direction, t time.Time) (time.Time, analysis.Period) {
	next := analysis.Shift(kind, dir, t)
	return next, analysis.PeriodFor(kind, next)
}

// PersonalRecords projects the owner's best runs onto the standard distances
func (q *QueryService) PersonalRecords(ctx context.Context, ownerID string) ([]analysis.PersonalRecord, error) {
	runs, err := q.Runs(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return analysis.ProjectPersonalRecords(runs), nil
}

// Trend returns stats for the n periods ending with the one containing t
func (q *QueryService) Trend(ctx context.Context, ownerID string, kind analysis.PeriodKind, t time.Time, n int) ([]analysis.PeriodStats, error) {
	if n <= 0 {
		n = TrendPeriods
	}
	runs, err := q.Runs(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return analysis.Trend(kind, t, n, runs), nil
}

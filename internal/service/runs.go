package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"stride/internal/analysis"
	"stride/internal/logger"
	"stride/internal/store"
)

// RunService records runs and keeps achievements in step with them
type RunService struct {
	runs    RunStore
	rewards *RewardsService
	log     *logger.Logger
	newID   func() string
}

// NewRunService creates a run service. Saves and evaluations share the
// rewards service's per-owner lock.
func NewRunService(runs RunStore, rewards *RewardsService, log *logger.Logger) *RunService {
	if log == nil {
		log = logger.Nop()
	}
	return &RunService{runs: runs, rewards: rewards, log: log, newID: uuid.NewString}
}

// SaveResult is the outcome of a run write followed by an evaluation
type SaveResult struct {
	Run           store.Run                  `json:"run"`
	Notifications []store.RewardNotification `json:"notifications"`

	// EvaluationErr is set when the run was written but the achievement
	// evaluation failed; it is retried on the next save or evaluate call
	EvaluationErr error `json:"-"`
}

// SaveRun validates and stores a new run, then evaluates achievements.
// A missing id is generated. Calories of 0 count as not given and are
// estimated from distance, so a run cannot be stored with exactly 0 kcal.
func (s *RunService) SaveRun(ctx context.Context, run store.Run) (*SaveResult, error) {
	if run.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner is required", store.ErrInvalidRun)
	}
	if run.ID == "" {
		run.ID = s.newID()
	}
	if run.Calories == 0 {
		run.Calories = analysis.EstimateCalories(run.Distance)
	}
	if err := run.Normalize(); err != nil {
		return nil, err
	}

	unlock := s.rewards.locks.lock(run.OwnerID)
	defer unlock()

	if err := s.runs.AppendRun(ctx, run); err != nil {
		return nil, fmt.Errorf("saving run: %w: %w", store.ErrStorageWrite, err)
	}
	s.log.Info("run saved", "owner", run.OwnerID, "run", run.ID, "distance_km", run.Distance, "pace", run.Pace)

	return s.evaluateAfterWrite(ctx, run), nil
}

// UpdateRun replaces an existing run and re-evaluates achievements.
// Unlocked achievements stay unlocked even if the edit slows the run down.
func (s *RunService) UpdateRun(ctx context.Context, run store.Run) (*SaveResult, error) {
	if run.OwnerID == "" || run.ID == "" {
		return nil, fmt.Errorf("%w: owner and id are required", store.ErrInvalidRun)
	}
	if err := run.Normalize(); err != nil {
		return nil, err
	}

	unlock := s.rewards.locks.lock(run.OwnerID)
	defer unlock()

	if err := s.runs.UpdateRun(ctx, run); err != nil {
		return nil, wrapWrite("updating run", err)
	}
	s.log.Info("run updated", "owner", run.OwnerID, "run", run.ID)

	return s.evaluateAfterWrite(ctx, run), nil
}

// DeleteRun removes a run and re-evaluates achievements so threshold
// progress reflects the remaining runs
func (s *RunService) DeleteRun(ctx context.Context, ownerID, id string) error {
	unlock := s.rewards.locks.lock(ownerID)
	defer unlock()

	if err := s.runs.DeleteRun(ctx, ownerID, id); err != nil {
		return wrapWrite("deleting run", err)
	}
	s.log.Info("run deleted", "owner", ownerID, "run", id)

	if _, err := s.rewards.evaluateLocked(ctx, ownerID, nil, false); err != nil {
		s.log.Warn("achievement evaluation failed after delete", "owner", ownerID, "error", err)
	}
	return nil
}

// RecordTrack builds a run from raw GPS samples and saves it
func (s *RunService) RecordTrack(ctx context.Context, ownerID string, runType store.RunType, samples []store.Coordinate) (*SaveResult, error) {
	run, err := analysis.BuildRunFromTrack(ownerID, runType, samples)
	if err != nil {
		return nil, err
	}
	return s.SaveRun(ctx, run)
}

// evaluateAfterWrite evaluates under the lock the caller already holds.
// Evaluation failures never undo the run write.
func (s *RunService) evaluateAfterWrite(ctx context.Context, run store.Run) *SaveResult {
	result := &SaveResult{Run: run, Notifications: []store.RewardNotification{}}

	fresh, err := s.rewards.evaluateLocked(ctx, run.OwnerID, nil, false)
	if err != nil {
		s.log.Warn("achievement evaluation failed", "owner", run.OwnerID, "run", run.ID, "error", err)
		result.EvaluationErr = err
		return result
	}
	result.Notifications = fresh
	return result
}

// wrapWrite tags a store error as a write failure unless it is a not-found
// or validation error the caller should see as is
func wrapWrite(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidRun) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, store.ErrStorageWrite, err)
}

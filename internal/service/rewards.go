package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"stride/internal/analysis"
	"stride/internal/logger"
	"stride/internal/racetime"
	"stride/internal/store"
)

// RewardsService derives achievements and reward notifications from an
// owner's runs. Evaluations for one owner are serialized.
type RewardsService struct {
	runs    RunStore
	rewards RewardStore
	locks   *ownerLocks
	log     *logger.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures a RewardsService
type Option func(*RewardsService)

// WithClock overrides the time source used for unlock and notification times
func WithClock(now func() time.Time) Option {
	return func(s *RewardsService) { s.now = now }
}

// WithIDGenerator overrides the notification id generator
func WithIDGenerator(gen func() string) Option {
	return func(s *RewardsService) { s.newID = gen }
}

// NewRewardsService creates a rewards service over the given stores
func NewRewardsService(runs RunStore, rewards RewardStore, log *logger.Logger, opts ...Option) *RewardsService {
	if log == nil {
		log = logger.Nop()
	}
	s := &RewardsService{
		runs:    runs,
		rewards: rewards,
		locks:   newOwnerLocks(),
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProgressSummary counts unlocked achievements
type ProgressSummary struct {
	Unlocked   int `json:"unlocked"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// DefaultCatalog returns the full achievement catalog with every entry locked:
// one "first record" entry per personal distance, then one entry per official
// record in France, Europe and World order.
func DefaultCatalog() []store.Achievement {
	personal := categories[store.CategoryPersonal]
	catalog := []store.Achievement{}
	for _, d := range analysis.PersonalDistances {
		catalog = append(catalog, store.Achievement{
			ID:          fmt.Sprintf("%s_%s", store.CategoryPersonal, d),
			Title:       fmt.Sprintf("First %s record", d),
			Description: fmt.Sprintf("Set your first personal record over %s", d),
			Icon:        personal.Icon,
			Category:    store.CategoryPersonal,
			Distance:    d,
		})
	}

	for _, category := range store.Categories {
		if category == store.CategoryPersonal {
			continue
		}
		info := categories[category]
		for _, gender := range []store.Gender{store.GenderMen, store.GenderWomen} {
			for _, r := range analysis.RecordsFor(category) {
				if r.Gender != gender {
					continue
				}
				catalog = append(catalog, store.Achievement{
					ID:          fmt.Sprintf("%s_%s_%s", category, gender, r.Distance),
					Title:       fmt.Sprintf("%s %s (%s)", info.Record, r.Distance, genderMark(gender)),
					Description: fmt.Sprintf("Match or beat the %s %s over %s", genderPossessive(gender), info.Phrase, r.Distance),
					Icon:        info.Icon,
					Category:    category,
					Gender:      gender,
					Distance:    r.Distance,
					TargetTime:  r.Time,
				})
			}
		}
	}
	return catalog
}

// Catalog returns the owner's achievements, building and saving the default
// catalog on first access
func (s *RewardsService) Catalog(ctx context.Context, ownerID string) ([]store.Achievement, error) {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	stored, err := s.rewards.LoadCatalog(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w: %w", store.ErrStorageRead, err)
	}

	catalog, extended := reconcileCatalog(stored)
	if extended {
		if err := s.rewards.SaveCatalog(ctx, ownerID, catalog); err != nil {
			return nil, fmt.Errorf("saving catalog: %w: %w", store.ErrStorageWrite, err)
		}
		s.log.Info("achievement catalog initialized", "owner", ownerID, "entries", len(catalog))
	}
	return catalog, nil
}

// AchievementsByCategory returns the owner's achievements of one category
func (s *RewardsService) AchievementsByCategory(ctx context.Context, ownerID string, category store.AchievementCategory) ([]store.Achievement, error) {
	catalog, err := s.Catalog(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := []store.Achievement{}
	for _, a := range catalog {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out, nil
}

// UnlockedAchievements returns the owner's unlocked achievements in catalog order
func (s *RewardsService) UnlockedAchievements(ctx context.Context, ownerID string) ([]store.Achievement, error) {
	catalog, err := s.Catalog(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := []store.Achievement{}
	for _, a := range catalog {
		if a.IsUnlocked {
			out = append(out, a)
		}
	}
	return out, nil
}

// ProgressSummary returns how much of the catalog the owner has unlocked
func (s *RewardsService) ProgressSummary(ctx context.Context, ownerID string) (ProgressSummary, error) {
	catalog, err := s.Catalog(ctx, ownerID)
	if err != nil {
		return ProgressSummary{}, err
	}
	return summarize(catalog), nil
}

func summarize(catalog []store.Achievement) ProgressSummary {
	sum := ProgressSummary{Total: len(catalog)}
	for _, a := range catalog {
		if a.IsUnlocked {
			sum.Unlocked++
		}
	}
	if sum.Total > 0 {
		sum.Percentage = int(math.Round(float64(sum.Unlocked) / float64(sum.Total) * 100))
	}
	return sum
}

// Notifications returns the owner's notification log, most recent first
func (s *RewardsService) Notifications(ctx context.Context, ownerID string) ([]store.RewardNotification, error) {
	log, err := s.rewards.LoadNotifications(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("loading notifications: %w: %w", store.ErrStorageRead, err)
	}
	if len(log) > MaxNotifications {
		log = log[:MaxNotifications]
	}
	return log, nil
}

// MarkNotificationRead removes a notification from the owner's log
func (s *RewardsService) MarkNotificationRead(ctx context.Context, ownerID, id string) error {
	unlock := s.locks.lock(ownerID)
	defer unlock()

	log, err := s.rewards.LoadNotifications(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("loading notifications: %w: %w", store.ErrStorageRead, err)
	}

	kept := make([]store.RewardNotification, 0, len(log))
	for _, n := range log {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(log) {
		return fmt.Errorf("%w: %s", store.ErrNotificationNotFound, id)
	}

	if err := s.rewards.SaveNotifications(ctx, ownerID, kept); err != nil {
		return fmt.Errorf("saving notifications: %w: %w", store.ErrStorageWrite, err)
	}
	return nil
}

// Evaluate loads the owner's runs and updates achievements from them.
// It returns the notifications emitted for newly unlocked achievements.
func (s *RewardsService) Evaluate(ctx context.Context, ownerID string) ([]store.RewardNotification, error) {
	unlock := s.locks.lock(ownerID)
	defer unlock()
	return s.evaluateLocked(ctx, ownerID, nil, false)
}

// EvaluateRuns updates the owner's achievements from the given run set
// instead of the stored runs
func (s *RewardsService) EvaluateRuns(ctx context.Context, ownerID string, runs []store.Run) ([]store.RewardNotification, error) {
	unlock := s.locks.lock(ownerID)
	defer unlock()
	return s.evaluateLocked(ctx, ownerID, runs, true)
}

// rewardState is a snapshot of everything an evaluation reads
type rewardState struct {
	runs     []store.Run
	stored   []store.Achievement
	catalog  []store.Achievement
	extended bool // catalog gained default entries missing from stored
	log      []store.RewardNotification
}

// evaluateLocked runs one evaluation pass; the caller holds the owner lock.
// Either both the catalog and the notification log are written, or the
// stored state is left as it was before the call.
func (s *RewardsService) evaluateLocked(ctx context.Context, ownerID string, runs []store.Run, haveRuns bool) ([]store.RewardNotification, error) {
	st, err := s.load(ctx, ownerID, runs, haveRuns)
	if err != nil {
		return nil, err
	}

	records := analysis.ProjectPersonalRecords(st.runs)
	next, fresh, changed := s.apply(st.catalog, records, s.now())
	if !changed && !st.extended {
		s.log.Debug("evaluation found no changes", "owner", ownerID, "records", len(records))
		return []store.RewardNotification{}, nil
	}

	if err := s.rewards.SaveCatalog(ctx, ownerID, next); err != nil {
		// A failed write may have been partial
		return nil, s.restoreCatalog(ctx, ownerID, st.stored,
			fmt.Errorf("saving catalog: %w: %w", store.ErrStorageWrite, err))
	}

	if len(fresh) > 0 {
		merged := append(append([]store.RewardNotification{}, fresh...), st.log...)
		if len(merged) > MaxNotifications {
			merged = merged[:MaxNotifications]
		}
		if err := s.rewards.SaveNotifications(ctx, ownerID, merged); err != nil {
			return nil, s.restoreCatalog(ctx, ownerID, st.stored,
				fmt.Errorf("saving notifications: %w: %w", store.ErrStorageWrite, err))
		}
	}

	ids := make([]string, len(fresh))
	for i, n := range fresh {
		ids[i] = n.ID
	}
	s.log.Info("achievements evaluated", "owner", ownerID, "records", len(records),
		"unlocked", len(fresh), "notifications", ids)
	return fresh, nil
}

// restoreCatalog writes back the catalog read before a failed evaluation and
// returns werr, joined with the restore error if that fails too
func (s *RewardsService) restoreCatalog(ctx context.Context, ownerID string, stored []store.Achievement, werr error) error {
	if rbErr := s.rewards.SaveCatalog(context.WithoutCancel(ctx), ownerID, stored); rbErr != nil {
		s.log.Error("restoring catalog failed", "owner", ownerID, "error", rbErr)
		return errors.Join(werr, fmt.Errorf("restoring catalog: %w", rbErr))
	}
	return werr
}

// load reads runs, catalog and notifications concurrently
func (s *RewardsService) load(ctx context.Context, ownerID string, runs []store.Run, haveRuns bool) (*rewardState, error) {
	st := &rewardState{runs: runs}

	g, gctx := errgroup.WithContext(ctx)
	if !haveRuns {
		g.Go(func() error {
			r, err := s.runs.ListRuns(gctx, ownerID)
			if err != nil {
				return fmt.Errorf("loading runs: %w: %w", store.ErrStorageRead, err)
			}
			st.runs = r
			return nil
		})
	}
	g.Go(func() error {
		c, err := s.rewards.LoadCatalog(gctx, ownerID)
		if err != nil {
			return fmt.Errorf("loading catalog: %w: %w", store.ErrStorageRead, err)
		}
		st.stored = c
		return nil
	})
	g.Go(func() error {
		l, err := s.rewards.LoadNotifications(gctx, ownerID)
		if err != nil {
			return fmt.Errorf("loading notifications: %w: %w", store.ErrStorageRead, err)
		}
		st.log = l
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	st.catalog, st.extended = reconcileCatalog(st.stored)
	return st, nil
}

// apply evaluates every catalog entry against the personal records. It never
// modifies catalog; next is a copy carrying the new state.
func (s *RewardsService) apply(catalog []store.Achievement, records []analysis.PersonalRecord, now time.Time) (next []store.Achievement, fresh []store.RewardNotification, changed bool) {
	next = make([]store.Achievement, len(catalog))
	copy(next, catalog)
	fresh = []store.RewardNotification{}

	for i := range next {
		a := &next[i]
		rec, ok := analysis.FindPersonalRecord(records, a.Distance)

		if !a.IsThreshold() {
			if ok && !a.IsUnlocked {
				unlockAt(a, now)
				a.Progress = ProgressComplete
				changed = true
				fresh = append(fresh, store.RewardNotification{
					ID:          s.newID(),
					Title:       "New personal record!",
					Description: fmt.Sprintf("%s: %s", rec.Distance, rec.Time),
					Icon:        NotificationIcon,
					Timestamp:   now,
					Type:        store.NotifyPersonalRecord,
				})
			}
			continue
		}

		target, err := racetime.Parse(a.TargetTime)
		if err != nil || target <= 0 {
			s.log.Warn("skipping achievement with invalid target", "achievement", a.ID, "target", a.TargetTime)
			continue
		}

		progress := 0
		if ok {
			progress = thresholdProgress(rec.Elapsed, target)
		}
		if progress != a.Progress {
			a.Progress = progress
			changed = true
		}

		if ok && rec.Elapsed <= target && !a.IsUnlocked {
			unlockAt(a, now)
			changed = true
			fresh = append(fresh, store.RewardNotification{
				ID:          s.newID(),
				Title:       fmt.Sprintf("%s beaten!", categories[a.Category].Record),
				Description: fmt.Sprintf("%s: %s (vs %s)", rec.Distance, rec.Time, a.TargetTime),
				Icon:        a.Icon,
				Timestamp:   now,
				Type:        store.NotifyAchievement,
			})
		}
	}
	return next, fresh, changed
}

func unlockAt(a *store.Achievement, now time.Time) {
	t := now
	a.IsUnlocked = true
	a.UnlockedAt = &t
}

// thresholdProgress is 100 at or under the target and drops by one point per
// percent of the target the personal time is slower, down to 0
func thresholdProgress(personal, target time.Duration) int {
	gap := float64(personal-target) / float64(target) * 100
	p := int(math.Round(100 - gap))
	switch {
	case p > 100:
		return 100
	case p < 0:
		return 0
	}
	return p
}

// reconcileCatalog returns the default catalog carrying the stored state of
// every known entry, followed by stored entries no longer in the default set.
// extended reports whether any default entry was missing from stored.
func reconcileCatalog(stored []store.Achievement) (catalog []store.Achievement, extended bool) {
	byID := make(map[string]store.Achievement, len(stored))
	for _, a := range stored {
		byID[a.ID] = a
	}

	defaults := DefaultCatalog()
	catalog = make([]store.Achievement, 0, len(defaults))
	known := make(map[string]bool, len(defaults))
	for _, d := range defaults {
		known[d.ID] = true
		if a, ok := byID[d.ID]; ok {
			catalog = append(catalog, a)
			continue
		}
		catalog = append(catalog, d)
		extended = true
	}
	for _, a := range stored {
		if !known[a.ID] {
			catalog = append(catalog, a)
		}
	}
	return catalog, extended
}

func genderMark(g store.Gender) string {
	if g == store.GenderWomen {
		return "W"
	}
	return "M"
}

func genderPossessive(g store.Gender) string {
	if g == store.GenderWomen {
		return "women's"
	}
	return "men's"
}

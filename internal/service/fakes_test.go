package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"stride/internal/store"
)

var errBackend = errors.New("backend unavailable")

// memStore is an in-memory Store with switchable failures
type memStore struct {
	mu       sync.Mutex
	runs     map[string][]store.Run
	catalogs map[string][]store.Achievement
	logs     map[string][]store.RewardNotification

	failListRuns          bool
	failAppendRun         bool
	failSaveNotifications bool
	failSaveCatalog       bool
	// wipeSaveCatalog makes the next n SaveCatalog calls delete the owner's
	// catalog and then fail, like an interrupted replace
	wipeSaveCatalog int

	catalogWrites      int
	notificationWrites int
}

func newMemStore() *memStore {
	return &memStore{
		runs:     map[string][]store.Run{},
		catalogs: map[string][]store.Achievement{},
		logs:     map[string][]store.RewardNotification{},
	}
}

func (m *memStore) ListRuns(_ context.Context, ownerID string) ([]store.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failListRuns {
		return nil, errBackend
	}
	return append([]store.Run{}, m.runs[ownerID]...), nil
}

func (m *memStore) AppendRun(_ context.Context, r store.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAppendRun {
		return errBackend
	}
	m.runs[r.OwnerID] = append(m.runs[r.OwnerID], r)
	return nil
}

func (m *memStore) UpdateRun(_ context.Context, r store.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.runs[r.OwnerID] {
		if existing.ID == r.ID {
			m.runs[r.OwnerID][i] = r
			return nil
		}
	}
	return store.ErrRunNotFound
}

func (m *memStore) DeleteRun(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	runs := m.runs[ownerID]
	for i, r := range runs {
		if r.ID == id {
			m.runs[ownerID] = append(runs[:i:i], runs[i+1:]...)
			return nil
		}
	}
	return store.ErrRunNotFound
}

func (m *memStore) LoadCatalog(_ context.Context, ownerID string) ([]store.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Achievement{}, m.catalogs[ownerID]...), nil
}

func (m *memStore) SaveCatalog(_ context.Context, ownerID string, catalog []store.Achievement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaveCatalog {
		return errBackend
	}
	if m.wipeSaveCatalog > 0 {
		m.wipeSaveCatalog--
		delete(m.catalogs, ownerID)
		return errBackend
	}
	m.catalogWrites++
	m.catalogs[ownerID] = append([]store.Achievement{}, catalog...)
	return nil
}

func (m *memStore) LoadNotifications(_ context.Context, ownerID string) ([]store.RewardNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.RewardNotification{}, m.logs[ownerID]...), nil
}

func (m *memStore) SaveNotifications(_ context.Context, ownerID string, log []store.RewardNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaveNotifications {
		return errBackend
	}
	m.notificationWrites++
	m.logs[ownerID] = append([]store.RewardNotification{}, log...)
	return nil
}

func (m *memStore) setFailSaveNotifications(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSaveNotifications = fail
}

func (m *memStore) setFailSaveCatalog(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSaveCatalog = fail
}

func (m *memStore) setWipeSaveCatalog(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wipeSaveCatalog = n
}

func (m *memStore) writes() (catalog, notifications int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalogWrites, m.notificationWrites
}

func (m *memStore) storedCatalog(ownerID string) []store.Achievement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Achievement{}, m.catalogs[ownerID]...)
}

func (m *memStore) storedLog(ownerID string) []store.RewardNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.RewardNotification{}, m.logs[ownerID]...)
}

var testNow = time.Date(2024, 1, 9, 18, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("n%d", n.Add(1))
	}
}

func newTestRewards(m *memStore) *RewardsService {
	return NewRewardsService(m, m, nil, WithClock(func() time.Time { return testNow }), WithIDGenerator(sequentialIDs()))
}

func testRun(id string, km float64, seconds int) store.Run {
	r := store.Run{
		ID:       id,
		OwnerID:  "athlete-1",
		Date:     time.Date(2024, 1, 8, 7, 0, 0, 0, time.UTC),
		Distance: km,
		Duration: seconds,
		Type:     store.RunInterval,
	}
	if err := r.Normalize(); err != nil {
		panic(err)
	}
	return r
}

func findAchievement(catalog []store.Achievement, id string) store.Achievement {
	for _, a := range catalog {
		if a.ID == id {
			return a
		}
	}
	panic("no achievement " + id)
}

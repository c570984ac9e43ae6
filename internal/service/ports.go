package service

import (
	"context"

	"stride/internal/store"
)

// RunStore persists runs per owner. Implemented by store.DB, remote.Store
// and mongostore.Store.
type RunStore interface {
	ListRuns(ctx context.Context, ownerID string) ([]store.Run, error)
	AppendRun(ctx context.Context, run store.Run) error
	UpdateRun(ctx context.Context, run store.Run) error
	DeleteRun(ctx context.Context, ownerID, id string) error
}

// RewardStore persists the achievement catalog and notification log per owner.
// Load methods return an empty slice when nothing is stored yet.
type RewardStore interface {
	LoadCatalog(ctx context.Context, ownerID string) ([]store.Achievement, error)
	SaveCatalog(ctx context.Context, ownerID string, catalog []store.Achievement) error
	LoadNotifications(ctx context.Context, ownerID string) ([]store.RewardNotification, error)
	SaveNotifications(ctx context.Context, ownerID string, log []store.RewardNotification) error
}

// Store is a backend serving both ports
type Store interface {
	RunStore
	RewardStore
}

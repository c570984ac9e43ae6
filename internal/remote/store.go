package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"stride/internal/store"
)

const (
	runsTable          = "runs"
	achievementsTable  = "achievements"
	notificationsTable = "notifications"

	preferRepresentation = "return=representation"
	preferMinimal        = "return=minimal"
	preferMerge          = "resolution=merge-duplicates,return=minimal"
)

// Store persists runs and rewards in a PostgREST backend.
// It implements the same ports as the local SQLite store.
type Store struct {
	client *Client
}

// NewStore creates a Store over a backend client
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

func eq(v string) string {
	return "eq." + v
}

// notIn builds a not.in filter with every value quoted
func notIn(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return "not.in.(" + strings.Join(quoted, ",") + ")"
}

// ListRuns returns an owner's runs, newest first
func (s *Store) ListRuns(ctx context.Context, ownerID string) ([]store.Run, error) {
	params := url.Values{}
	params.Set("user_id", eq(ownerID))
	params.Set("order", "date.desc,id.asc")

	var rows []runRow
	if err := s.client.do(ctx, http.MethodGet, runsTable, params, nil, "", &rows); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	runs := make([]store.Run, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, row.run())
	}
	return runs, nil
}

// AppendRun inserts a run. The backend rejects duplicate ids.
func (s *Store) AppendRun(ctx context.Context, run store.Run) error {
	if run.ID == "" {
		return fmt.Errorf("%w: missing id", store.ErrInvalidRun)
	}
	if err := s.client.do(ctx, http.MethodPost, runsTable, nil, []runRow{toRunRow(run)}, preferMinimal, nil); err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}
	return nil
}

// UpdateRun replaces a run owned by run.OwnerID
func (s *Store) UpdateRun(ctx context.Context, run store.Run) error {
	params := url.Values{}
	params.Set("id", eq(run.ID))
	params.Set("user_id", eq(run.OwnerID))

	var rows []runRow
	if err := s.client.do(ctx, http.MethodPatch, runsTable, params, toRunRow(run), preferRepresentation, &rows); err != nil {
		return fmt.Errorf("updating run %s: %w", run.ID, err)
	}
	if len(rows) == 0 {
		return store.ErrRunNotFound
	}
	return nil
}

// DeleteRun removes a run owned by ownerID
func (s *Store) DeleteRun(ctx context.Context, ownerID, id string) error {
	params := url.Values{}
	params.Set("id", eq(id))
	params.Set("user_id", eq(ownerID))

	var rows []runRow
	if err := s.client.do(ctx, http.MethodDelete, runsTable, params, nil, preferRepresentation, &rows); err != nil {
		return fmt.Errorf("deleting run %s: %w", id, err)
	}
	if len(rows) == 0 {
		return store.ErrRunNotFound
	}
	return nil
}

// LoadCatalog returns an owner's achievements in catalog order
func (s *Store) LoadCatalog(ctx context.Context, ownerID string) ([]store.Achievement, error) {
	var rows []achievementRow
	if err := s.client.do(ctx, http.MethodGet, achievementsTable, ownerParams(ownerID, "position.asc"), nil, "", &rows); err != nil {
		return nil, fmt.Errorf("loading achievements: %w", err)
	}

	catalog := make([]store.Achievement, 0, len(rows))
	for _, row := range rows {
		catalog = append(catalog, row.achievement())
	}
	return catalog, nil
}

// SaveCatalog replaces an owner's catalog.
// Rows are upserted first and stale ids deleted afterwards, so a failed
// request never leaves the owner without the entries being saved.
func (s *Store) SaveCatalog(ctx context.Context, ownerID string, catalog []store.Achievement) error {
	rows := make([]achievementRow, 0, len(catalog))
	ids := make([]string, 0, len(catalog))
	for i, a := range catalog {
		rows = append(rows, toAchievementRow(ownerID, i, a))
		ids = append(ids, a.ID)
	}

	if len(rows) > 0 {
		params := url.Values{}
		params.Set("on_conflict", "user_id,achievement_id")
		if err := s.client.do(ctx, http.MethodPost, achievementsTable, params, rows, preferMerge, nil); err != nil {
			return fmt.Errorf("saving achievements: %w", err)
		}
	}

	params := url.Values{}
	params.Set("user_id", eq(ownerID))
	if len(ids) > 0 {
		params.Set("achievement_id", notIn(ids))
	}
	if err := s.client.do(ctx, http.MethodDelete, achievementsTable, params, nil, preferMinimal, nil); err != nil {
		return fmt.Errorf("pruning achievements: %w", err)
	}
	return nil
}

// LoadNotifications returns an owner's notification log, newest first
func (s *Store) LoadNotifications(ctx context.Context, ownerID string) ([]store.RewardNotification, error) {
	var rows []notificationRow
	if err := s.client.do(ctx, http.MethodGet, notificationsTable, ownerParams(ownerID, "position.asc"), nil, "", &rows); err != nil {
		return nil, fmt.Errorf("loading notifications: %w", err)
	}

	log := make([]store.RewardNotification, 0, len(rows))
	for _, row := range rows {
		log = append(log, row.notification())
	}
	return log, nil
}

// SaveNotifications replaces an owner's notification log
func (s *Store) SaveNotifications(ctx context.Context, ownerID string, log []store.RewardNotification) error {
	rows := make([]notificationRow, 0, len(log))
	for i, n := range log {
		rows = append(rows, toNotificationRow(ownerID, i, n))
	}
	if err := s.replace(ctx, notificationsTable, ownerID, rows, len(rows)); err != nil {
		return fmt.Errorf("saving notifications: %w", err)
	}
	return nil
}

func ownerParams(ownerID, order string) url.Values {
	params := url.Values{}
	params.Set("user_id", eq(ownerID))
	params.Set("order", order)
	return params
}

// replace deletes every owner row of a table and inserts rows in one bulk request
func (s *Store) replace(ctx context.Context, table, ownerID string, rows any, n int) error {
	params := url.Values{}
	params.Set("user_id", eq(ownerID))
	if err := s.client.do(ctx, http.MethodDelete, table, params, nil, preferMinimal, nil); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	return s.client.do(ctx, http.MethodPost, table, nil, rows, preferMinimal, nil)
}

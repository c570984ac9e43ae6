package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"stride/internal/store"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	Prefer string
	Body   string
}

// backend records every request and answers with the queued responses
type backend struct {
	mu        sync.Mutex
	requests  []recorded
	responses []response
}

type response struct {
	status int
	body   string
	header http.Header
}

func (b *backend) queue(status int, body string) {
	b.responses = append(b.responses, response{status: status, body: body})
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, recorded{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Prefer: r.Header.Get("Prefer"),
		Body:   string(body),
	})
	if r.Header.Get("apikey") != "anon-key" || r.Header.Get("Authorization") != "Bearer user-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	resp := response{status: http.StatusOK, body: "[]"}
	if len(b.responses) > 0 {
		resp = b.responses[0]
		b.responses = b.responses[1:]
	}
	for k, v := range resp.header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

func setupTestStore(t *testing.T) (*Store, *backend) {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{
		BaseURL: srv.URL + "/",
		APIKey:  "anon-key",
		Timeout: 5 * time.Second,
		Limits:  Limits{PerWindow: 100, Window: time.Minute},
	}, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "user-token", TokenType: "Bearer"}))
	return NewStore(client), b
}

func TestListRuns(t *testing.T) {
	s, b := setupTestStore(t)
	b.queue(http.StatusOK, `[{"id":"r1","user_id":"athlete-1","date":"2024-01-08T07:30:00Z",
		"distance":5,"duration":1500,"pace":"5:00","calories":300,"type":"easy",
		"coordinates":[{"latitude":48.85,"longitude":2.35,"timestamp":1704699000000}],
		"start_location":{"latitude":48.85,"longitude":2.35},"end_location":null}]`)

	runs, err := s.ListRuns(context.Background(), "athlete-1")
	require.NoError(t, err)
	require.Len(t, runs, 1)

	r := runs[0]
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, "athlete-1", r.OwnerID)
	assert.True(t, r.Date.Equal(time.Date(2024, 1, 8, 7, 30, 0, 0, time.UTC)))
	assert.Equal(t, 5.0, r.Distance)
	assert.Equal(t, 1500, r.Duration)
	assert.Equal(t, store.RunEasy, r.Type)
	require.Len(t, r.Coordinates, 1)
	require.NotNil(t, r.StartLocation)
	assert.Nil(t, r.EndLocation)

	require.Len(t, b.requests, 1)
	req := b.requests[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/rest/v1/runs", req.Path)
	assert.Contains(t, req.Query, "user_id=eq.athlete-1")
	assert.Contains(t, req.Query, "order=date.desc")
}

func TestListRuns_Empty(t *testing.T) {
	s, _ := setupTestStore(t)

	runs, err := s.ListRuns(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestAppendRun(t *testing.T) {
	s, b := setupTestStore(t)
	b.queue(http.StatusCreated, "")

	run := store.Run{
		ID:       "r1",
		OwnerID:  "athlete-1",
		Date:     time.Date(2024, 1, 8, 7, 30, 0, 0, time.UTC),
		Distance: 5,
		Duration: 1500,
		Pace:     "5:00",
		Calories: 300,
		Type:     store.RunTempo,
	}
	require.NoError(t, s.AppendRun(context.Background(), run))

	require.Len(t, b.requests, 1)
	req := b.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "return=minimal", req.Prefer)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "athlete-1", rows[0]["user_id"])
	assert.Equal(t, "tempo", rows[0]["type"])
	assert.Equal(t, []any{}, rows[0]["coordinates"])
}

func TestAppendRun_RequiresID(t *testing.T) {
	s, b := setupTestStore(t)

	err := s.AppendRun(context.Background(), store.Run{OwnerID: "athlete-1"})
	assert.ErrorIs(t, err, store.ErrInvalidRun)
	assert.Empty(t, b.requests)
}

func TestUpdateAndDeleteRun_NotFound(t *testing.T) {
	tests := []struct {
		name string
		call func(s *Store) error
	}{
		{"update", func(s *Store) error {
			return s.UpdateRun(context.Background(), store.Run{ID: "missing", OwnerID: "athlete-1"})
		}},
		{"delete", func(s *Store) error {
			return s.DeleteRun(context.Background(), "athlete-1", "missing")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, b := setupTestStore(t)

			err := tt.call(s)
			assert.ErrorIs(t, err, store.ErrRunNotFound)
			require.Len(t, b.requests, 1)
			assert.Contains(t, b.requests[0].Query, "id=eq.missing")
			assert.Contains(t, b.requests[0].Query, "user_id=eq.athlete-1")
			assert.Equal(t, "return=representation", b.requests[0].Prefer)
		})
	}
}

func TestDeleteRun(t *testing.T) {
	s, b := setupTestStore(t)
	b.queue(http.StatusOK, `[{"id":"r1","user_id":"athlete-1","date":"2024-01-08T07:30:00Z"}]`)

	require.NoError(t, s.DeleteRun(context.Background(), "athlete-1", "r1"))
	assert.Equal(t, http.MethodDelete, b.requests[0].Method)
}

func TestSaveCatalog_UpsertsThenPrunes(t *testing.T) {
	s, b := setupTestStore(t)
	unlocked := time.Date(2024, 1, 9, 18, 0, 0, 0, time.UTC)

	catalog := []store.Achievement{
		{ID: "personal_800m", Category: store.CategoryPersonal, Distance: "800m", IsUnlocked: true, UnlockedAt: &unlocked, Progress: 100},
		{ID: "world_men_800m", Category: store.CategoryWorld, Gender: store.GenderMen, Distance: "800m", TargetTime: "1:40.91", Progress: 80},
	}
	require.NoError(t, s.SaveCatalog(context.Background(), "athlete-1", catalog))

	require.Len(t, b.requests, 2)
	upsert, prune := b.requests[0], b.requests[1]

	assert.Equal(t, http.MethodPost, upsert.Method)
	assert.Equal(t, "/rest/v1/achievements", upsert.Path)
	assert.Contains(t, upsert.Prefer, "resolution=merge-duplicates")
	q, err := url.ParseQuery(upsert.Query)
	require.NoError(t, err)
	assert.Equal(t, "user_id,achievement_id", q.Get("on_conflict"))

	var rows []achievementRow
	require.NoError(t, json.Unmarshal([]byte(upsert.Body), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "personal_800m", rows[0].AchievementID)
	assert.Equal(t, 0, rows[0].Position)
	assert.Equal(t, 1, rows[1].Position)
	assert.Equal(t, "athlete-1", rows[1].UserID)
	assert.Equal(t, "1:40.91", rows[1].TargetTime)

	assert.Equal(t, http.MethodDelete, prune.Method)
	q, err = url.ParseQuery(prune.Query)
	require.NoError(t, err)
	assert.Equal(t, "eq.athlete-1", q.Get("user_id"))
	assert.Equal(t, `not.in.("personal_800m","world_men_800m")`, q.Get("achievement_id"))
}

func TestSaveCatalog_FailedUpsertKeepsRows(t *testing.T) {
	s, b := setupTestStore(t)
	b.queue(http.StatusServiceUnavailable, `{"message":"unavailable"}`)

	err := s.SaveCatalog(context.Background(), "athlete-1", []store.Achievement{{ID: "personal_800m"}})
	require.Error(t, err)

	// Nothing is deleted when the new rows were not written
	require.Len(t, b.requests, 1)
	assert.Equal(t, http.MethodPost, b.requests[0].Method)
}

func TestSaveCatalog_EmptyDeletesAll(t *testing.T) {
	s, b := setupTestStore(t)

	require.NoError(t, s.SaveCatalog(context.Background(), "athlete-1", nil))
	require.Len(t, b.requests, 1)
	assert.Equal(t, http.MethodDelete, b.requests[0].Method)
	assert.Equal(t, "user_id=eq.athlete-1", b.requests[0].Query)
}

func TestLoadCatalog(t *testing.T) {
	s, b := setupTestStore(t)
	b.queue(http.StatusOK, `[{"user_id":"athlete-1","achievement_id":"france_men_100m","position":0,
		"title":"French record 100m (M)","icon":"🇫🇷","category":"france","gender":"men",
		"distance":"100m","target_time":"9.86","is_unlocked":false,"unlocked_at":null,"progress":42}]`)

	catalog, err := s.LoadCatalog(context.Background(), "athlete-1")
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, "france_men_100m", catalog[0].ID)
	assert.Equal(t, store.CategoryFrance, catalog[0].Category)
	assert.Equal(t, store.GenderMen, catalog[0].Gender)
	assert.Equal(t, 42, catalog[0].Progress)
	assert.Nil(t, catalog[0].UnlockedAt)
	assert.Contains(t, b.requests[0].Query, "order=position.asc")
}

func TestSaveNotifications_EmptyOnlyDeletes(t *testing.T) {
	s, b := setupTestStore(t)

	require.NoError(t, s.SaveNotifications(context.Background(), "athlete-1", nil))
	require.Len(t, b.requests, 1)
	assert.Equal(t, http.MethodDelete, b.requests[0].Method)
	assert.Equal(t, "/rest/v1/notifications", b.requests[0].Path)
}

func TestNotifications_RoundTrip(t *testing.T) {
	s, b := setupTestStore(t)
	ts := time.Date(2024, 1, 9, 18, 0, 0, 0, time.UTC)
	log := []store.RewardNotification{
		{ID: "n1", Title: "New personal record!", Description: "800m: 1:38", Icon: "🏆", Timestamp: ts, Type: store.NotifyPersonalRecord},
	}
	require.NoError(t, s.SaveNotifications(context.Background(), "athlete-1", log))

	// Serve back what was posted
	b.queue(http.StatusOK, b.requests[1].Body)
	loaded, err := s.LoadNotifications(context.Background(), "athlete-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, log[0].ID, loaded[0].ID)
	assert.Equal(t, log[0].Type, loaded[0].Type)
	assert.True(t, log[0].Timestamp.Equal(loaded[0].Timestamp))
}

func TestAPIError(t *testing.T) {
	s, b := setupTestStore(t)
	b.queue(http.StatusConflict, `{"message":"duplicate key"}`)

	err := s.AppendRun(context.Background(), store.Run{ID: "r1", OwnerID: "athlete-1"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "duplicate key")
}

func TestRateLimitHeaders(t *testing.T) {
	s, b := setupTestStore(t)
	b.responses = append(b.responses, response{
		status: http.StatusOK,
		body:   "[]",
		header: http.Header{
			"X-Ratelimit-Limit":     []string{"50"},
			"X-Ratelimit-Remaining": []string{"10"},
		},
	})

	_, err := s.ListRuns(context.Background(), "athlete-1")
	require.NoError(t, err)

	remaining, _ := s.client.RateLimitStatus()
	assert.Equal(t, 10, remaining)
}

package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stride/internal/config"
	"stride/internal/logger"
	"stride/internal/remote"
	"stride/internal/store"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-01-07", time.Date(2024, 1, 7, 0, 0, 0, 0, time.Local), false},
		{"2024-01-07 06:45", time.Date(2024, 1, 7, 6, 45, 0, 0, time.Local), false},
		{"2024-01-07T06:45:00Z", time.Date(2024, 1, 7, 6, 45, 0, 0, time.UTC), false},
		{"07/01/2024", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestOpenBackend_SQLite(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "stride.db")

	b, err := openBackend(context.Background(), &cfg, logger.Nop())
	require.NoError(t, err)
	defer b.Close()

	_, ok := b.store.(*store.DB)
	assert.True(t, ok, "sqlite backend should be the local database")

	runs, err := b.store.ListRuns(context.Background(), cfg.Owner)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestOpenBackend_REST(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Backend = config.BackendREST
	cfg.Store.Path = filepath.Join(t.TempDir(), "stride.db")
	cfg.Remote.URL = "https://example.supabase.co"
	cfg.Remote.APIKey = "anon"

	b, err := openBackend(context.Background(), &cfg, logger.Nop())
	require.NoError(t, err)
	defer b.Close()

	_, ok := b.store.(*remote.Store)
	assert.True(t, ok, "rest backend should be the remote store")
}

func TestRestTokenSource(t *testing.T) {
	ctx := context.Background()

	t.Run("api key only", func(t *testing.T) {
		db, err := store.OpenInMemory()
		require.NoError(t, err)
		defer db.Close()

		cfg := config.DefaultConfig()
		ts, err := restTokenSource(ctx, &cfg, db, logger.Nop())
		require.NoError(t, err)
		assert.Nil(t, ts)
	})

	t.Run("configured token is stored", func(t *testing.T) {
		db, err := store.OpenInMemory()
		require.NoError(t, err)
		defer db.Close()

		cfg := config.DefaultConfig()
		cfg.Remote.AccessToken = "access"
		cfg.Remote.RefreshToken = "refresh"
		cfg.Remote.TokenURL = "https://example.supabase.co/auth/v1/token"
		cfg.Remote.ClientID = "stride-cli"

		ts, err := restTokenSource(ctx, &cfg, db, logger.Nop())
		require.NoError(t, err)
		require.NotNil(t, ts)
		_, refreshing := ts.(*remote.TokenSource)
		assert.True(t, refreshing)

		// A zero expiry never triggers a refresh
		tok, err := ts.Token()
		require.NoError(t, err)
		assert.Equal(t, "access", tok.AccessToken)

		creds, err := db.GetCredentials(ctx, cfg.Owner)
		require.NoError(t, err)
		assert.Equal(t, "refresh", creds.RefreshToken)
	})

	t.Run("stored credentials win over config", func(t *testing.T) {
		db, err := store.OpenInMemory()
		require.NoError(t, err)
		defer db.Close()

		cfg := config.DefaultConfig()
		cfg.Remote.AccessToken = "from-config"
		require.NoError(t, db.SaveCredentials(ctx, &store.Credentials{
			OwnerID:     cfg.Owner,
			AccessToken: "from-db",
		}))

		ts, err := restTokenSource(ctx, &cfg, db, logger.Nop())
		require.NoError(t, err)
		tok, err := ts.Token()
		require.NoError(t, err)
		assert.Equal(t, "from-db", tok.AccessToken)
	})
}

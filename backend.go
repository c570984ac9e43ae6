package main

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"stride/internal/config"
	"stride/internal/logger"
	"stride/internal/mongostore"
	"stride/internal/remote"
	"stride/internal/service"
	"stride/internal/store"
)

// backend is the store selected by configuration plus whatever must be
// closed when the command ends
type backend struct {
	store   service.Store
	closers []func() error
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	switch cfg.Store.Backend {
	case config.BackendREST:
		return openREST(ctx, cfg, log)
	case config.BackendMongo:
		return openMongo(ctx, cfg)
	default:
		db, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return &backend{store: db, closers: []func() error{db.Close}}, nil
	}
}

// openREST connects to the REST backend. Tokens live in the local database
// so refreshed tokens survive restarts.
func openREST(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	b := &backend{closers: []func() error{db.Close}}

	ts, err := restTokenSource(ctx, cfg, db, log)
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	client := remote.NewClient(remote.ClientConfig{
		BaseURL: cfg.Remote.URL,
		APIKey:  cfg.Remote.APIKey,
		Timeout: cfg.Remote.Timeout,
		Limits:  remote.DefaultLimits,
	}, ts)
	b.store = remote.NewStore(client)
	return b, nil
}

// restTokenSource returns nil when there is no user token, in which case
// requests authenticate with the API key alone
func restTokenSource(ctx context.Context, cfg *config.Config, db *store.DB, log *logger.Logger) (oauth2.TokenSource, error) {
	creds, err := db.GetCredentials(ctx, cfg.Owner)
	if errors.Is(err, store.ErrNoCredentials) {
		if cfg.Remote.AccessToken == "" {
			return nil, nil
		}
		creds = &store.Credentials{
			OwnerID:      cfg.Owner,
			AccessToken:  cfg.Remote.AccessToken,
			RefreshToken: cfg.Remote.RefreshToken,
		}
		if err := db.SaveCredentials(ctx, creds); err != nil {
			return nil, fmt.Errorf("saving credentials: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       creds.ExpiresAt,
	}
	if creds.RefreshToken == "" || cfg.Remote.TokenURL == "" {
		return oauth2.StaticTokenSource(token), nil
	}

	owner := cfg.Owner
	oauthCfg := remote.NewOAuthConfig(cfg.Remote.ClientID, cfg.Remote.TokenURL)
	return remote.NewTokenSource(oauthCfg, token, func(t *oauth2.Token) error {
		log.Info("remote token refreshed", "owner", owner, "expires_at", t.Expiry)
		return db.UpdateTokens(context.Background(), owner, t.AccessToken, t.RefreshToken, t.Expiry)
	}), nil
}

func openMongo(ctx context.Context, cfg *config.Config) (*backend, error) {
	client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	s := mongostore.New(client.Database(cfg.Mongo.Database))
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = mongostore.Disconnect(client)
		return nil, fmt.Errorf("creating mongo indexes: %w", err)
	}
	return &backend{
		store:   s,
		closers: []func() error{func() error { return mongostore.Disconnect(client) }},
	}, nil
}

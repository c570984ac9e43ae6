package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetCredentials retrieves the stored remote credentials for an owner
func (db *DB) GetCredentials(ctx context.Context, ownerID string) (*Credentials, error) {
	row := db.QueryRowContext(ctx, `
		SELECT owner_id, access_token, refresh_token, expires_at
		FROM credentials
		WHERE owner_id = ?
	`, ownerID)

	var c Credentials
	var expiresAt int64
	err := row.Scan(&c.OwnerID, &c.AccessToken, &c.RefreshToken, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, err
	}

	c.ExpiresAt = time.Unix(expiresAt, 0)
	return &c, nil
}

// SaveCredentials stores or updates the remote credentials for an owner
func (db *DB) SaveCredentials(ctx context.Context, c *Credentials) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO credentials (owner_id, access_token, refresh_token, expires_at, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(owner_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP
	`, c.OwnerID, c.AccessToken, c.RefreshToken, c.ExpiresAt.Unix())
	return err
}

// UpdateTokens updates just the access and refresh tokens
func (db *DB) UpdateTokens(ctx context.Context, ownerID, accessToken, refreshToken string, expiresAt time.Time) error {
	result, err := db.ExecContext(ctx, `
		UPDATE credentials
		SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE owner_id = ?
	`, accessToken, refreshToken, expiresAt.Unix(), ownerID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNoCredentials
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LoadCatalog returns an owner's achievements in catalog order.
// An owner without a catalog yields an empty slice.
func (db *DB) LoadCatalog(ctx context.Context, ownerID string) ([]Achievement, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, description, icon, category, gender, distance,
			target_time, is_unlocked, unlocked_at, progress
		FROM achievements
		WHERE owner_id = ?
		ORDER BY position
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	catalog := []Achievement{}
	for rows.Next() {
		var a Achievement
		var category string
		var gender, target, unlockedAt sql.NullString
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Icon, &category, &gender,
			&a.Distance, &target, &a.IsUnlocked, &unlockedAt, &a.Progress); err != nil {
			return nil, err
		}
		a.Category = AchievementCategory(category)
		a.Gender = Gender(gender.String)
		a.TargetTime = target.String
		if unlockedAt.Valid {
			t, err := time.Parse(time.RFC3339Nano, unlockedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parsing unlock time of %s: %w", a.ID, err)
			}
			a.UnlockedAt = &t
		}
		catalog = append(catalog, a)
	}
	return catalog, rows.Err()
}

// SaveCatalog replaces an owner's catalog in a single transaction
func (db *DB) SaveCatalog(ctx context.Context, ownerID string, catalog []Achievement) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM achievements WHERE owner_id = ?`, ownerID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO achievements (owner_id, id, position, title, description, icon, category,
			gender, distance, target_time, is_unlocked, unlocked_at, progress)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, a := range catalog {
		var unlockedAt sql.NullString
		if a.UnlockedAt != nil {
			unlockedAt = sql.NullString{String: a.UnlockedAt.Format(time.RFC3339Nano), Valid: true}
		}
		if _, err = stmt.ExecContext(ctx, ownerID, a.ID, i, a.Title, a.Description, a.Icon,
			string(a.Category), nullString(string(a.Gender)), a.Distance,
			nullString(a.TargetTime), a.IsUnlocked, unlockedAt, a.Progress); err != nil {
			return fmt.Errorf("inserting achievement %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// LoadNotifications returns an owner's notification log, most recent first
func (db *DB) LoadNotifications(ctx context.Context, ownerID string) ([]RewardNotification, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, description, icon, timestamp, type
		FROM reward_notifications
		WHERE owner_id = ?
		ORDER BY position
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	log := []RewardNotification{}
	for rows.Next() {
		var n RewardNotification
		var ts, typ string
		if err := rows.Scan(&n.ID, &n.Title, &n.Description, &n.Icon, &ts, &typ); err != nil {
			return nil, err
		}
		n.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp of notification %s: %w", n.ID, err)
		}
		n.Type = NotificationType(typ)
		log = append(log, n)
	}
	return log, rows.Err()
}

// SaveNotifications replaces an owner's notification log in a single transaction
func (db *DB) SaveNotifications(ctx context.Context, ownerID string, log []RewardNotification) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM reward_notifications WHERE owner_id = ?`, ownerID); err != nil {
		return err
	}

	for i, n := range log {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO reward_notifications (owner_id, id, position, title, description, icon, timestamp, type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, ownerID, n.ID, i, n.Title, n.Description, n.Icon,
			n.Timestamp.Format(time.RFC3339Nano), string(n.Type)); err != nil {
			return fmt.Errorf("inserting notification %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

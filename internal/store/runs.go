package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const runColumns = `id, owner_id, date, distance, duration, pace, calories, type,
	coordinates, start_location, end_location`

// ListRuns returns every run of an owner, most recent first.
// Dates keep their UTC offset, so ordering goes through julianday
// rather than the stored text.
func (db *DB) ListRuns(ctx context.Context, ownerID string) ([]Run, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE owner_id = ?
		ORDER BY julianday(date) DESC, id
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun retrieves a single run by id
func (db *DB) GetRun(ctx context.Context, ownerID, id string) (*Run, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE owner_id = ? AND id = ?
	`, ownerID, id)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return r, err
}

// AppendRun inserts a new run. The run must already carry its id.
func (db *DB) AppendRun(ctx context.Context, r Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRun)
	}
	cols, err := encodeRun(r)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, cols...)
	return err
}

// UpdateRun replaces the stored fields of an existing run
func (db *DB) UpdateRun(ctx context.Context, r Run) error {
	cols, err := encodeRun(r)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `
		UPDATE runs
		SET date = ?, distance = ?, duration = ?, pace = ?, calories = ?, type = ?,
			coordinates = ?, start_location = ?, end_location = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ?
	`, append(cols[2:], r.ID, r.OwnerID)...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRunNotFound
	}
	return nil
}

// DeleteRun removes a run
func (db *DB) DeleteRun(ctx context.Context, ownerID, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM runs WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRunNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var date, runType, coords string
	var start, end sql.NullString

	err := s.Scan(&r.ID, &r.OwnerID, &date, &r.Distance, &r.Duration, &r.Pace,
		&r.Calories, &runType, &coords, &start, &end)
	if err != nil {
		return nil, err
	}

	r.Date, err = time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return nil, fmt.Errorf("parsing date of run %s: %w", r.ID, err)
	}
	r.Type = RunType(runType)

	if err := json.Unmarshal([]byte(coords), &r.Coordinates); err != nil {
		return nil, fmt.Errorf("decoding coordinates of run %s: %w", r.ID, err)
	}
	if r.Coordinates == nil {
		r.Coordinates = []Coordinate{}
	}
	if r.StartLocation, err = decodeLatLng(start); err != nil {
		return nil, fmt.Errorf("decoding start location of run %s: %w", r.ID, err)
	}
	if r.EndLocation, err = decodeLatLng(end); err != nil {
		return nil, fmt.Errorf("decoding end location of run %s: %w", r.ID, err)
	}

	return &r, nil
}

// encodeRun returns the column values in runColumns order
func encodeRun(r Run) ([]any, error) {
	coords := r.Coordinates
	if coords == nil {
		coords = []Coordinate{}
	}
	cb, err := json.Marshal(coords)
	if err != nil {
		return nil, fmt.Errorf("encoding coordinates: %w", err)
	}
	start, err := encodeLatLng(r.StartLocation)
	if err != nil {
		return nil, err
	}
	end, err := encodeLatLng(r.EndLocation)
	if err != nil {
		return nil, err
	}

	return []any{
		r.ID, r.OwnerID, r.Date.Format(time.RFC3339Nano), r.Distance, r.Duration,
		r.Pace, r.Calories, string(r.Type), string(cb), start, end,
	}, nil
}

func encodeLatLng(p *LatLng) (sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding location: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeLatLng(s sql.NullString) (*LatLng, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var p LatLng
	if err := json.Unmarshal([]byte(s.String), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

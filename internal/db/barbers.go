package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"barberbot/internal/model"
)

// CreateBarber inserts a new active barber and returns its ID.
func (db *DB) CreateBarber(ctx context.Context, b *model.Barber) (int64, error) {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO barbers (name, description, photo_ref, is_active, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)`,
		b.Name, b.Description, b.PhotoRef, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetBarber returns a barber by ID.
func (db *DB) GetBarber(ctx context.Context, id int64) (*model.Barber, error) {
	var b model.Barber
	var description, photoRef sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, name, description, photo_ref, is_active
		FROM barbers WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &description, &photoRef, &b.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Description = description.String
	b.PhotoRef = photoRef.String
	return &b, nil
}

// ListActiveBarbers returns all active barbers ordered by name.
func (db *DB) ListActiveBarbers(ctx context.Context) ([]model.Barber, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, description, photo_ref, is_active
		FROM barbers WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var barbers []model.Barber
	for rows.Next() {
		var b model.Barber
		var description, photoRef sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &description, &photoRef, &b.IsActive); err != nil {
			return nil, err
		}
		b.Description = description.String
		b.PhotoRef = photoRef.String
		barbers = append(barbers, b)
	}
	return barbers, rows.Err()
}

// UpdateBarber updates name, description and photo of a barber.
func (db *DB) UpdateBarber(ctx context.Context, b *model.Barber) error {
	res, err := db.ExecContext(ctx, `
		UPDATE barbers SET name = ?, description = ?, photo_ref = ?, updated_at = ?
		WHERE id = ?`,
		b.Name, b.Description, b.PhotoRef, time.Now(), b.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateBarber hides a barber from availability listings.
// Existing appointments referencing the barber are untouched.
func (db *DB) DeactivateBarber(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx,
		"UPDATE barbers SET is_active = 0, updated_at = ? WHERE id = ?", time.Now(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

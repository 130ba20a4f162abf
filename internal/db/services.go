package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barberbot/internal/model"
)

// CreateService inserts a new active service and returns its ID.
func (db *DB) CreateService(ctx context.Context, s *model.Service) (int64, error) {
	if s.DurationMinutes <= 0 {
		return 0, fmt.Errorf("%w: service duration must be positive", ErrInvalidInput)
	}
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO services (name, duration_minutes, price, is_active, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)`,
		s.Name, s.DurationMinutes, s.Price, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetService returns a service by ID.
func (db *DB) GetService(ctx context.Context, id int64) (*model.Service, error) {
	var s model.Service
	err := db.QueryRowContext(ctx, `
		SELECT id, name, duration_minutes, price, is_active
		FROM services WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.Price, &s.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListActiveServices returns all active services ordered by name.
func (db *DB) ListActiveServices(ctx context.Context) ([]model.Service, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, duration_minutes, price, is_active
		FROM services WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.Price, &s.IsActive); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// UpdateService updates name, duration and price of a service.
func (db *DB) UpdateService(ctx context.Context, s *model.Service) error {
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("%w: service duration must be positive", ErrInvalidInput)
	}
	res, err := db.ExecContext(ctx, `
		UPDATE services SET name = ?, duration_minutes = ?, price = ?, updated_at = ?
		WHERE id = ?`,
		s.Name, s.DurationMinutes, s.Price, time.Now(), s.ID)
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

// DeleteService removes a service, or only deactivates it when appointments
// reference it.
func (db *DB) DeleteService(ctx context.Context, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var referenced int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM appointments WHERE service_id = ?", id,
	).Scan(&referenced)
	if err != nil {
		return fmt.Errorf("check references: %w", err)
	}

	var res sql.Result
	if referenced > 0 {
		res, err = tx.ExecContext(ctx,
			"UPDATE services SET is_active = 0, updated_at = ? WHERE id = ?", time.Now(), id)
	} else {
		res, err = tx.ExecContext(ctx, "DELETE FROM services WHERE id = ?", id)
	}
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
	return tx.Commit()
}

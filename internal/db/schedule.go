package db

import (
	"context"
	"fmt"

	"barberbot/internal/model"
	"barberbot/internal/slots"
)

// SeedSchedule bulk-inserts generated slots for a barber on a date.
// Already-present slots are kept as they are, so seeding is idempotent
// and never resets availability. Returns the number of rows inserted.
func (db *DB) SeedSchedule(ctx context.Context, barberID int64, date string, daySlots []slots.Slot) (int, error) {
	if !ValidDate(date) {
		return 0, fmt.Errorf("%w: bad date %q", ErrInvalidInput, date)
	}
	if _, err := db.GetBarber(ctx, barberID); err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO schedule (barber_id, date, time_slot, is_available)
		VALUES (?, ?, ?, 1)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, s := range daySlots {
		res, err := stmt.ExecContext(ctx, barberID, date, s.Label())
		if err != nil {
			return 0, fmt.Errorf("insert slot %s: %w", s.Label(), err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// ListAvailableSlots returns available slots for a date ordered by start time.
// barberID and serviceID are optional (0 means no filter). Slots belonging to
// inactive barbers are excluded. With a serviceID, only slots at least as long
// as the service duration are returned.
func (db *DB) ListAvailableSlots(ctx context.Context, date string, barberID, serviceID int64) ([]model.TimeSlot, error) {
	if !ValidDate(date) {
		return nil, fmt.Errorf("%w: bad date %q", ErrInvalidInput, date)
	}

	minDuration := 0
	if serviceID != 0 {
		svc, err := db.GetService(ctx, serviceID)
		if err != nil {
			return nil, err
		}
		minDuration = svc.DurationMinutes
	}

	query := `
		SELECT s.id, s.barber_id, s.date, s.time_slot, s.is_available
		FROM schedule s
		JOIN barbers b ON b.id = s.barber_id
		WHERE s.date = ? AND s.is_available = 1 AND b.is_active = 1`
	args := []any{date}
	if barberID != 0 {
		query += " AND s.barber_id = ?"
		args = append(args, barberID)
	}
	query += " ORDER BY s.time_slot"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.TimeSlot
	for rows.Next() {
		var ts model.TimeSlot
		if err := rows.Scan(&ts.ID, &ts.BarberID, &ts.Date, &ts.TimeSlot, &ts.IsAvailable); err != nil {
			return nil, err
		}
		if minDuration > 0 {
			slot, err := slots.ParseLabel(ts.TimeSlot)
			if err != nil || slot.Duration() < minDuration {
				continue
			}
		}
		result = append(result, ts)
	}
	return result, rows.Err()
}

// GetSlot returns one schedule row by identity, ErrNotFound when absent.
func (db *DB) GetSlot(ctx context.Context, barberID int64, date, timeSlot string) (*model.TimeSlot, error) {
	var ts model.TimeSlot
	err := db.QueryRowContext(ctx, `
		SELECT id, barber_id, date, time_slot, is_available
		FROM schedule
		WHERE barber_id = ? AND date = ? AND time_slot = ?`,
		barberID, date, timeSlot,
	).Scan(&ts.ID, &ts.BarberID, &ts.Date, &ts.TimeSlot, &ts.IsAvailable)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &ts, nil
}

// ListScheduleDates returns distinct dates from a given date on that still
// have at least one available slot for an active barber.
func (db *DB) ListScheduleDates(ctx context.Context, fromDate string, barberID int64, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 14
	}
	query := `
		SELECT DISTINCT s.date
		FROM schedule s
		JOIN barbers b ON b.id = s.barber_id
		WHERE s.date >= ? AND s.is_available = 1 AND b.is_active = 1`
	args := []any{fromDate}
	if barberID != 0 {
		query += " AND s.barber_id = ?"
		args = append(args, barberID)
	}
	query += " ORDER BY s.date LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"barberbot/internal/model"
	"barberbot/internal/slots"
)

// Reserve atomically claims a slot and creates a booked appointment.
// The conditional UPDATE on is_available is the write-intent re-check: a
// concurrent Reserve on the same (barber, date, slot) sees zero rows affected
// and fails with ErrSlotUnavailable. Either both the availability flip and the
// insert commit, or neither does.
func (db *DB) Reserve(ctx context.Context, barberID int64, date, timeSlot string, userID, serviceID int64) (*model.Appointment, error) {
	if !ValidDate(date) {
		return nil, fmt.Errorf("%w: bad date %q", ErrInvalidInput, date)
	}
	if _, err := slots.ParseLabel(timeSlot); err != nil {
		return nil, fmt.Errorf("%w: bad time slot %q", ErrInvalidInput, timeSlot)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE schedule SET is_available = 0
		WHERE barber_id = ? AND date = ? AND time_slot = ? AND is_available = 1`,
		barberID, date, timeSlot)
	if err != nil {
		return nil, fmt.Errorf("claim slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrSlotUnavailable
	}

	appt := &model.Appointment{
		Ref:       newRef(),
		UserID:    userID,
		BarberID:  barberID,
		ServiceID: serviceID,
		Date:      date,
		TimeSlot:  timeSlot,
		Status:    model.StatusBooked,
		CreatedAt: time.Now(),
	}
	ins, err := tx.ExecContext(ctx, `
		INSERT INTO appointments (ref, user_id, barber_id, service_id, date, time_slot, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		appt.Ref, appt.UserID, appt.BarberID, appt.ServiceID,
		appt.Date, appt.TimeSlot, appt.Status, appt.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	appt.ID, err = ins.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return appt, nil
}

// Confirm transitions booked -> confirmed. Confirming an already-confirmed
// appointment is a no-op.
func (db *DB) Confirm(ctx context.Context, id int64) (*model.Appointment, error) {
	return db.transition(ctx, id, model.StatusConfirmed, false)
}

// Complete transitions confirmed -> completed. The slot stays consumed.
func (db *DB) Complete(ctx context.Context, id int64) (*model.Appointment, error) {
	return db.transition(ctx, id, model.StatusCompleted, false)
}

// Cancel transitions booked or confirmed -> canceled and restores the slot's
// availability in the same transaction. Canceling a completed appointment
// fails with ErrInvalidTransition.
func (db *DB) Cancel(ctx context.Context, id int64) (*model.Appointment, error) {
	return db.transition(ctx, id, model.StatusCanceled, true)
}

func (db *DB) transition(ctx context.Context, id int64, to string, releaseSlot bool) (*model.Appointment, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	appt, err := scanAppointment(tx.QueryRowContext(ctx,
		selectAppointment+" WHERE id = ?", id))
	if err != nil {
		return nil, mapNoRows(err)
	}

	if appt.Status == to {
		// Idempotent repeat of the same transition.
		return appt, nil
	}
	if !model.CanTransition(appt.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, to)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE appointments SET status = ? WHERE id = ?", to, id); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	appt.Status = to

	if releaseSlot {
		if _, err := tx.ExecContext(ctx, `
			UPDATE schedule SET is_available = 1
			WHERE barber_id = ? AND date = ? AND time_slot = ?`,
			appt.BarberID, appt.Date, appt.TimeSlot); err != nil {
			return nil, fmt.Errorf("release slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return appt, nil
}

const selectAppointment = `
	SELECT id, ref, user_id, barber_id, service_id, date, time_slot, status, reminder_sent, created_at
	FROM appointments`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(&a.ID, &a.Ref, &a.UserID, &a.BarberID, &a.ServiceID,
		&a.Date, &a.TimeSlot, &a.Status, &a.ReminderSent, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAppointment returns an appointment by ID.
func (db *DB) GetAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	appt, err := scanAppointment(db.QueryRowContext(ctx,
		selectAppointment+" WHERE id = ?", id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return appt, nil
}

// GetUserAppointments returns a user's booked and confirmed appointments,
// soonest first.
func (db *DB) GetUserAppointments(ctx context.Context, userID int64) ([]model.Appointment, error) {
	rows, err := db.QueryContext(ctx,
		selectAppointment+` WHERE user_id = ? AND status IN (?, ?)
		ORDER BY date, time_slot`,
		userID, model.StatusBooked, model.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// GetAppointmentsByDate returns all appointments on a date, any status.
func (db *DB) GetAppointmentsByDate(ctx context.Context, date string, barberID int64) ([]model.Appointment, error) {
	if !ValidDate(date) {
		return nil, fmt.Errorf("%w: bad date %q", ErrInvalidInput, date)
	}
	query := selectAppointment + " WHERE date = ?"
	args := []any{date}
	if barberID != 0 {
		query += " AND barber_id = ?"
		args = append(args, barberID)
	}
	query += " ORDER BY time_slot"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// GetAppointmentsForReminders returns booked and confirmed appointments on the
// given dates that have not had a reminder sent yet.
func (db *DB) GetAppointmentsForReminders(ctx context.Context, dates ...string) ([]model.Appointment, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(dates)), ",")
	args := make([]any, 0, len(dates)+2)
	for _, d := range dates {
		args = append(args, d)
	}
	args = append(args, model.StatusBooked, model.StatusConfirmed)

	rows, err := db.QueryContext(ctx,
		selectAppointment+` WHERE date IN (`+placeholders+`)
		AND status IN (?, ?) AND reminder_sent = 0
		ORDER BY date, time_slot`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// MarkReminderSent flags an appointment so its reminder is not repeated.
func (db *DB) MarkReminderSent(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx,
		"UPDATE appointments SET reminder_sent = 1 WHERE id = ?", id)
	return err
}

func collectAppointments(rows *sql.Rows) ([]model.Appointment, error) {
	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, *a)
	}
	return appts, rows.Err()
}

// newRef builds a short user-facing booking code.
func newRef() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

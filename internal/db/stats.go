package db

import (
	"context"
	"fmt"

	"barberbot/internal/model"
)

// GetStats builds the admin report for a date range (inclusive).
// Reads are not synchronized with bookings; slightly stale counts are fine.
func (db *DB) GetStats(ctx context.Context, from, to string) (*model.StatsReport, error) {
	if !ValidDate(from) || !ValidDate(to) {
		return nil, fmt.Errorf("%w: bad date range %q..%q", ErrInvalidInput, from, to)
	}

	report := &model.StatsReport{
		From:     from,
		To:       to,
		ByStatus: make(map[string]int),
	}

	rows, err := db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM appointments
		WHERE date BETWEEN ? AND ?
		GROUP BY status`, from, to)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}
		report.ByStatus[status] = count
		report.TotalAppointments += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(s.price), 0)
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		WHERE a.date BETWEEN ? AND ? AND a.status = ?`,
		from, to, model.StatusCompleted,
	).Scan(&report.TotalIncome)
	if err != nil {
		return nil, fmt.Errorf("sum income: %w", err)
	}

	rows, err = db.QueryContext(ctx, `
		SELECT s.name, COUNT(a.id) AS cnt
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		WHERE a.date BETWEEN ? AND ? AND a.status = ?
		GROUP BY s.name
		ORDER BY cnt DESC
		LIMIT 5`, from, to, model.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("popular services: %w", err)
	}
	for rows.Next() {
		var sc model.ServiceCount
		if err := rows.Scan(&sc.Name, &sc.Count); err != nil {
			rows.Close()
			return nil, err
		}
		report.PopularServices = append(report.PopularServices, sc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.QueryContext(ctx, `
		SELECT date, COUNT(id) AS cnt
		FROM appointments
		WHERE date BETWEEN ? AND ? AND status IN (?, ?)
		GROUP BY date
		ORDER BY cnt DESC
		LIMIT 5`, from, to, model.StatusBooked, model.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("busy days: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dc model.DateCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, err
		}
		report.BusyDays = append(report.BusyDays, dc)
	}
	return report, rows.Err()
}

package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"barberbot/internal/model"
)

// ReminderStore is the ledger surface the reminder loop needs.
type ReminderStore interface {
	GetAppointmentsForReminders(ctx context.Context, dates ...string) ([]model.Appointment, error)
	MarkReminderSent(ctx context.Context, id int64) error
}

// ReminderService periodically scans for upcoming appointments and sends
// each client one reminder within the configured lead time.
type ReminderService struct {
	store    ReminderStore
	notifier *Notifier
	lead     time.Duration
	interval time.Duration
	location *time.Location
	logger   *zerolog.Logger
}

// NewReminderService creates the loop. lead is how long before the start the
// reminder goes out; interval is how often the scan runs.
func NewReminderService(store ReminderStore, notifier *Notifier, lead, interval time.Duration, loc *time.Location, logger *zerolog.Logger) *ReminderService {
	if lead <= 0 {
		lead = 24 * time.Hour
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if loc == nil {
		loc = time.Local
	}
	return &ReminderService{
		store:    store,
		notifier: notifier,
		lead:     lead,
		interval: interval,
		location: loc,
		logger:   logger,
	}
}

// Start runs the loop until ctx is done.
func (r *ReminderService) Start(ctx context.Context) {
	r.logger.Info().Dur("lead", r.lead).Dur("interval", r.interval).
		Msg("reminder loop started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("reminder loop stopped")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single scan-and-send pass. Returns how many reminders
// went out.
func (r *ReminderService) RunOnce(ctx context.Context) int {
	now := time.Now().In(r.location)

	// Appointments inside the lead window can only live on today's or the
	// lead horizon's dates.
	dates := candidateDates(now, r.lead)
	due, err := r.store.GetAppointmentsForReminders(ctx, dates...)
	if err != nil {
		r.logger.Error().Err(err).Msg("reminder scan failed")
		return 0
	}

	sent := 0
	for i := range due {
		appt := &due[i]
		start := appt.StartsAt(r.location)
		if start.IsZero() || start.Before(now) || start.After(now.Add(r.lead)) {
			continue
		}
		if !r.notifier.SendReminder(ctx, appt) {
			continue
		}
		if err := r.store.MarkReminderSent(ctx, appt.ID); err != nil {
			r.logger.Error().Err(err).Int64("appointment_id", appt.ID).
				Msg("mark reminder sent failed")
			continue
		}
		sent++
	}

	if sent > 0 {
		r.logger.Info().Int("sent", sent).Msg("reminders dispatched")
	}
	return sent
}

func candidateDates(now time.Time, lead time.Duration) []string {
	var dates []string
	last := now.Add(lead)
	for d := now; !d.After(last.AddDate(0, 0, 1)); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
		if len(dates) > 31 {
			break
		}
	}
	return dates
}

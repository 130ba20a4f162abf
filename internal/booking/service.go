// Package booking is the appointment engine: slot seeding, availability,
// and the appointment lifecycle over the ledger.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"barberbot/internal/cache"
	"barberbot/internal/db"
	"barberbot/internal/events"
	"barberbot/internal/metrics"
	"barberbot/internal/model"
	"barberbot/internal/slots"
)

// Repository is the ledger surface the service needs.
type Repository interface {
	SeedSchedule(ctx context.Context, barberID int64, date string, daySlots []slots.Slot) (int, error)
	ListAvailableSlots(ctx context.Context, date string, barberID, serviceID int64) ([]model.TimeSlot, error)
	Reserve(ctx context.Context, barberID int64, date, timeSlot string, userID, serviceID int64) (*model.Appointment, error)
	Confirm(ctx context.Context, id int64) (*model.Appointment, error)
	Cancel(ctx context.Context, id int64) (*model.Appointment, error)
	Complete(ctx context.Context, id int64) (*model.Appointment, error)
	GetAppointment(ctx context.Context, id int64) (*model.Appointment, error)
	GetUserAppointments(ctx context.Context, userID int64) ([]model.Appointment, error)
	GetStats(ctx context.Context, from, to string) (*model.StatsReport, error)
}

// Rules are the shop's booking policy knobs.
type Rules struct {
	WorkStart           int
	WorkEnd             int
	SlotDurationMinutes int
	MinAdvance          time.Duration
	MaxAdvance          time.Duration
	Location            *time.Location
}

func (r Rules) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.Local
}

// Service coordinates the ledger with the cache and the event bus.
type Service struct {
	repo   Repository
	cache  *cache.AvailabilityCache
	bus    *events.Bus
	rules  Rules
	logger *zerolog.Logger
}

// NewService creates the booking service.
func NewService(repo Repository, availability *cache.AvailabilityCache, bus *events.Bus, rules Rules, logger *zerolog.Logger) *Service {
	if rules.SlotDurationMinutes <= 0 {
		rules.SlotDurationMinutes = 30
	}
	if rules.WorkEnd <= rules.WorkStart {
		rules.WorkStart, rules.WorkEnd = 10, 20
	}
	return &Service{repo: repo, cache: availability, bus: bus, rules: rules, logger: logger}
}

// ValidateDate checks a booking date against the advance window.
func (s *Service) ValidateDate(date string) error {
	day, err := time.ParseInLocation("2006-01-02", date, s.rules.location())
	if err != nil {
		return fmt.Errorf("%w: bad date %q", db.ErrInvalidInput, date)
	}

	now := time.Now().In(s.rules.location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.rules.location())
	if day.Before(today) {
		return fmt.Errorf("%w: date %s is in the past", db.ErrInvalidInput, date)
	}
	if s.rules.MaxAdvance > 0 && day.Sub(today) > s.rules.MaxAdvance {
		return fmt.Errorf("%w: date %s is too far ahead", db.ErrInvalidInput, date)
	}
	return nil
}

// SeedDay generates the canonical slots for one barber and date and seeds the
// ledger with them. Returns the number of new slots.
func (s *Service) SeedDay(ctx context.Context, barberID int64, date string) (int, error) {
	if err := s.ValidateDate(date); err != nil {
		return 0, err
	}
	daySlots := slots.Generate(s.rules.WorkStart, s.rules.WorkEnd, s.rules.SlotDurationMinutes)
	inserted, err := s.repo.SeedSchedule(ctx, barberID, date, daySlots)
	if err != nil {
		return 0, err
	}
	if inserted > 0 {
		s.cache.InvalidateDate(ctx, date)
	}
	s.logger.Info().Int64("barber_id", barberID).Str("date", date).
		Int("inserted", inserted).Msg("schedule seeded")
	return inserted, nil
}

// ListAvailableSlots returns available slots, from cache when possible.
func (s *Service) ListAvailableSlots(ctx context.Context, date string, barberID, serviceID int64) ([]model.TimeSlot, error) {
	if cached, ok := s.cache.GetSlots(ctx, date, barberID, serviceID); ok {
		return cached, nil
	}
	result, err := s.repo.ListAvailableSlots(ctx, date, barberID, serviceID)
	if err != nil {
		return nil, err
	}
	s.cache.PutSlots(ctx, date, barberID, serviceID, result)
	return result, nil
}

// Reserve claims a slot and creates a booked appointment. A lost race comes
// back as db.ErrSlotUnavailable.
func (s *Service) Reserve(ctx context.Context, barberID int64, date, timeSlot string, userID, serviceID int64) (*model.Appointment, error) {
	if err := s.ValidateDate(date); err != nil {
		return nil, err
	}
	if s.rules.MinAdvance > 0 {
		if sl, err := slots.ParseLabel(timeSlot); err == nil {
			start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+sl.Start, s.rules.location())
			if err == nil && start.Before(time.Now().In(s.rules.location()).Add(s.rules.MinAdvance)) {
				return nil, fmt.Errorf("%w: slot starts too soon", db.ErrInvalidInput)
			}
		}
	}

	appt, err := s.repo.Reserve(ctx, barberID, date, timeSlot, userID, serviceID)
	if err != nil {
		if errors.Is(err, db.ErrSlotUnavailable) {
			metrics.IncReservationConflict()
		}
		return nil, err
	}

	s.cache.InvalidateDate(ctx, date)
	metrics.IncAppointmentCreated()
	s.publish(events.AppointmentBooked, appt)
	s.logger.Info().Int64("appointment_id", appt.ID).Str("ref", appt.Ref).
		Int64("barber_id", barberID).Str("date", date).Str("slot", timeSlot).
		Msg("appointment booked")
	return appt, nil
}

// Confirm transitions booked -> confirmed.
func (s *Service) Confirm(ctx context.Context, id int64) (*model.Appointment, error) {
	appt, err := s.repo.Confirm(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.IncTransition(appt.Status)
	s.publish(events.AppointmentConfirmed, appt)
	return appt, nil
}

// Cancel releases the slot and marks the appointment canceled.
func (s *Service) Cancel(ctx context.Context, id int64) (*model.Appointment, error) {
	appt, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateDate(ctx, appt.Date)
	metrics.IncTransition(appt.Status)
	s.publish(events.AppointmentCanceled, appt)
	s.logger.Info().Int64("appointment_id", appt.ID).Msg("appointment canceled")
	return appt, nil
}

// Complete marks a confirmed appointment done; the slot stays consumed.
func (s *Service) Complete(ctx context.Context, id int64) (*model.Appointment, error) {
	appt, err := s.repo.Complete(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.IncTransition(appt.Status)
	s.publish(events.AppointmentCompleted, appt)
	return appt, nil
}

// GetAppointment returns one appointment by ID.
func (s *Service) GetAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	return s.repo.GetAppointment(ctx, id)
}

// UserAppointments returns a user's active appointments.
func (s *Service) UserAppointments(ctx context.Context, userID int64) ([]model.Appointment, error) {
	return s.repo.GetUserAppointments(ctx, userID)
}

// Stats builds the admin report for a date range.
func (s *Service) Stats(ctx context.Context, from, to string) (*model.StatsReport, error) {
	return s.repo.GetStats(ctx, from, to)
}

func (s *Service) publish(eventType string, appt *model.Appointment) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{Type: eventType, Appointment: *appt})
}

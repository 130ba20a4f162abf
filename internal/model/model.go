package model

import (
	"strings"
	"time"
)

// Appointment statuses.
const (
	StatusBooked    = "booked"
	StatusConfirmed = "confirmed"
	StatusCanceled  = "canceled"
	StatusCompleted = "completed"
)

// transitions lists the allowed status changes.
var transitions = map[string][]string{
	StatusBooked:    {StatusConfirmed, StatusCanceled},
	StatusConfirmed: {StatusCompleted, StatusCanceled},
}

// CanTransition reports whether a status change is allowed.
// Canceled and completed are terminal.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func IsTerminal(status string) bool {
	return len(transitions[status]) == 0
}

// Barber is a staff member clients book with.
type Barber struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PhotoRef    string `json:"photo_ref,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// Service is a bookable offering with a fixed duration and price.
type Service struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           int    `json:"price"` // whole currency units
	IsActive        bool   `json:"is_active"`
}

// TimeSlot is one bookable interval in a barber's schedule.
// Identity is (BarberID, Date, TimeSlot label).
type TimeSlot struct {
	ID          int64  `json:"id"`
	BarberID    int64  `json:"barber_id"`
	Date        string `json:"date"`      // YYYY-MM-DD
	TimeSlot    string `json:"time_slot"` // "HH:MM-HH:MM"
	IsAvailable bool   `json:"is_available"`
}

// Appointment is a client booking of one slot.
type Appointment struct {
	ID           int64     `json:"id"`
	Ref          string    `json:"ref"` // short code shown to the client
	UserID       int64     `json:"user_id"`
	BarberID     int64     `json:"barber_id"`
	ServiceID    int64     `json:"service_id"`
	Date         string    `json:"date"`
	TimeSlot     string    `json:"time_slot"`
	Status       string    `json:"status"`
	ReminderSent bool      `json:"reminder_sent"`
	CreatedAt    time.Time `json:"created_at"`
}

// StartsAt returns the appointment start as a time.Time in loc.
// Returns the zero time if date or slot are malformed.
func (a *Appointment) StartsAt(loc *time.Location) time.Time {
	start, _, found := strings.Cut(a.TimeSlot, "-")
	if !found {
		start = a.TimeSlot
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", a.Date+" "+start, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// StatsReport is the read-only rollup over appointments for a date range.
type StatsReport struct {
	From              string         `json:"from"`
	To                string         `json:"to"`
	TotalAppointments int            `json:"total_appointments"`
	ByStatus          map[string]int `json:"by_status"`
	TotalIncome       int            `json:"total_income"`
	PopularServices   []ServiceCount `json:"popular_services"`
	BusyDays          []DateCount    `json:"busy_days"`
}

// ServiceCount is a service name with its completed-appointment count.
type ServiceCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DateCount is a date with its active-appointment count.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

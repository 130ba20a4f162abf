// Package events provides in-process pub/sub for appointment lifecycle events.
package events

import (
	"sync"
	"time"

	"barberbot/internal/model"
)

// Event types published by the booking service.
const (
	AppointmentBooked    = "appointment.booked"
	AppointmentConfirmed = "appointment.confirmed"
	AppointmentCanceled  = "appointment.canceled"
	AppointmentCompleted = "appointment.completed"
)

// Event carries one appointment lifecycle change.
type Event struct {
	Type        string
	Appointment model.Appointment
	OccurredAt  time.Time
}

// Handler reacts to an event. Handler errors are the handler's problem;
// publishing never fails.
type Handler func(event Event)

// Bus is an in-process publish/subscribe hub.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every appointment event type.
func (b *Bus) SubscribeAll(handler Handler) {
	for _, t := range []string{AppointmentBooked, AppointmentConfirmed, AppointmentCanceled, AppointmentCompleted} {
		b.Subscribe(t, handler)
	}
}

// Publish notifies subscribers of the event type.
// Handlers run synchronously; the caller decides the concurrency model.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	for _, handler := range handlers {
		handler(event)
	}
}

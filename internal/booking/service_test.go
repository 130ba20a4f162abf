package booking

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"barberbot/internal/db"
	"barberbot/internal/events"
	"barberbot/internal/model"
	"barberbot/internal/slots"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) SeedSchedule(ctx context.Context, barberID int64, date string, daySlots []slots.Slot) (int, error) {
	args := m.Called(ctx, barberID, date, daySlots)
	return args.Int(0), args.Error(1)
}

func (m *mockRepo) ListAvailableSlots(ctx context.Context, date string, barberID, serviceID int64) ([]model.TimeSlot, error) {
	args := m.Called(ctx, date, barberID, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TimeSlot), args.Error(1)
}

func (m *mockRepo) Reserve(ctx context.Context, barberID int64, date, timeSlot string, userID, serviceID int64) (*model.Appointment, error) {
	args := m.Called(ctx, barberID, date, timeSlot, userID, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *mockRepo) Confirm(ctx context.Context, id int64) (*model.Appointment, error) {
	return m.apptCall(m.Called(ctx, id))
}
func (m *mockRepo) Cancel(ctx context.Context, id int64) (*model.Appointment, error) {
	return m.apptCall(m.Called(ctx, id))
}
func (m *mockRepo) Complete(ctx context.Context, id int64) (*model.Appointment, error) {
	return m.apptCall(m.Called(ctx, id))
}
func (m *mockRepo) GetAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	return m.apptCall(m.Called(ctx, id))
}

func (m *mockRepo) apptCall(args mock.Arguments) (*model.Appointment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *mockRepo) GetUserAppointments(ctx context.Context, userID int64) ([]model.Appointment, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *mockRepo) GetStats(ctx context.Context, from, to string) (*model.StatsReport, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StatsReport), args.Error(1)
}

func newTestService(repo Repository) (*Service, *events.Bus) {
	logger := zerolog.New(io.Discard)
	bus := events.NewBus()
	rules := Rules{
		WorkStart:           10,
		WorkEnd:             20,
		SlotDurationMinutes: 30,
		MaxAdvance:          30 * 24 * time.Hour,
	}
	return NewService(repo, nil, bus, rules, &logger), bus
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func TestValidateDate(t *testing.T) {
	svc, _ := newTestService(new(mockRepo))

	assert.ErrorIs(t, svc.ValidateDate("not-a-date"), db.ErrInvalidInput)
	assert.ErrorIs(t, svc.ValidateDate(futureDate(-1)), db.ErrInvalidInput)
	assert.ErrorIs(t, svc.ValidateDate(futureDate(31)), db.ErrInvalidInput)
	assert.NoError(t, svc.ValidateDate(futureDate(0)))
	assert.NoError(t, svc.ValidateDate(futureDate(5)))
}

func TestReservePublishesEvent(t *testing.T) {
	repo := new(mockRepo)
	svc, bus := newTestService(repo)
	ctx := context.Background()
	date := futureDate(5)

	var seen []events.Event
	bus.Subscribe(events.AppointmentBooked, func(e events.Event) { seen = append(seen, e) })

	appt := &model.Appointment{ID: 1, Ref: "AB12CD34", Date: date, TimeSlot: "10:00-10:30", Status: model.StatusBooked}
	repo.On("Reserve", ctx, int64(2), date, "10:00-10:30", int64(100), int64(3)).Return(appt, nil).Once()

	got, err := svc.Reserve(ctx, 2, date, "10:00-10:30", 100, 3)
	assert.NoError(t, err)
	assert.Equal(t, appt, got)
	assert.Len(t, seen, 1)
	assert.Equal(t, events.AppointmentBooked, seen[0].Type)
	assert.Equal(t, int64(1), seen[0].Appointment.ID)
	repo.AssertExpectations(t)
}

func TestReserveLostRace(t *testing.T) {
	repo := new(mockRepo)
	svc, bus := newTestService(repo)
	ctx := context.Background()
	date := futureDate(5)

	published := false
	bus.Subscribe(events.AppointmentBooked, func(events.Event) { published = true })

	repo.On("Reserve", ctx, int64(2), date, "10:00-10:30", int64(100), int64(3)).
		Return(nil, db.ErrSlotUnavailable).Once()

	_, err := svc.Reserve(ctx, 2, date, "10:00-10:30", 100, 3)
	assert.ErrorIs(t, err, db.ErrSlotUnavailable)
	assert.False(t, published, "no event on a lost race")
	repo.AssertExpectations(t)
}

func TestReserveRejectsInvalidDate(t *testing.T) {
	repo := new(mockRepo)
	svc, _ := newTestService(repo)

	_, err := svc.Reserve(context.Background(), 2, "2020-01-01", "10:00-10:30", 100, 3)
	assert.ErrorIs(t, err, db.ErrInvalidInput)
	repo.AssertNotCalled(t, "Reserve")
}

func TestCancelPublishesEvent(t *testing.T) {
	repo := new(mockRepo)
	svc, bus := newTestService(repo)
	ctx := context.Background()

	var gotType string
	bus.Subscribe(events.AppointmentCanceled, func(e events.Event) { gotType = e.Type })

	appt := &model.Appointment{ID: 9, Date: futureDate(2), Status: model.StatusCanceled}
	repo.On("Cancel", ctx, int64(9)).Return(appt, nil).Once()

	got, err := svc.Cancel(ctx, 9)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, got.Status)
	assert.Equal(t, events.AppointmentCanceled, gotType)
	repo.AssertExpectations(t)
}

func TestConfirmPassesThroughErrors(t *testing.T) {
	repo := new(mockRepo)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	repo.On("Confirm", ctx, int64(5)).Return(nil, db.ErrNotFound).Once()
	_, err := svc.Confirm(ctx, 5)
	assert.ErrorIs(t, err, db.ErrNotFound)
	repo.AssertExpectations(t)
}

func TestSeedDay(t *testing.T) {
	repo := new(mockRepo)
	svc, _ := newTestService(repo)
	ctx := context.Background()
	date := futureDate(3)

	expected := slots.Generate(10, 20, 30)
	repo.On("SeedSchedule", ctx, int64(1), date, expected).Return(20, nil).Once()

	inserted, err := svc.SeedDay(ctx, 1, date)
	assert.NoError(t, err)
	assert.Equal(t, 20, inserted)
	repo.AssertExpectations(t)

	_, err = svc.SeedDay(ctx, 1, futureDate(-2))
	assert.ErrorIs(t, err, db.ErrInvalidInput)
}

func TestListAvailableSlotsDelegates(t *testing.T) {
	repo := new(mockRepo)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	want := []model.TimeSlot{{ID: 1, TimeSlot: "10:00-10:30", IsAvailable: true}}
	repo.On("ListAvailableSlots", ctx, "2025-07-01", int64(0), int64(0)).Return(want, nil).Once()

	got, err := svc.ListAvailableSlots(ctx, "2025-07-01", 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, want, got)
	repo.AssertExpectations(t)
}

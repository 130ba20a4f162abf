package db

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barberbot/internal/model"
	"barberbot/internal/slots"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	database, err := New(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func seedFixtures(t *testing.T, database *DB) (barberID, serviceID int64) {
	t.Helper()
	ctx := context.Background()

	barberID, err := database.CreateBarber(ctx, &model.Barber{Name: "Алексей"})
	require.NoError(t, err)

	serviceID, err = database.CreateService(ctx, &model.Service{
		Name: "Стрижка", DurationMinutes: 30, Price: 1500,
	})
	require.NoError(t, err)

	_, err = database.SeedSchedule(ctx, barberID, "2025-07-01", slots.Generate(10, 20, 30))
	require.NoError(t, err)
	return barberID, serviceID
}

func TestSeedSchedule(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	barberID, _ := seedFixtures(t, database)

	available, err := database.ListAvailableSlots(ctx, "2025-07-01", barberID, 0)
	require.NoError(t, err)
	assert.Len(t, available, 20)
	assert.Equal(t, "10:00-10:30", available[0].TimeSlot)
	assert.Equal(t, "19:30-20:00", available[len(available)-1].TimeSlot)

	// Re-seeding must not duplicate or reset anything.
	inserted, err := database.SeedSchedule(ctx, barberID, "2025-07-01", slots.Generate(10, 20, 30))
	require.NoError(t, err)
	assert.Zero(t, inserted)

	_, err = database.SeedSchedule(ctx, barberID, "01.07.2025", slots.Generate(10, 20, 30))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = database.SeedSchedule(ctx, 999, "2025-07-02", slots.Generate(10, 20, 30))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveAndRelease(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	barberID, serviceID := seedFixtures(t, database)

	appt, err := database.Reserve(ctx, barberID, "2025-07-01", "10:00-10:30", 100, serviceID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBooked, appt.Status)
	assert.NotEmpty(t, appt.Ref)

	slot, err := database.GetSlot(ctx, barberID, "2025-07-01", "10:00-10:30")
	require.NoError(t, err)
	assert.False(t, slot.IsAvailable)

	// Same slot again: race already lost.
	_, err = database.Reserve(ctx, barberID, "2025-07-01", "10:00-10:30", 200, serviceID)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	// Nonexistent slot counts as unavailable too.
	_, err = database.Reserve(ctx, barberID, "2025-07-01", "23:00-23:30", 100, serviceID)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	// Cancel restores availability and a new reserve succeeds.
	canceled, err := database.Cancel(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, canceled.Status)

	slot, err = database.GetSlot(ctx, barberID, "2025-07-01", "10:00-10:30")
	require.NoError(t, err)
	assert.True(t, slot.IsAvailable)

	_, err = database.Reserve(ctx, barberID, "2025-07-01", "10:00-10:30", 200, serviceID)
	assert.NoError(t, err)
}

func TestReserveConcurrentRace(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	barberID, serviceID := seedFixtures(t, database)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = database.Reserve(ctx, barberID, "2025-07-01", "12:00-12:30", int64(1000+i), serviceID)
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, ErrSlotUnavailable)
		}
	}
	assert.Equal(t, 1, won, "exactly one concurrent reserve must succeed")

	appts, err := database.GetAppointmentsByDate(ctx, "2025-07-01", barberID)
	require.NoError(t, err)
	booked := 0
	for _, a := range appts {
		if a.TimeSlot == "12:00-12:30" && a.Status == model.StatusBooked {
			booked++
		}
	}
	assert.Equal(t, 1, booked)

	slot, err := database.GetSlot(ctx, barberID, "2025-07-01", "12:00-12:30")
	require.NoError(t, err)
	assert.False(t, slot.IsAvailable)
}

func TestStatusTransitions(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	barberID, serviceID := seedFixtures(t, database)

	appt, err := database.Reserve(ctx, barberID, "2025-07-01", "11:00-11:30", 100, serviceID)
	require.NoError(t, err)

	confirmed, err := database.Confirm(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, confirmed.Status)

	// Confirm is idempotent.
	confirmed, err = database.Confirm(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, confirmed.Status)

	completed, err := database.Complete(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, completed.Status)

	// Canceling a completed appointment is rejected and the status stays put.
	_, err = database.Cancel(ctx, appt.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := database.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)

	// Completing a plain booked appointment skips confirmation: rejected.
	second, err := database.Reserve(ctx, barberID, "2025-07-01", "13:00-13:30", 100, serviceID)
	require.NoError(t, err)
	_, err = database.Complete(ctx, second.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = database.Confirm(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelConfirmedReleasesSlot(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	barberID, serviceID := seedFixtures(t, database)

	appt, err := database.Reserve(ctx, barberID, "2025-07-01", "14:00-14:30", 100, serviceID)
	require.NoError(t, err)
	_, err = database.Confirm(ctx, appt.ID)
	require.NoError(t, err)

	_, err = database.Cancel(ctx, appt.ID)
	require.NoError(t, err)

	slot, err := database.GetSlot(ctx, barberID, "2025-07-01", "14:00-14:30")
	require.NoError(t, err)
	assert.True(t, slot.IsAvailable)
}

func TestListAvailableSlotsFilters(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	barberID, serviceID := seedFixtures(t, database)

	// Second barber with hour-long slots.
	otherID, err := database.CreateBarber(ctx, &model.Barber{Name: "Борис"})
	require.NoError(t, err)
	_, err = database.SeedSchedule(ctx, otherID, "2025-07-01", slots.Generate(10, 20, 60))
	require.NoError(t, err)

	longServiceID, err := database.CreateService(ctx, &model.Service{
		Name: "Стрижка + борода", DurationMinutes: 60, Price: 2500,
	})
	require.NoError(t, err)

	// Service filter: 60-minute service fits only the hour slots.
	available, err := database.ListAvailableSlots(ctx, "2025-07-01", 0, longServiceID)
	require.NoError(t, err)
	require.NotEmpty(t, available)
	for _, ts := range available {
		assert.Equal(t, otherID, ts.BarberID)
		slot, err := slots.ParseLabel(ts.TimeSlot)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, slot.Duration(), 60)
	}

	// A 30-minute service fits both slot lengths.
	available, err = database.ListAvailableSlots(ctx, "2025-07-01", 0, serviceID)
	require.NoError(t, err)
	assert.Len(t, available, 30)

	// Reserved slots never show up.
	_, err = database.Reserve(ctx, barberID, "2025-07-01", "10:00-10:30", 100, serviceID)
	require.NoError(t, err)
	available, err = database.ListAvailableSlots(ctx, "2025-07-01", barberID, 0)
	require.NoError(t, err)
	for _, ts := range available {
		assert.True(t, ts.IsAvailable)
		assert.NotEqual(t, "10:00-10:30", ts.TimeSlot)
	}

	// Inactive barbers are excluded.
	require.NoError(t, database.DeactivateBarber(ctx, otherID))
	available, err = database.ListAvailableSlots(ctx, "2025-07-01", 0, 0)
	require.NoError(t, err)
	for _, ts := range available {
		assert.NotEqual(t, otherID, ts.BarberID)
	}

	_, err = database.ListAvailableSlots(ctx, "not-a-date", 0, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteServiceKeepsReferenced(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	barberID, serviceID := seedFixtures(t, database)

	_, err := database.Reserve(ctx, barberID, "2025-07-01", "15:00-15:30", 100, serviceID)
	require.NoError(t, err)

	// Referenced by an appointment: deactivated, not deleted.
	require.NoError(t, database.DeleteService(ctx, serviceID))
	svc, err := database.GetService(ctx, serviceID)
	require.NoError(t, err)
	assert.False(t, svc.IsActive)

	// Unreferenced: deleted outright.
	freshID, err := database.CreateService(ctx, &model.Service{Name: "Укладка", DurationMinutes: 15, Price: 500})
	require.NoError(t, err)
	require.NoError(t, database.DeleteService(ctx, freshID))
	_, err = database.GetService(ctx, freshID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.True(t, errors.Is(database.DeleteService(ctx, 777), ErrNotFound))
}

func TestGetStats(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	barberID, serviceID := seedFixtures(t, database)

	reserve := func(slot string, userID int64) *model.Appointment {
		appt, err := database.Reserve(ctx, barberID, "2025-07-01", slot, userID, serviceID)
		require.NoError(t, err)
		return appt
	}

	done := reserve("10:00-10:30", 1)
	_, err := database.Confirm(ctx, done.ID)
	require.NoError(t, err)
	_, err = database.Complete(ctx, done.ID)
	require.NoError(t, err)

	canceled := reserve("10:30-11:00", 2)
	_, err = database.Cancel(ctx, canceled.ID)
	require.NoError(t, err)

	reserve("11:00-11:30", 3)

	report, err := database.GetStats(ctx, "2025-07-01", "2025-07-31")
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalAppointments)
	assert.Equal(t, 1, report.ByStatus[model.StatusCompleted])
	assert.Equal(t, 1, report.ByStatus[model.StatusCanceled])
	assert.Equal(t, 1, report.ByStatus[model.StatusBooked])
	assert.Equal(t, 1500, report.TotalIncome)
	require.Len(t, report.PopularServices, 1)
	assert.Equal(t, "Стрижка", report.PopularServices[0].Name)
	require.Len(t, report.BusyDays, 1)
	assert.Equal(t, model.DateCount{Date: "2025-07-01", Count: 1}, report.BusyDays[0])

	_, err = database.GetStats(ctx, "bad", "2025-07-31")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetAppointmentsForReminders(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	barberID, serviceID := seedFixtures(t, database)

	appt, err := database.Reserve(ctx, barberID, "2025-07-01", "16:00-16:30", 100, serviceID)
	require.NoError(t, err)

	due, err := database.GetAppointmentsForReminders(ctx, "2025-07-01", "2025-07-02")
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, appt.ID, due[0].ID)

	require.NoError(t, database.MarkReminderSent(ctx, appt.ID))
	due, err = database.GetAppointmentsForReminders(ctx, "2025-07-01", "2025-07-02")
	require.NoError(t, err)
	assert.Empty(t, due)
}

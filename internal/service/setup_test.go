package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	instructorID = int64(100)
	studentA     = int64(1)
	studentB     = int64(2)
	studentC     = int64(3)
	adminID      = int64(900)
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type testEnv struct {
	db           *memDB
	tx           *fakeTx
	slots        *fakeSlotRepo
	appointments *fakeAppointmentRepo
	waitlistRepo *fakeWaitlistRepo
	recurring    *fakeRecurringRepo
	notifier     *recordingNotifier
	auditor      *recordingAuditor
	clock        *testClock

	booking   *BookingService
	waitlist  *WaitlistService
	reminders *ReminderService
	slotSvc   *SlotService
}

// setupTestEnv собирает сервисы поверх in-memory хранилища с часами на now
func setupTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	db := newMemDB()
	env := &testEnv{
		db:           db,
		tx:           &fakeTx{},
		slots:        &fakeSlotRepo{db: db},
		appointments: &fakeAppointmentRepo{db: db},
		waitlistRepo: &fakeWaitlistRepo{db: db},
		recurring:    &fakeRecurringRepo{db: db},
		notifier:     &recordingNotifier{},
		auditor:      &recordingAuditor{},
		clock:        &testClock{t: now},
	}

	logger := zap.NewNop()

	env.waitlist = NewWaitlistService(env.tx, env.slots, env.appointments, env.waitlistRepo, env.notifier, time.UTC, logger)
	env.waitlist.now = env.clock.Now

	env.booking = NewBookingService(env.tx, env.slots, env.appointments, env.waitlistRepo, env.waitlist,
		env.notifier, env.auditor, time.UTC, "https://meet.test/", logger)
	env.booking.now = env.clock.Now

	env.reminders = NewReminderService(env.appointments, env.notifier, time.UTC, logger)
	env.reminders.now = env.clock.Now

	env.slotSvc = NewSlotService(env.tx, env.slots, env.appointments, env.recurring, time.UTC, 4, logger)
	env.slotSvc.now = env.clock.Now

	return env
}

// addSlot кладёт слот прямо в хранилище, минуя проверку на прошедшее время
func (e *testEnv) addSlot(t *testing.T, start time.Time, d time.Duration, mt model.MeetingType) *model.Slot {
	t.Helper()
	slot := &model.Slot{
		InstructorID: instructorID,
		StartTime:    start,
		EndTime:      start.Add(d),
		Location:     "Room 204",
		MeetingType:  mt,
	}
	require.NoError(t, e.slots.Create(context.Background(), slot))
	return slot
}

func (e *testEnv) book(t *testing.T, studentID, slotID int64) *model.Appointment {
	t.Helper()
	a, err := e.booking.BookSlot(context.Background(), studentID, slotID, BookingRequest{})
	require.NoError(t, err)
	return a
}

func (e *testEnv) scheduledCount(slotID int64) int {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	n := 0
	for _, a := range e.db.appointments {
		if a.SlotID == slotID && a.Status == model.AppointmentStatusScheduled {
			n++
		}
	}
	return n
}

func student(id int64) model.Actor {
	return model.Actor{ID: id, Role: model.RoleStudent}
}

func instructor() model.Actor {
	return model.Actor{ID: instructorID, Role: model.RoleInstructor}
}

func admin() model.Actor {
	return model.Actor{ID: adminID, Role: model.RoleAdmin}
}

func at(value string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		panic(err)
	}
	return t
}

package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/Freeeeeet/office_hours/internal/repository"
	"github.com/google/uuid"
)

// ── in-memory хранилище ──

type memDB struct {
	mu           sync.Mutex
	nextID       int64
	slots        map[int64]*model.Slot
	appointments map[int64]*model.Appointment
	waitlist     []*model.WaitlistEntry
	recurring    []*model.RecurringSchedule
}

func newMemDB() *memDB {
	return &memDB{
		slots:        make(map[int64]*model.Slot),
		appointments: make(map[int64]*model.Appointment),
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

// scheduledOnSlot вызывается под db.mu
func (db *memDB) scheduledOnSlot(slotID int64) *model.Appointment {
	for _, a := range db.appointments {
		if a.SlotID == slotID && a.Status == model.AppointmentStatusScheduled {
			return a
		}
	}
	return nil
}

// ── транзакции ──

type fakeTxKey struct{}

// fakeTx сериализует все транзакции, как блокировка строки слота в Postgres
type fakeTx struct {
	mu    sync.Mutex
	count int
}

func (t *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
	return fn(context.WithValue(ctx, fakeTxKey{}, true))
}

// ── слоты ──

type fakeSlotRepo struct {
	db *memDB
}

func (r *fakeSlotRepo) view(s *model.Slot) *model.Slot {
	cp := *s
	cp.IsBooked = r.db.scheduledOnSlot(s.ID) != nil
	return &cp
}

func (r *fakeSlotRepo) conflict(slot *model.Slot) bool {
	for _, existing := range r.db.slots {
		if existing.ID != slot.ID && existing.InstructorID == slot.InstructorID && existing.StartTime.Equal(slot.StartTime) {
			return true
		}
	}
	return false
}

func (r *fakeSlotRepo) Create(_ context.Context, slot *model.Slot) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.conflict(slot) {
		return repository.ErrDuplicateSlot
	}
	slot.ID = r.db.id()
	slot.CreatedAt = time.Now()
	cp := *slot
	r.db.slots[slot.ID] = &cp
	return nil
}

func (r *fakeSlotRepo) CreateIfNotExists(ctx context.Context, slot *model.Slot) (bool, error) {
	err := r.Create(ctx, slot)
	if errors.Is(err, repository.ErrDuplicateSlot) {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeSlotRepo) GetByID(_ context.Context, id int64) (*model.Slot, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.slots[id]
	if !ok {
		return nil, nil
	}
	return r.view(s), nil
}

func (r *fakeSlotRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeSlotRepo) list(match func(*model.Slot) bool) []*model.Slot {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*model.Slot
	for _, s := range r.db.slots {
		v := r.view(s)
		if match(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (r *fakeSlotRepo) ListByInstructor(_ context.Context, instructorID int64, from, to time.Time) ([]*model.Slot, error) {
	return r.list(func(s *model.Slot) bool {
		return s.InstructorID == instructorID && !s.StartTime.Before(from) && s.StartTime.Before(to)
	}), nil
}

func (r *fakeSlotRepo) ListAvailable(_ context.Context, from, to time.Time) ([]*model.Slot, error) {
	return r.list(func(s *model.Slot) bool {
		return !s.IsBooked && !s.StartTime.Before(from) && s.StartTime.Before(to)
	}), nil
}

func (r *fakeSlotRepo) Update(_ context.Context, slot *model.Slot) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.slots[slot.ID]; !ok {
		return errors.New("slot not found")
	}
	if r.conflict(slot) {
		return repository.ErrDuplicateSlot
	}
	cp := *slot
	r.db.slots[slot.ID] = &cp
	return nil
}

func (r *fakeSlotRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.slots[id]; !ok {
		return errors.New("slot not found")
	}
	delete(r.db.slots, id)
	// ON DELETE CASCADE / SET NULL
	kept := r.db.waitlist[:0]
	for _, e := range r.db.waitlist {
		if e.SlotID != id {
			kept = append(kept, e)
		}
	}
	r.db.waitlist = kept
	for _, a := range r.db.appointments {
		if a.SlotID == id {
			a.SlotID = 0
		}
	}
	return nil
}

// ── записи ──

type fakeAppointmentRepo struct {
	db *memDB

	markErr error
}

func (r *fakeAppointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	// ux_appointments_slot_scheduled
	if a.Status == model.AppointmentStatusScheduled && r.db.scheduledOnSlot(a.SlotID) != nil {
		return repository.ErrSlotTaken
	}
	a.ID = r.db.id()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.db.appointments[a.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) GetByID(_ context.Context, id int64) (*model.Appointment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.appointments[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppointmentRepo) GetScheduledBySlot(_ context.Context, slotID int64) (*model.Appointment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a := r.db.scheduledOnSlot(slotID)
	if a == nil {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppointmentRepo) FindStudentOverlap(_ context.Context, studentID int64, start, end time.Time) (*model.Appointment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, a := range r.db.appointments {
		if a.StudentID == studentID && a.Status == model.AppointmentStatusScheduled && a.Overlaps(start, end) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAppointmentRepo) LockStudent(context.Context, int64) error {
	return nil
}

func (r *fakeAppointmentRepo) list(match func(*model.Appointment) bool) []*model.Appointment {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*model.Appointment
	for _, a := range r.db.appointments {
		if match(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (r *fakeAppointmentRepo) ListByStudent(_ context.Context, studentID int64) ([]*model.Appointment, error) {
	return r.list(func(a *model.Appointment) bool { return a.StudentID == studentID }), nil
}

func (r *fakeAppointmentRepo) ListByInstructor(_ context.Context, instructorID int64) ([]*model.Appointment, error) {
	return r.list(func(a *model.Appointment) bool { return a.InstructorID == instructorID }), nil
}

func (r *fakeAppointmentRepo) ListScheduledStartingBetween(_ context.Context, from, to time.Time) ([]*model.Appointment, error) {
	return r.list(func(a *model.Appointment) bool {
		return a.Status == model.AppointmentStatusScheduled &&
			!a.StartTime.Before(from) && !a.StartTime.After(to) &&
			(!a.Reminder24hSent || !a.Reminder1hSent)
	}), nil
}

func (r *fakeAppointmentRepo) Cancel(_ context.Context, id, actorID int64, reason string, at time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.appointments[id]
	if !ok || a.Status != model.AppointmentStatusScheduled {
		return false, nil
	}
	a.Status = model.AppointmentStatusCancelled
	a.CancelledBy = &actorID
	a.CancellationReason = reason
	a.CancelledAt = &at
	a.UpdatedAt = at
	return true, nil
}

func (r *fakeAppointmentRepo) UpdateStatus(_ context.Context, id int64, status model.AppointmentStatus, at time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.appointments[id]
	if !ok || a.Status != model.AppointmentStatusScheduled {
		return false, nil
	}
	a.Status = status
	a.UpdatedAt = at
	return true, nil
}

func (r *fakeAppointmentRepo) MarkReminderSent(_ context.Context, id int64, kind model.ReminderKind) (bool, error) {
	if r.markErr != nil {
		return false, r.markErr
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.appointments[id]
	if !ok {
		return false, nil
	}
	switch kind {
	case model.Reminder24h:
		if a.Reminder24hSent {
			return false, nil
		}
		a.Reminder24hSent = true
	case model.Reminder1h:
		if a.Reminder1hSent {
			return false, nil
		}
		a.Reminder1hSent = true
	}
	return true, nil
}

// ── очередь ──

type fakeWaitlistRepo struct {
	db *memDB
}

func (r *fakeWaitlistRepo) Append(_ context.Context, slotID, studentID int64) (*model.WaitlistEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	maxPos := 0
	for _, e := range r.db.waitlist {
		if e.SlotID == slotID && e.Position > maxPos {
			maxPos = e.Position
		}
	}
	entry := &model.WaitlistEntry{
		ID:        r.db.id(),
		SlotID:    slotID,
		StudentID: studentID,
		Position:  maxPos + 1,
		CreatedAt: time.Now(),
	}
	r.db.waitlist = append(r.db.waitlist, entry)
	cp := *entry
	return &cp, nil
}

func (r *fakeWaitlistRepo) ListBySlot(_ context.Context, slotID int64) ([]*model.WaitlistEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*model.WaitlistEntry
	for _, e := range r.db.waitlist {
		if e.SlotID == slotID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeWaitlistRepo) Head(ctx context.Context, slotID int64) (*model.WaitlistEntry, error) {
	entries, _ := r.ListBySlot(ctx, slotID)
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

func (r *fakeWaitlistRepo) MarkNotified(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, e := range r.db.waitlist {
		if e.ID == id {
			e.Notified = true
		}
	}
	return nil
}

func (r *fakeWaitlistRepo) DeleteByStudent(_ context.Context, slotID, studentID int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var deleted int64
	kept := r.db.waitlist[:0]
	for _, e := range r.db.waitlist {
		if e.SlotID == slotID && e.StudentID == studentID {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.db.waitlist = kept
	return deleted, nil
}

// ── шаблоны ──

type fakeRecurringRepo struct {
	db *memDB
}

func (r *fakeRecurringRepo) Create(_ context.Context, schedule *model.RecurringSchedule) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	schedule.ID = r.db.id()
	cp := *schedule
	r.db.recurring = append(r.db.recurring, &cp)
	return nil
}

func (r *fakeRecurringRepo) GetAllActive(context.Context) ([]*model.RecurringSchedule, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*model.RecurringSchedule
	for _, s := range r.db.recurring {
		if s.IsActive {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRecurringRepo) GetByGroupID(_ context.Context, groupID uuid.UUID) ([]*model.RecurringSchedule, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*model.RecurringSchedule
	for _, s := range r.db.recurring {
		if s.GroupID == groupID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRecurringRepo) DeactivateByGroupID(_ context.Context, groupID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.recurring {
		if s.GroupID == groupID {
			s.IsActive = false
		}
	}
	return nil
}

// ── побочные эффекты ──

type recordingNotifier struct {
	mu    sync.Mutex
	items []model.Notification

	failFor map[int64]error
}

func (n *recordingNotifier) Notify(_ context.Context, msg model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, msg)
}

func (n *recordingNotifier) Send(_ context.Context, msg model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.failFor[msg.UserID]; err != nil {
		return err
	}
	n.items = append(n.items, msg)
	return nil
}

func (n *recordingNotifier) byKind(kind model.NotificationKind) []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.Notification
	for _, item := range n.items {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}

type auditRecord struct {
	actorID int64
	action  string
	details map[string]any
}

type recordingAuditor struct {
	mu      sync.Mutex
	records []auditRecord
}

func (a *recordingAuditor) Record(_ context.Context, actorID int64, action string, details map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, auditRecord{actorID: actorID, action: action, details: details})
}

func (a *recordingAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.records))
	for _, r := range a.records {
		out = append(out, r.action)
	}
	return out
}

package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/google/uuid"
)

// Transactor выполняет fn в одной транзакции хранилища
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type SlotStore interface {
	Create(ctx context.Context, slot *model.Slot) error
	CreateIfNotExists(ctx context.Context, slot *model.Slot) (bool, error)
	GetByID(ctx context.Context, id int64) (*model.Slot, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error)
	ListByInstructor(ctx context.Context, instructorID int64, from, to time.Time) ([]*model.Slot, error)
	ListAvailable(ctx context.Context, from, to time.Time) ([]*model.Slot, error)
	Update(ctx context.Context, slot *model.Slot) error
	Delete(ctx context.Context, id int64) error
}

type AppointmentStore interface {
	Create(ctx context.Context, a *model.Appointment) error
	GetByID(ctx context.Context, id int64) (*model.Appointment, error)
	GetScheduledBySlot(ctx context.Context, slotID int64) (*model.Appointment, error)
	FindStudentOverlap(ctx context.Context, studentID int64, start, end time.Time) (*model.Appointment, error)
	LockStudent(ctx context.Context, studentID int64) error
	ListByStudent(ctx context.Context, studentID int64) ([]*model.Appointment, error)
	ListByInstructor(ctx context.Context, instructorID int64) ([]*model.Appointment, error)
	ListScheduledStartingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
	Cancel(ctx context.Context, id, actorID int64, reason string, at time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus, at time.Time) (bool, error)
	MarkReminderSent(ctx context.Context, id int64, kind model.ReminderKind) (bool, error)
}

type WaitlistStore interface {
	Append(ctx context.Context, slotID, studentID int64) (*model.WaitlistEntry, error)
	Head(ctx context.Context, slotID int64) (*model.WaitlistEntry, error)
	ListBySlot(ctx context.Context, slotID int64) ([]*model.WaitlistEntry, error)
	MarkNotified(ctx context.Context, id int64) error
	DeleteByStudent(ctx context.Context, slotID, studentID int64) (int64, error)
}

type RecurringStore interface {
	Create(ctx context.Context, schedule *model.RecurringSchedule) error
	GetAllActive(ctx context.Context) ([]*model.RecurringSchedule, error)
	GetByGroupID(ctx context.Context, groupID uuid.UUID) ([]*model.RecurringSchedule, error)
	DeactivateByGroupID(ctx context.Context, groupID uuid.UUID) error
}

// Notifier ставит уведомление в очередь и сразу возвращает управление.
// Ошибки доставки обрабатывает сам notifier.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

// Sender доставляет уведомление синхронно
type Sender interface {
	Send(ctx context.Context, n model.Notification) error
}

// Auditor фиксирует изменения состояния. Ошибки не возвращает.
type Auditor interface {
	Record(ctx context.Context, actorID int64, action string, details map[string]any)
}

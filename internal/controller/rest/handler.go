package rest

import (
	"context"
	"strconv"
	"time"

	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/Freeeeeet/office_hours/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingAPI interface {
	BookSlot(ctx context.Context, studentID, slotID int64, req service.BookingRequest) (*model.Appointment, error)
	CancelAppointment(ctx context.Context, actor model.Actor, appointmentID int64, reason string) error
	CompleteAppointment(ctx context.Context, actor model.Actor, appointmentID int64, status string) error
	ListForActor(ctx context.Context, actor model.Actor) ([]*model.Appointment, error)
	GetByID(ctx context.Context, actor model.Actor, appointmentID int64) (*model.Appointment, error)
}

type WaitlistAPI interface {
	Join(ctx context.Context, studentID, slotID int64) (int, error)
	Leave(ctx context.Context, studentID, slotID int64) error
	ListForSlot(ctx context.Context, slotID int64) ([]*model.WaitlistEntry, error)
}

type SlotAPI interface {
	CreateSlot(ctx context.Context, instructorID int64, input service.SlotInput) (*model.Slot, error)
	UpdateSlot(ctx context.Context, actor model.Actor, slotID int64, input service.SlotInput) (*model.Slot, error)
	DeleteSlot(ctx context.Context, actor model.Actor, slotID int64) error
	GetSlot(ctx context.Context, slotID int64) (*model.Slot, error)
	ListInstructorSlots(ctx context.Context, instructorID int64, from, to time.Time) ([]*model.Slot, error)
	ListAvailable(ctx context.Context, from, to time.Time) ([]*model.Slot, error)
	CreateRecurringSchedule(ctx context.Context, instructorID int64, input service.RecurringInput) (uuid.UUID, error)
	DeactivateRecurringGroup(ctx context.Context, actor model.Actor, groupID uuid.UUID) error
}

type InboxAPI interface {
	List(ctx context.Context, userID int64, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
}

type ReminderAPI interface {
	RunSweep(ctx context.Context) (service.SweepResult, error)
}

// Handler HTTP обработчики поверх сервисов
type Handler struct {
	booking   BookingAPI
	waitlist  WaitlistAPI
	slots     SlotAPI
	inbox     InboxAPI
	reminders ReminderAPI
	logger    *zap.Logger
	now       func() time.Time
}

func NewHandler(booking BookingAPI, waitlist WaitlistAPI, slots SlotAPI, inbox InboxAPI, reminders ReminderAPI, logger *zap.Logger) *Handler {
	return &Handler{
		booking:   booking,
		waitlist:  waitlist,
		slots:     slots,
		inbox:     inbox,
		reminders: reminders,
		logger:    logger,
		now:       time.Now,
	}
}

// defaultRange окно выборки слотов, если from/to не заданы
const defaultRange = 7 * 24 * time.Hour

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// timeRange читает from/to в RFC3339
func (h *Handler) timeRange(c *gin.Context) (time.Time, time.Time, bool) {
	from := h.now()
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, "invalid from")
			return time.Time{}, time.Time{}, false
		}
		from = t
	}

	to := from.Add(defaultRange)
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, "invalid to")
			return time.Time{}, time.Time{}, false
		}
		to = t
	}
	return from, to, true
}

func (h *Handler) Health(c *gin.Context) {
	ok(c, gin.H{"status": "ok"})
}

package rest

import (
	"strconv"
	"time"

	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/Freeeeeet/office_hours/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type slotRequest struct {
	// Админ может публиковать слоты за преподавателя
	InstructorID int64     `json:"instructor_id"`
	StartTime    time.Time `json:"start_time" binding:"required"`
	EndTime      time.Time `json:"end_time" binding:"required"`
	Location     string    `json:"location"`
	MeetingType  string    `json:"meeting_type"`
	Notes        string    `json:"notes"`
}

func (r slotRequest) input() service.SlotInput {
	return service.SlotInput{
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Location:    r.Location,
		MeetingType: model.MeetingType(r.MeetingType),
		Notes:       r.Notes,
	}
}

type recurringRequest struct {
	InstructorID    int64               `json:"instructor_id"`
	Weekdays        []int               `json:"weekdays" binding:"required,min=1"`
	Times           []service.TimeOfDay `json:"times" binding:"required,min=1"`
	DurationMinutes int                 `json:"duration_minutes" binding:"required"`
	Location        string              `json:"location"`
	MeetingType     string              `json:"meeting_type"`
	Notes           string              `json:"notes"`
}

// ownerFor чей слот создаётся: свой, либо указанного преподавателя для админа
func ownerFor(actor model.Actor, requested int64) int64 {
	if actor.IsAdmin() && requested > 0 {
		return requested
	}
	return actor.ID
}

func (h *Handler) CreateSlot(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}

	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	slot, err := h.slots.CreateSlot(c.Request.Context(), ownerFor(actor, req.InstructorID), req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	created(c, slot)
}

func (h *Handler) UpdateSlot(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	slot, err := h.slots.UpdateSlot(c.Request.Context(), actor, id, req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, slot)
}

func (h *Handler) DeleteSlot(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	if err := h.slots.DeleteSlot(c.Request.Context(), actor, id); err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, gin.H{"slot_id": id})
}

func (h *Handler) GetSlot(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	slot, err := h.slots.GetSlot(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, slot)
}

// ListSlots GET /slots?instructor_id=&from=&to=
// Без instructor_id преподаватель получает свои слоты.
func (h *Handler) ListSlots(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}

	instructorID := actor.ID
	if v := c.Query("instructor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			badRequest(c, "invalid instructor_id")
			return
		}
		instructorID = id
	} else if actor.Role != model.RoleInstructor {
		badRequest(c, "instructor_id is required")
		return
	}

	from, to, valid := h.timeRange(c)
	if !valid {
		return
	}

	slots, err := h.slots.ListInstructorSlots(c.Request.Context(), instructorID, from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, slots)
}

func (h *Handler) ListAvailableSlots(c *gin.Context) {
	from, to, valid := h.timeRange(c)
	if !valid {
		return
	}

	slots, err := h.slots.ListAvailable(c.Request.Context(), from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, slots)
}

func (h *Handler) CreateRecurringSchedule(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}

	var req recurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	groupID, err := h.slots.CreateRecurringSchedule(c.Request.Context(), ownerFor(actor, req.InstructorID), service.RecurringInput{
		Weekdays:        req.Weekdays,
		Times:           req.Times,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		MeetingType:     model.MeetingType(req.MeetingType),
		Notes:           req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	created(c, gin.H{"group_id": groupID})
}

func (h *Handler) DeactivateRecurringGroup(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}

	groupID, err := uuid.Parse(c.Param("group_id"))
	if err != nil {
		badRequest(c, "invalid group_id")
		return
	}

	if err := h.slots.DeactivateRecurringGroup(c.Request.Context(), actor, groupID); err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, gin.H{"group_id": groupID})
}

// Notifications GET /notifications?limit=
func (h *Handler) Notifications(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.inbox.List(c.Request.Context(), actor.ID, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, list)
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	if err := h.inbox.MarkRead(c.Request.Context(), actor.ID, id); err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, gin.H{"notification_id": id})
}

// RunReminderSweep ручной запуск проверки напоминаний
func (h *Handler) RunReminderSweep(c *gin.Context) {
	result, err := h.reminders.RunSweep(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, result)
}

package rest

import (
	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/Freeeeeet/office_hours/internal/service"
	"github.com/gin-gonic/gin"
)

type bookRequest struct {
	SlotID      int64  `json:"slot_id" binding:"required"`
	MeetingType string `json:"meeting_type"`
	Topic       string `json:"topic"`
	Notes       string `json:"notes"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type completeRequest struct {
	Status string `json:"status" binding:"required"`
}

// BookSlot POST /appointments
func (h *Handler) BookSlot(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	appt, err := h.booking.BookSlot(c.Request.Context(), actor.ID, req.SlotID, service.BookingRequest{
		MeetingType: model.MeetingType(req.MeetingType),
		Topic:       req.Topic,
		Notes:       req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	created(c, gin.H{"appointment_id": appt.ID, "appointment": appt})
}

// MyAppointments GET /appointments/me
func (h *Handler) MyAppointments(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}

	list, err := h.booking.ListForActor(c.Request.Context(), actor)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, list)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	appt, err := h.booking.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, appt)
}

// CancelAppointment POST /appointments/:id/cancel, тело необязательно
func (h *Handler) CancelAppointment(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	if err := h.booking.CancelAppointment(c.Request.Context(), actor, id, req.Reason); err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, gin.H{"appointment_id": id, "status": model.AppointmentStatusCancelled})
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.booking.CompleteAppointment(c.Request.Context(), actor, id, req.Status); err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, gin.H{"appointment_id": id, "status": req.Status})
}

// JoinWaitlist POST /slots/:id/waitlist
func (h *Handler) JoinWaitlist(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}
	slotID, valid := pathID(c, "id")
	if !valid {
		return
	}

	position, err := h.waitlist.Join(c.Request.Context(), actor.ID, slotID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	created(c, gin.H{"slot_id": slotID, "position": position})
}

func (h *Handler) LeaveWaitlist(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}
	slotID, valid := pathID(c, "id")
	if !valid {
		return
	}

	if err := h.waitlist.Leave(c.Request.Context(), actor.ID, slotID); err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, gin.H{"slot_id": slotID})
}

// SlotWaitlist GET /slots/:id/waitlist, очередь видит только владелец слота или админ
func (h *Handler) SlotWaitlist(c *gin.Context) {
	actor, found := currentUser(c)
	if !found {
		return
	}
	slotID, valid := pathID(c, "id")
	if !valid {
		return
	}

	slot, err := h.slots.GetSlot(c.Request.Context(), slotID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if slot.InstructorID != actor.ID && !actor.IsAdmin() {
		h.handleError(c, service.ErrForbidden)
		return
	}

	entries, err := h.waitlist.ListForSlot(c.Request.Context(), slotID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	ok(c, entries)
}

package service

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/office_hours/internal/model"
)

const reasonNotSpecified = "not specified"

func formatInterval(start, end time.Time, loc *time.Location) string {
	start, end = start.In(loc), end.In(loc)
	return fmt.Sprintf("%s %s-%s", start.Format("Mon, 02 Jan 2006"), start.Format("15:04"), end.Format("15:04"))
}

func appointmentLink(id int64) string {
	return fmt.Sprintf("/appointments/%d", id)
}

func slotLink(id int64) string {
	return fmt.Sprintf("/slots/%d", id)
}

func newBookingNotification(a *model.Appointment, loc *time.Location) model.Notification {
	message := fmt.Sprintf("A student booked your office hours on %s (%s).", formatInterval(a.StartTime, a.EndTime, loc), a.MeetingType)
	if a.Topic != "" {
		message += fmt.Sprintf(" Topic: %s.", a.Topic)
	}
	return model.Notification{
		UserID:  a.InstructorID,
		Kind:    model.NotificationNewBooking,
		Title:   "New booking",
		Message: message,
		Link:    appointmentLink(a.ID),
	}
}

func bookingConfirmedNotification(a *model.Appointment, loc *time.Location) model.Notification {
	message := fmt.Sprintf("Your appointment on %s is confirmed.", formatInterval(a.StartTime, a.EndTime, loc))
	switch {
	case a.MeetingLink != "":
		message += " Join at " + a.MeetingLink + "."
	case a.Location != "":
		message += " Location: " + a.Location + "."
	}
	return model.Notification{
		UserID:  a.StudentID,
		Kind:    model.NotificationBookingConfirmed,
		Title:   "Booking confirmed",
		Message: message,
		Link:    appointmentLink(a.ID),
	}
}

func bookingCancelledNotification(a *model.Appointment, recipientID int64, loc *time.Location) model.Notification {
	reason := a.CancellationReason
	if reason == "" {
		reason = reasonNotSpecified
	}
	return model.Notification{
		UserID:  recipientID,
		Kind:    model.NotificationBookingCancelled,
		Title:   "Appointment cancelled",
		Message: fmt.Sprintf("The appointment on %s was cancelled. Reason: %s.", formatInterval(a.StartTime, a.EndTime, loc), reason),
		Link:    appointmentLink(a.ID),
	}
}

func spotAvailableNotification(entry *model.WaitlistEntry, slot *model.Slot, loc *time.Location) model.Notification {
	message := "A slot you are waiting for is available again. Book it before someone else does."
	if slot != nil {
		message = fmt.Sprintf("The slot on %s is available again. Book it before someone else does.", formatInterval(slot.StartTime, slot.EndTime, loc))
	}
	return model.Notification{
		UserID:  entry.StudentID,
		Kind:    model.NotificationSpotAvailable,
		Title:   "Waitlist spot available",
		Message: message,
		Link:    slotLink(entry.SlotID),
	}
}

func reminderNotification(a *model.Appointment, recipientID int64, kind model.ReminderKind, loc *time.Location) model.Notification {
	lead := "tomorrow"
	if kind == model.Reminder1h {
		lead = "in about an hour"
	}
	message := fmt.Sprintf("Your appointment starts %s: %s.", lead, formatInterval(a.StartTime, a.EndTime, loc))
	switch {
	case a.MeetingLink != "":
		message += " Join at " + a.MeetingLink + "."
	case a.Location != "":
		message += " Location: " + a.Location + "."
	}
	return model.Notification{
		UserID:  recipientID,
		Kind:    model.NotificationReminder,
		Title:   "Appointment reminder",
		Message: message,
		Link:    appointmentLink(a.ID),
	}
}

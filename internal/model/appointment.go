package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no-show"
)

// IsTerminal возвращает true для статусов, из которых нет переходов
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled || s == AppointmentStatusNoShow
}

type ReminderKind string

const (
	Reminder24h ReminderKind = "24h"
	Reminder1h  ReminderKind = "1h"
)

// Appointment запись студента на слот.
// Время и место копируются из слота в момент бронирования и дальше от слота не зависят.
type Appointment struct {
	ID           int64             `json:"id"`
	SlotID       int64             `json:"slot_id"`
	StudentID    int64             `json:"student_id"`
	InstructorID int64             `json:"instructor_id"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      time.Time         `json:"end_time"`
	Status       AppointmentStatus `json:"status"`
	MeetingType  MeetingType       `json:"meeting_type"`
	Location     string            `json:"location"`
	MeetingLink  string            `json:"meeting_link,omitempty"`
	Topic        string            `json:"topic"`
	Notes        string            `json:"notes"`

	CancelledBy        *int64     `json:"cancelled_by,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`

	Reminder24hSent bool `json:"-"`
	Reminder1hSent  bool `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Overlaps проверяет пересечение полуинтервалов [start, end)
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return start.Before(a.EndTime) && end.After(a.StartTime)
}

// ReminderSent возвращает флаг отправки напоминания указанного типа
func (a *Appointment) ReminderSent(kind ReminderKind) bool {
	switch kind {
	case Reminder24h:
		return a.Reminder24hSent
	case Reminder1h:
		return a.Reminder1hSent
	}
	return false
}

// IsParticipant проверяет что пользователь студент или преподаватель записи
func (a *Appointment) IsParticipant(userID int64) bool {
	return a.StudentID == userID || a.InstructorID == userID
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// RecurringSchedule представляет шаблон еженедельных часов приёма
type RecurringSchedule struct {
	ID              int64       `json:"id"`
	GroupID         uuid.UUID   `json:"group_id"` // идентификатор группы связанных шаблонов
	InstructorID    int64       `json:"instructor_id"`
	Weekday         int         `json:"weekday"`          // 0 = Sunday, 6 = Saturday
	StartHour       int         `json:"start_hour"`       // 0-23
	StartMinute     int         `json:"start_minute"`     // 0-59
	DurationMinutes int         `json:"duration_minutes"` // длительность в минутах
	Location        string      `json:"location"`
	MeetingType     MeetingType `json:"meeting_type"`
	Notes           string      `json:"notes"`
	IsActive        bool        `json:"is_active"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

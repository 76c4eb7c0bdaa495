package model

import "time"

type MeetingType string

const (
	MeetingTypeInPerson MeetingType = "in-person"
	MeetingTypeVirtual  MeetingType = "virtual"
	MeetingTypeEither   MeetingType = "either"
)

// Valid проверяет что значение входит в допустимый набор
func (m MeetingType) Valid() bool {
	switch m {
	case MeetingTypeInPerson, MeetingTypeVirtual, MeetingTypeEither:
		return true
	}
	return false
}

// Slot окно приёма, опубликованное преподавателем
type Slot struct {
	ID           int64       `json:"id"`
	InstructorID int64       `json:"instructor_id"`
	StartTime    time.Time   `json:"start_time"`
	EndTime      time.Time   `json:"end_time"`
	Location     string      `json:"location"`
	MeetingType  MeetingType `json:"meeting_type"`
	Notes        string      `json:"notes"`
	CreatedAt    time.Time   `json:"created_at"`

	// Вычисляется по наличию scheduled записи, в БД не хранится
	IsBooked bool `json:"is_booked"`
}

// Date возвращает дату слота в формате YYYY-MM-DD
func (s *Slot) Date(loc *time.Location) string {
	return s.StartTime.In(loc).Format("2006-01-02")
}

// Duration длительность слота
func (s *Slot) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

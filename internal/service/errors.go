package service

import (
	"errors"
	"fmt"
)

// Ошибки предусловий. Каждая возвращается вызывающему как есть, чтобы клиент
// мог отличить "слот занят" от "у вас уже есть запись в это время".
var (
	ErrNotFound               = errors.New("not found")
	ErrSlotInPast             = errors.New("slot is in the past")
	ErrSlotAlreadyBooked      = errors.New("slot is already booked")
	ErrConflictingAppointment = errors.New("student already has an overlapping appointment")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrAlreadyTerminal        = errors.New("appointment is no longer scheduled")
	ErrAlreadyCancelled       = fmt.Errorf("%w: already cancelled", ErrAlreadyTerminal)

	ErrInvalidMeetingType  = errors.New("invalid meeting type")
	ErrMeetingTypeMismatch = errors.New("meeting type does not match slot")
	ErrInvalidTimeRange    = errors.New("end time must be after start time")
	ErrSlotInUse           = errors.New("slot has a scheduled appointment")
	ErrSlotExists          = errors.New("slot with this start time already exists")
	ErrSlotNotBooked       = errors.New("slot is free, book it directly")
)

package repository

import "errors"

var (
	// ErrSlotTaken нарушен индекс ux_appointments_slot_scheduled
	ErrSlotTaken = errors.New("slot already has a scheduled appointment")
	// ErrDuplicateSlot у преподавателя уже есть слот с таким временем начала
	ErrDuplicateSlot = errors.New("slot with this start time already exists")
)

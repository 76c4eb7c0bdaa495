package model

import "time"

type NotificationKind string

const (
	NotificationNewBooking       NotificationKind = "new_booking"
	NotificationBookingConfirmed NotificationKind = "booking_confirmed"
	NotificationBookingCancelled NotificationKind = "booking_cancelled"
	NotificationSpotAvailable    NotificationKind = "waitlist_spot_available"
	NotificationReminder         NotificationKind = "appointment_reminder"
)

type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Link      string           `json:"link,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

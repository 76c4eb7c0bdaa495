package model

import "time"

// WaitlistEntry место студента в очереди на занятый слот.
// Position монотонно растёт в пределах слота и не перенумеровывается.
type WaitlistEntry struct {
	ID        int64     `json:"id"`
	SlotID    int64     `json:"slot_id"`
	StudentID int64     `json:"student_id"`
	Position  int       `json:"position"`
	Notified  bool      `json:"notified"`
	CreatedAt time.Time `json:"created_at"`
}

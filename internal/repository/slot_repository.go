package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/Freeeeeet/office_hours/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Занятость слота вычисляется, отдельной колонки нет
const slotColumns = `
	s.id, s.instructor_id, s.start_time, s.end_time, s.location, s.meeting_type, s.notes, s.created_at,
	EXISTS (SELECT 1 FROM appointments a WHERE a.slot_id = s.id AND a.status = 'scheduled') AS is_booked
`

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(pool)}
}

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.InstructorID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Location,
		&slot.MeetingType,
		&slot.Notes,
		&slot.CreatedAt,
		&slot.IsBooked,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func collectSlots(rows pgx.Rows) ([]*model.Slot, error) {
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (instructor_id, start_time, end_time, location, meeting_type, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		slot.InstructorID,
		slot.StartTime,
		slot.EndTime,
		slot.Location,
		slot.MeetingType,
		slot.Notes,
	).Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err, "ux_slots_instructor_start") {
			return ErrDuplicateSlot
		}
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// CreateIfNotExists создаёт слот, если у преподавателя ещё нет слота с тем же началом
func (r *SlotRepository) CreateIfNotExists(ctx context.Context, slot *model.Slot) (bool, error) {
	query := `
		INSERT INTO slots (instructor_id, start_time, end_time, location, meeting_type, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (instructor_id, start_time) DO NOTHING
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		slot.InstructorID,
		slot.StartTime,
		slot.EndTime,
		slot.Location,
		slot.MeetingType,
		slot.Notes,
	).Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("create slot if not exists: %w", err)
	}

	return true, nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots s WHERE s.id = $1`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetByIDForUpdate получает слот и блокирует строку до конца транзакции.
// Используется для сериализации бронирований одного слота.
func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots s WHERE s.id = $1 FOR UPDATE OF s`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock slot: %w", err)
	}

	return slot, nil
}

// ListByInstructor получает слоты преподавателя за период
func (r *SlotRepository) ListByInstructor(ctx context.Context, instructorID int64, from, to time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots s
		WHERE s.instructor_id = $1
		  AND s.start_time >= $2
		  AND s.start_time < $3
		ORDER BY s.start_time
	`

	rows, err := r.Query(ctx, query, instructorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get slots by instructor: %w", err)
	}

	return collectSlots(rows)
}

// ListAvailable получает свободные слоты всех преподавателей за период
func (r *SlotRepository) ListAvailable(ctx context.Context, from, to time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots s
		WHERE s.start_time >= $1
		  AND s.start_time < $2
		  AND NOT EXISTS (SELECT 1 FROM appointments a WHERE a.slot_id = s.id AND a.status = 'scheduled')
		ORDER BY s.start_time
	`

	rows, err := r.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("get available slots: %w", err)
	}

	return collectSlots(rows)
}

// Update обновляет время, место и тип встречи слота
func (r *SlotRepository) Update(ctx context.Context, slot *model.Slot) error {
	query := `
		UPDATE slots
		SET start_time = $1, end_time = $2, location = $3, meeting_type = $4, notes = $5
		WHERE id = $6
	`

	affected, err := r.ExecAffected(ctx, query,
		slot.StartTime,
		slot.EndTime,
		slot.Location,
		slot.MeetingType,
		slot.Notes,
		slot.ID,
	)
	if err != nil {
		if base.IsUniqueViolation(err, "ux_slots_instructor_start") {
			return ErrDuplicateSlot
		}
		return fmt.Errorf("update slot: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("slot not found")
	}

	return nil
}

// Delete удаляет слот
func (r *SlotRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("slot not found")
	}

	return nil
}

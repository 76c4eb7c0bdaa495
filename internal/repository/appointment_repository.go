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

const appointmentColumns = `
	id, slot_id, student_id, instructor_id, start_time, end_time, status, meeting_type,
	location, meeting_link, topic, notes, cancelled_by, cancellation_reason, cancelled_at,
	reminder_24h_sent, reminder_1h_sent, created_at, updated_at
`

type AppointmentRepository struct {
	*base.Repository
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{Repository: base.NewRepository(pool)}
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var (
		a      model.Appointment
		slotID *int64
	)
	err := row.Scan(
		&a.ID,
		&slotID,
		&a.StudentID,
		&a.InstructorID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.MeetingType,
		&a.Location,
		&a.MeetingLink,
		&a.Topic,
		&a.Notes,
		&a.CancelledBy,
		&a.CancellationReason,
		&a.CancelledAt,
		&a.Reminder24hSent,
		&a.Reminder1hSent,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	// slot_id обнуляется, если слот удалён после завершения записи
	if slotID != nil {
		a.SlotID = *slotID
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]*model.Appointment, error) {
	defer rows.Close()

	var appointments []*model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

// Create создаёт запись. Вторая scheduled запись на тот же слот возвращает ErrSlotTaken.
func (r *AppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (slot_id, student_id, instructor_id, start_time, end_time, status,
			meeting_type, location, meeting_link, topic, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		a.SlotID,
		a.StudentID,
		a.InstructorID,
		a.StartTime,
		a.EndTime,
		a.Status,
		a.MeetingType,
		a.Location,
		a.MeetingLink,
		a.Topic,
		a.Notes,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err, "ux_appointments_slot_scheduled") {
			return ErrSlotTaken
		}
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

// GetByID получает запись по ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	a, err := scanAppointment(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}

	return a, nil
}

// GetScheduledBySlot получает активную запись на слот
func (r *AppointmentRepository) GetScheduledBySlot(ctx context.Context, slotID int64) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE slot_id = $1 AND status = 'scheduled' LIMIT 1`

	a, err := scanAppointment(r.QueryRow(ctx, query, slotID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by slot: %w", err)
	}

	return a, nil
}

// FindStudentOverlap ищет scheduled запись студента, пересекающую [start, end)
func (r *AppointmentRepository) FindStudentOverlap(ctx context.Context, studentID int64, start, end time.Time) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE student_id = $1
		  AND status = 'scheduled'
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time
		LIMIT 1
	`

	a, err := scanAppointment(r.QueryRow(ctx, query, studentID, start, end))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find student overlap: %w", err)
	}

	return a, nil
}

// LockStudent берёт транзакционную advisory-блокировку на бронирования студента
func (r *AppointmentRepository) LockStudent(ctx context.Context, studentID int64) error {
	_, err := r.Conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended('appointments:student:' || $1::text, 0))`, studentID)
	if err != nil {
		return fmt.Errorf("lock student: %w", err)
	}
	return nil
}

// ListByStudent получает все записи студента
func (r *AppointmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE student_id = $1 ORDER BY start_time DESC`

	rows, err := r.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("get appointments by student: %w", err)
	}

	return collectAppointments(rows)
}

// ListByInstructor получает все записи к преподавателю
func (r *AppointmentRepository) ListByInstructor(ctx context.Context, instructorID int64) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE instructor_id = $1 ORDER BY start_time DESC`

	rows, err := r.Query(ctx, query, instructorID)
	if err != nil {
		return nil, fmt.Errorf("get appointments by instructor: %w", err)
	}

	return collectAppointments(rows)
}

// ListScheduledStartingBetween получает scheduled записи с началом в [from, to]
func (r *AppointmentRepository) ListScheduledStartingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = 'scheduled'
		  AND start_time >= $1
		  AND start_time <= $2
		  AND (NOT reminder_24h_sent OR NOT reminder_1h_sent)
		ORDER BY start_time
	`

	rows, err := r.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("get upcoming appointments: %w", err)
	}

	return collectAppointments(rows)
}

// Cancel переводит scheduled запись в cancelled. false - запись уже не scheduled.
func (r *AppointmentRepository) Cancel(ctx context.Context, id, actorID int64, reason string, at time.Time) (bool, error) {
	query := `
		UPDATE appointments
		SET status = 'cancelled', cancelled_by = $2, cancellation_reason = $3, cancelled_at = $4, updated_at = $4
		WHERE id = $1 AND status = 'scheduled'
	`

	affected, err := r.ExecAffected(ctx, query, id, actorID, reason, at)
	if err != nil {
		return false, fmt.Errorf("cancel appointment: %w", err)
	}

	return affected == 1, nil
}

// UpdateStatus переводит scheduled запись в терминальный статус. false - запись уже не scheduled.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus, at time.Time) (bool, error) {
	query := `
		UPDATE appointments
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = 'scheduled'
	`

	affected, err := r.ExecAffected(ctx, query, id, status, at)
	if err != nil {
		return false, fmt.Errorf("update appointment status: %w", err)
	}

	return affected == 1, nil
}

// MarkReminderSent атомарно выставляет флаг напоминания. false - флаг уже стоял.
func (r *AppointmentRepository) MarkReminderSent(ctx context.Context, id int64, kind model.ReminderKind) (bool, error) {
	var query string
	switch kind {
	case model.Reminder24h:
		query = `UPDATE appointments SET reminder_24h_sent = true WHERE id = $1 AND NOT reminder_24h_sent`
	case model.Reminder1h:
		query = `UPDATE appointments SET reminder_1h_sent = true WHERE id = $1 AND NOT reminder_1h_sent`
	default:
		return false, fmt.Errorf("unknown reminder kind %q", kind)
	}

	affected, err := r.ExecAffected(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}

	return affected == 1, nil
}

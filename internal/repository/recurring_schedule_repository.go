package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/Freeeeeet/office_hours/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const recurringColumns = `
	id, group_id, instructor_id, weekday, start_hour, start_minute, duration_minutes,
	location, meeting_type, notes, is_active, created_at, updated_at
`

// RecurringScheduleRepository управляет шаблонами часов приёма в базе данных
type RecurringScheduleRepository struct {
	*base.Repository
}

// NewRecurringScheduleRepository создаёт новый репозиторий
func NewRecurringScheduleRepository(pool *pgxpool.Pool) *RecurringScheduleRepository {
	return &RecurringScheduleRepository{Repository: base.NewRepository(pool)}
}

func collectRecurring(rows pgx.Rows) ([]*model.RecurringSchedule, error) {
	defer rows.Close()

	var schedules []*model.RecurringSchedule
	for rows.Next() {
		schedule := &model.RecurringSchedule{}
		err := rows.Scan(
			&schedule.ID,
			&schedule.GroupID,
			&schedule.InstructorID,
			&schedule.Weekday,
			&schedule.StartHour,
			&schedule.StartMinute,
			&schedule.DurationMinutes,
			&schedule.Location,
			&schedule.MeetingType,
			&schedule.Notes,
			&schedule.IsActive,
			&schedule.CreatedAt,
			&schedule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan recurring schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	return schedules, rows.Err()
}

// Create создаёт новый шаблон
func (r *RecurringScheduleRepository) Create(ctx context.Context, schedule *model.RecurringSchedule) error {
	query := `
		INSERT INTO recurring_schedules (group_id, instructor_id, weekday, start_hour, start_minute,
			duration_minutes, location, meeting_type, notes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx,
		query,
		schedule.GroupID,
		schedule.InstructorID,
		schedule.Weekday,
		schedule.StartHour,
		schedule.StartMinute,
		schedule.DurationMinutes,
		schedule.Location,
		schedule.MeetingType,
		schedule.Notes,
		schedule.IsActive,
	).Scan(&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create recurring schedule: %w", err)
	}

	return nil
}

// GetAllActive получает все активные шаблоны
func (r *RecurringScheduleRepository) GetAllActive(ctx context.Context) ([]*model.RecurringSchedule, error) {
	query := `
		SELECT ` + recurringColumns + `
		FROM recurring_schedules
		WHERE is_active = true
		ORDER BY instructor_id, weekday, start_hour, start_minute
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all active recurring schedules: %w", err)
	}

	return collectRecurring(rows)
}

// GetByGroupID получает все шаблоны группы
func (r *RecurringScheduleRepository) GetByGroupID(ctx context.Context, groupID uuid.UUID) ([]*model.RecurringSchedule, error) {
	query := `
		SELECT ` + recurringColumns + `
		FROM recurring_schedules
		WHERE group_id = $1
		ORDER BY weekday, start_hour, start_minute
	`

	rows, err := r.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("get recurring schedules by group_id: %w", err)
	}

	return collectRecurring(rows)
}

// DeactivateByGroupID деактивирует всю группу. Уже созданные слоты остаются.
func (r *RecurringScheduleRepository) DeactivateByGroupID(ctx context.Context, groupID uuid.UUID) error {
	query := `UPDATE recurring_schedules SET is_active = false, updated_at = now() WHERE group_id = $1`

	if _, err := r.ExecAffected(ctx, query, groupID); err != nil {
		return fmt.Errorf("deactivate recurring schedule group: %w", err)
	}

	return nil
}

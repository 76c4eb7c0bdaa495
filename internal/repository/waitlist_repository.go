package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/Freeeeeet/office_hours/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WaitlistRepository struct {
	*base.Repository
}

func NewWaitlistRepository(pool *pgxpool.Pool) *WaitlistRepository {
	return &WaitlistRepository{Repository: base.NewRepository(pool)}
}

// Append добавляет студента в конец очереди: position = max + 1.
// Вызывающий держит блокировку слота, иначе два вызова получат одну позицию.
func (r *WaitlistRepository) Append(ctx context.Context, slotID, studentID int64) (*model.WaitlistEntry, error) {
	query := `
		INSERT INTO waitlist_entries (slot_id, student_id, position)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1
		FROM waitlist_entries
		WHERE slot_id = $1
		RETURNING id, slot_id, student_id, position, notified, created_at
	`

	var entry model.WaitlistEntry
	err := r.QueryRow(ctx, query, slotID, studentID).Scan(
		&entry.ID,
		&entry.SlotID,
		&entry.StudentID,
		&entry.Position,
		&entry.Notified,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("append waitlist entry: %w", err)
	}

	return &entry, nil
}

// Head возвращает запись с минимальной позицией
func (r *WaitlistRepository) Head(ctx context.Context, slotID int64) (*model.WaitlistEntry, error) {
	query := `
		SELECT id, slot_id, student_id, position, notified, created_at
		FROM waitlist_entries
		WHERE slot_id = $1
		ORDER BY position ASC
		LIMIT 1
	`

	var entry model.WaitlistEntry
	err := r.QueryRow(ctx, query, slotID).Scan(
		&entry.ID,
		&entry.SlotID,
		&entry.StudentID,
		&entry.Position,
		&entry.Notified,
		&entry.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get waitlist head: %w", err)
	}

	return &entry, nil
}

// ListBySlot получает очередь слота в порядке вступления
func (r *WaitlistRepository) ListBySlot(ctx context.Context, slotID int64) ([]*model.WaitlistEntry, error) {
	query := `
		SELECT id, slot_id, student_id, position, notified, created_at
		FROM waitlist_entries
		WHERE slot_id = $1
		ORDER BY position ASC
	`

	rows, err := r.Query(ctx, query, slotID)
	if err != nil {
		return nil, fmt.Errorf("get waitlist by slot: %w", err)
	}
	defer rows.Close()

	var entries []*model.WaitlistEntry
	for rows.Next() {
		var entry model.WaitlistEntry
		err := rows.Scan(
			&entry.ID,
			&entry.SlotID,
			&entry.StudentID,
			&entry.Position,
			&entry.Notified,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan waitlist entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// MarkNotified выставляет флаг notified
func (r *WaitlistRepository) MarkNotified(ctx context.Context, id int64) error {
	_, err := r.ExecAffected(ctx, `UPDATE waitlist_entries SET notified = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark waitlist entry notified: %w", err)
	}
	return nil
}

// DeleteByStudent удаляет записи студента в очереди слота, позиции остальных не меняются
func (r *WaitlistRepository) DeleteByStudent(ctx context.Context, slotID, studentID int64) (int64, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM waitlist_entries WHERE slot_id = $1 AND student_id = $2`, slotID, studentID)
	if err != nil {
		return 0, fmt.Errorf("delete waitlist entry: %w", err)
	}
	return affected, nil
}

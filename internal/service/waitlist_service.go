package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/office_hours/internal/model"
	"go.uber.org/zap"
)

// WaitlistService очередь студентов на занятые слоты
type WaitlistService struct {
	tx              Transactor
	slotRepo        SlotStore
	appointmentRepo AppointmentStore
	waitlistRepo    WaitlistStore
	notifier        Notifier
	location        *time.Location
	logger          *zap.Logger

	now func() time.Time
}

func NewWaitlistService(
	tx Transactor,
	slotRepo SlotStore,
	appointmentRepo AppointmentStore,
	waitlistRepo WaitlistStore,
	notifier Notifier,
	location *time.Location,
	logger *zap.Logger,
) *WaitlistService {
	return &WaitlistService{
		tx:              tx,
		slotRepo:        slotRepo,
		appointmentRepo: appointmentRepo,
		waitlistRepo:    waitlistRepo,
		notifier:        notifier,
		location:        location,
		logger:          logger,
		now:             time.Now,
	}
}

// Join ставит студента в конец очереди и возвращает его позицию.
// Повторное вступление того же студента не проверяется.
func (s *WaitlistService) Join(ctx context.Context, studentID, slotID int64) (int, error) {
	var entry *model.WaitlistEntry

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		// Позиция max+1 считается под блокировкой слота
		slot, err := s.slotRepo.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		if slot == nil {
			return fmt.Errorf("%w: slot %d", ErrNotFound, slotID)
		}

		if !slot.StartTime.After(s.now()) {
			return ErrSlotInPast
		}

		booked, err := s.appointmentRepo.GetScheduledBySlot(ctx, slotID)
		if err != nil {
			return fmt.Errorf("get slot appointment: %w", err)
		}
		if booked == nil {
			return ErrSlotNotBooked
		}

		entry, err = s.waitlistRepo.Append(ctx, slotID, studentID)
		if err != nil {
			return fmt.Errorf("join waitlist: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Student joined waitlist",
		zap.Int64("slot_id", slotID),
		zap.Int64("student_id", studentID),
		zap.Int("position", entry.Position),
	)

	return entry.Position, nil
}

// Leave удаляет студента из очереди слота. Позиции остальных не пересчитываются.
func (s *WaitlistService) Leave(ctx context.Context, studentID, slotID int64) error {
	deleted, err := s.waitlistRepo.DeleteByStudent(ctx, slotID, studentID)
	if err != nil {
		return fmt.Errorf("leave waitlist: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: waitlist entry for slot %d", ErrNotFound, slotID)
	}

	s.logger.Info("Student left waitlist",
		zap.Int64("slot_id", slotID),
		zap.Int64("student_id", studentID),
	)

	return nil
}

// PromoteNext уведомляет первого в очереди что слот освободился.
// Слот не бронируется автоматически: кто первый забронирует, тот и получит.
func (s *WaitlistService) PromoteNext(ctx context.Context, slotID int64) error {
	head, err := s.waitlistRepo.Head(ctx, slotID)
	if err != nil {
		return fmt.Errorf("get waitlist head: %w", err)
	}
	if head == nil {
		return nil
	}

	if err := s.waitlistRepo.MarkNotified(ctx, head.ID); err != nil {
		return err
	}

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		s.logger.Warn("Failed to load slot for waitlist notification", zap.Int64("slot_id", slotID), zap.Error(err))
	}

	s.notifier.Notify(ctx, spotAvailableNotification(head, slot, s.location))

	s.logger.Info("Waitlist head notified",
		zap.Int64("slot_id", slotID),
		zap.Int64("student_id", head.StudentID),
		zap.Int("position", head.Position),
	)

	return nil
}

// ListForSlot возвращает очередь слота в порядке вступления
func (s *WaitlistService) ListForSlot(ctx context.Context, slotID int64) ([]*model.WaitlistEntry, error) {
	return s.waitlistRepo.ListBySlot(ctx, slotID)
}

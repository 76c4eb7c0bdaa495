package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/Freeeeeet/office_hours/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingRequest параметры бронирования от студента
type BookingRequest struct {
	MeetingType model.MeetingType
	Topic       string
	Notes       string
}

type BookingService struct {
	tx              Transactor
	slotRepo        SlotStore
	appointmentRepo AppointmentStore
	waitlistRepo    WaitlistStore
	waitlist        *WaitlistService
	notifier        Notifier
	auditor         Auditor
	location        *time.Location
	meetingBaseURL  string
	logger          *zap.Logger

	now func() time.Time
}

func NewBookingService(
	tx Transactor,
	slotRepo SlotStore,
	appointmentRepo AppointmentStore,
	waitlistRepo WaitlistStore,
	waitlist *WaitlistService,
	notifier Notifier,
	auditor Auditor,
	location *time.Location,
	meetingBaseURL string,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		tx:              tx,
		slotRepo:        slotRepo,
		appointmentRepo: appointmentRepo,
		waitlistRepo:    waitlistRepo,
		waitlist:        waitlist,
		notifier:        notifier,
		auditor:         auditor,
		location:        location,
		meetingBaseURL:  strings.TrimRight(meetingBaseURL, "/"),
		logger:          logger,
		now:             time.Now,
	}
}

// BookSlot бронирует слот для студента.
// Проверки слота и вставка записи выполняются в одной транзакции под блокировкой слота.
func (s *BookingService) BookSlot(ctx context.Context, studentID, slotID int64, req BookingRequest) (*model.Appointment, error) {
	if req.MeetingType != "" && (!req.MeetingType.Valid() || req.MeetingType == model.MeetingTypeEither) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMeetingType, req.MeetingType)
	}

	var appointment *model.Appointment

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		// Блокируем слот: параллельные бронирования того же слота ждут здесь
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

		existing, err := s.appointmentRepo.GetScheduledBySlot(ctx, slotID)
		if err != nil {
			return fmt.Errorf("get slot appointment: %w", err)
		}
		if existing != nil {
			return ErrSlotAlreadyBooked
		}

		if err := s.appointmentRepo.LockStudent(ctx, studentID); err != nil {
			return err
		}

		overlap, err := s.appointmentRepo.FindStudentOverlap(ctx, studentID, slot.StartTime, slot.EndTime)
		if err != nil {
			return fmt.Errorf("check student conflicts: %w", err)
		}
		if overlap != nil {
			return fmt.Errorf("%w: appointment %d", ErrConflictingAppointment, overlap.ID)
		}

		meetingType, err := resolveMeetingType(slot.MeetingType, req.MeetingType)
		if err != nil {
			return err
		}

		// Время и место копируются: последующие правки слота запись не меняют
		appointment = &model.Appointment{
			SlotID:       slot.ID,
			StudentID:    studentID,
			InstructorID: slot.InstructorID,
			StartTime:    slot.StartTime,
			EndTime:      slot.EndTime,
			Status:       model.AppointmentStatusScheduled,
			MeetingType:  meetingType,
			Location:     slot.Location,
			Topic:        req.Topic,
			Notes:        req.Notes,
		}
		if meetingType == model.MeetingTypeVirtual {
			appointment.MeetingLink = s.meetingBaseURL + "/" + uuid.NewString()
		}

		if err := s.appointmentRepo.Create(ctx, appointment); err != nil {
			if errors.Is(err, repository.ErrSlotTaken) {
				return ErrSlotAlreadyBooked
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		// Студенту больше не нужно ждать этот слот
		if _, err := s.waitlistRepo.DeleteByStudent(ctx, slotID, studentID); err != nil {
			return fmt.Errorf("cleanup waitlist: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot booked",
		zap.Int64("appointment_id", appointment.ID),
		zap.Int64("student_id", studentID),
		zap.Int64("slot_id", slotID),
		zap.String("meeting_type", string(appointment.MeetingType)),
	)

	s.auditor.Record(ctx, studentID, "appointment.book", map[string]any{
		"appointment_id": appointment.ID,
		"slot_id":        slotID,
	})

	s.notifier.Notify(ctx, newBookingNotification(appointment, s.location))
	s.notifier.Notify(ctx, bookingConfirmedNotification(appointment, s.location))

	return appointment, nil
}

// resolveMeetingType выбирает тип встречи. Явный выбор, не совпадающий с типом слота, отклоняется.
func resolveMeetingType(slotType, requested model.MeetingType) (model.MeetingType, error) {
	if slotType == model.MeetingTypeEither {
		if requested == "" {
			return model.MeetingTypeInPerson, nil
		}
		return requested, nil
	}

	if requested != "" && requested != slotType {
		return "", fmt.Errorf("%w: slot is %s", ErrMeetingTypeMismatch, slotType)
	}
	return slotType, nil
}

// CancelAppointment отменяет запись и уведомляет первого в очереди на слот
func (s *BookingService) CancelAppointment(ctx context.Context, actor model.Actor, appointmentID int64, reason string) error {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return fmt.Errorf("get appointment: %w", err)
	}
	if appointment == nil {
		return fmt.Errorf("%w: appointment %d", ErrNotFound, appointmentID)
	}

	// Проверяем что пользователь имеет право отменить
	if !appointment.IsParticipant(actor.ID) && !actor.IsAdmin() {
		return ErrForbidden
	}

	switch {
	case appointment.Status == model.AppointmentStatusCancelled:
		return ErrAlreadyCancelled
	case appointment.Status.IsTerminal():
		return ErrAlreadyTerminal
	}

	now := s.now()
	reason = strings.TrimSpace(reason)

	cancelled, err := s.appointmentRepo.Cancel(ctx, appointmentID, actor.ID, reason, now)
	if err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}
	if !cancelled {
		// Кто-то успел перевести запись в другой статус
		return ErrAlreadyTerminal
	}

	appointment.Status = model.AppointmentStatusCancelled
	appointment.CancelledBy = &actor.ID
	appointment.CancellationReason = reason
	appointment.CancelledAt = &now

	s.logger.Info("Appointment cancelled",
		zap.Int64("appointment_id", appointmentID),
		zap.Int64("actor_id", actor.ID),
		zap.String("actor_role", string(actor.Role)),
	)

	s.auditor.Record(ctx, actor.ID, "appointment.cancel", map[string]any{
		"appointment_id": appointmentID,
		"slot_id":        appointment.SlotID,
		"reason":         reason,
	})

	for _, recipient := range cancellationRecipients(appointment, actor) {
		s.notifier.Notify(ctx, bookingCancelledNotification(appointment, recipient, s.location))
	}

	if appointment.SlotID != 0 {
		if err := s.waitlist.PromoteNext(ctx, appointment.SlotID); err != nil {
			s.logger.Error("Failed to promote waitlist",
				zap.Int64("slot_id", appointment.SlotID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// cancellationRecipients возвращает вторую сторону записи; при отмене администратором - обе
func cancellationRecipients(a *model.Appointment, actor model.Actor) []int64 {
	switch actor.ID {
	case a.StudentID:
		return []int64{a.InstructorID}
	case a.InstructorID:
		return []int64{a.StudentID}
	default:
		return []int64{a.StudentID, a.InstructorID}
	}
}

// CompleteAppointment закрывает запись статусом completed или no-show
func (s *BookingService) CompleteAppointment(ctx context.Context, actor model.Actor, appointmentID int64, status string) error {
	newStatus := model.AppointmentStatus(status)
	if newStatus != model.AppointmentStatusCompleted && newStatus != model.AppointmentStatusNoShow {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return fmt.Errorf("get appointment: %w", err)
	}
	if appointment == nil {
		return fmt.Errorf("%w: appointment %d", ErrNotFound, appointmentID)
	}

	if appointment.InstructorID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}

	if appointment.Status.IsTerminal() {
		return ErrAlreadyTerminal
	}

	updated, err := s.appointmentRepo.UpdateStatus(ctx, appointmentID, newStatus, s.now())
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if !updated {
		return ErrAlreadyTerminal
	}

	s.logger.Info("Appointment completed",
		zap.Int64("appointment_id", appointmentID),
		zap.String("status", status),
		zap.Int64("actor_id", actor.ID),
	)

	s.auditor.Record(ctx, actor.ID, "appointment.complete", map[string]any{
		"appointment_id": appointmentID,
		"status":         status,
	})

	return nil
}

// ListForActor получает записи студента или записи к преподавателю
func (s *BookingService) ListForActor(ctx context.Context, actor model.Actor) ([]*model.Appointment, error) {
	if actor.Role == model.RoleInstructor {
		return s.appointmentRepo.ListByInstructor(ctx, actor.ID)
	}
	return s.appointmentRepo.ListByStudent(ctx, actor.ID)
}

// GetByID получает запись, видимую участникам и администратору
func (s *BookingService) GetByID(ctx context.Context, actor model.Actor, appointmentID int64) (*model.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appointment == nil {
		return nil, fmt.Errorf("%w: appointment %d", ErrNotFound, appointmentID)
	}
	if !appointment.IsParticipant(actor.ID) && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return appointment, nil
}

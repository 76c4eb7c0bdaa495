package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/Freeeeeet/office_hours/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SlotInput поля слота, которые задаёт преподаватель
type SlotInput struct {
	StartTime   time.Time
	EndTime     time.Time
	Location    string
	MeetingType model.MeetingType
	Notes       string
}

// TimeOfDay время начала в шаблоне расписания
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// RecurringInput параметры группы еженедельных шаблонов
type RecurringInput struct {
	Weekdays        []int // 0 = Sunday, 6 = Saturday
	Times           []TimeOfDay
	DurationMinutes int
	Location        string
	MeetingType     model.MeetingType
	Notes           string
}

// SlotService публикация и редактирование часов приёма
type SlotService struct {
	tx              Transactor
	slotRepo        SlotStore
	appointmentRepo AppointmentStore
	recurringRepo   RecurringStore
	location        *time.Location
	weeksAhead      int
	logger          *zap.Logger

	now func() time.Time
}

func NewSlotService(
	tx Transactor,
	slotRepo SlotStore,
	appointmentRepo AppointmentStore,
	recurringRepo RecurringStore,
	location *time.Location,
	weeksAhead int,
	logger *zap.Logger,
) *SlotService {
	return &SlotService{
		tx:              tx,
		slotRepo:        slotRepo,
		appointmentRepo: appointmentRepo,
		recurringRepo:   recurringRepo,
		location:        location,
		weeksAhead:      weeksAhead,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *SlotService) validate(input *SlotInput) error {
	if !input.EndTime.After(input.StartTime) {
		return ErrInvalidTimeRange
	}

	if input.MeetingType == "" {
		input.MeetingType = model.MeetingTypeEither
	}
	if !input.MeetingType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMeetingType, input.MeetingType)
	}

	if !input.StartTime.After(s.now()) {
		return ErrSlotInPast
	}

	return nil
}

// CreateSlot создаёт слот преподавателя
func (s *SlotService) CreateSlot(ctx context.Context, instructorID int64, input SlotInput) (*model.Slot, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	slot := &model.Slot{
		InstructorID: instructorID,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		Location:     input.Location,
		MeetingType:  input.MeetingType,
		Notes:        input.Notes,
	}

	if err := s.slotRepo.Create(ctx, slot); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlot) {
			return nil, ErrSlotExists
		}
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.logger.Info("Slot created",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("instructor_id", instructorID),
		zap.Time("start_time", slot.StartTime),
	)

	return slot, nil
}

// getOwned получает слот и проверяет что actor его владелец или администратор
func (s *SlotService) getOwned(ctx context.Context, actor model.Actor, slotID int64, forUpdate bool) (*model.Slot, error) {
	get := s.slotRepo.GetByID
	if forUpdate {
		get = s.slotRepo.GetByIDForUpdate
	}

	slot, err := get(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %d", ErrNotFound, slotID)
	}

	if slot.InstructorID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	return slot, nil
}

// UpdateSlot меняет время, место и тип слота. Уже созданные записи не меняются.
func (s *SlotService) UpdateSlot(ctx context.Context, actor model.Actor, slotID int64, input SlotInput) (*model.Slot, error) {
	slot, err := s.getOwned(ctx, actor, slotID, false)
	if err != nil {
		return nil, err
	}

	if err := s.validate(&input); err != nil {
		return nil, err
	}

	slot.StartTime = input.StartTime
	slot.EndTime = input.EndTime
	slot.Location = input.Location
	slot.MeetingType = input.MeetingType
	slot.Notes = input.Notes

	if err := s.slotRepo.Update(ctx, slot); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlot) {
			return nil, ErrSlotExists
		}
		return nil, fmt.Errorf("update slot: %w", err)
	}

	s.logger.Info("Slot updated",
		zap.Int64("slot_id", slotID),
		zap.Int64("actor_id", actor.ID),
	)

	return slot, nil
}

// DeleteSlot удаляет слот без активной записи вместе с его очередью
func (s *SlotService) DeleteSlot(ctx context.Context, actor model.Actor, slotID int64) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.getOwned(ctx, actor, slotID, true); err != nil {
			return err
		}

		booked, err := s.appointmentRepo.GetScheduledBySlot(ctx, slotID)
		if err != nil {
			return fmt.Errorf("get slot appointment: %w", err)
		}
		if booked != nil {
			return ErrSlotInUse
		}

		return s.slotRepo.Delete(ctx, slotID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Slot deleted",
		zap.Int64("slot_id", slotID),
		zap.Int64("actor_id", actor.ID),
	)

	return nil
}

// GetSlot получает слот по ID
func (s *SlotService) GetSlot(ctx context.Context, slotID int64) (*model.Slot, error) {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %d", ErrNotFound, slotID)
	}
	return slot, nil
}

// ListInstructorSlots получает слоты преподавателя за период
func (s *SlotService) ListInstructorSlots(ctx context.Context, instructorID int64, from, to time.Time) ([]*model.Slot, error) {
	if !to.After(from) {
		return nil, ErrInvalidTimeRange
	}
	return s.slotRepo.ListByInstructor(ctx, instructorID, from, to)
}

// ListAvailable получает свободные слоты за период
func (s *SlotService) ListAvailable(ctx context.Context, from, to time.Time) ([]*model.Slot, error) {
	if !to.After(from) {
		return nil, ErrInvalidTimeRange
	}
	return s.slotRepo.ListAvailable(ctx, from, to)
}

func validateRecurring(input *RecurringInput) error {
	if len(input.Weekdays) == 0 || len(input.Times) == 0 {
		return fmt.Errorf("%w: weekdays and times are required", ErrInvalidTimeRange)
	}
	for _, weekday := range input.Weekdays {
		if weekday < 0 || weekday > 6 {
			return fmt.Errorf("%w: weekday %d", ErrInvalidTimeRange, weekday)
		}
	}
	for _, t := range input.Times {
		if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
			return fmt.Errorf("%w: time %02d:%02d", ErrInvalidTimeRange, t.Hour, t.Minute)
		}
	}
	if input.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidTimeRange)
	}

	if input.MeetingType == "" {
		input.MeetingType = model.MeetingTypeEither
	}
	if !input.MeetingType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMeetingType, input.MeetingType)
	}
	return nil
}

// CreateRecurringSchedule создаёт группу шаблонов с общим group_id
// и сразу генерирует слоты на weeksAhead недель вперёд
func (s *SlotService) CreateRecurringSchedule(ctx context.Context, instructorID int64, input RecurringInput) (uuid.UUID, error) {
	if err := validateRecurring(&input); err != nil {
		return uuid.Nil, err
	}

	groupID := uuid.New()

	createdCount, slotsCount := 0, 0
	for _, weekday := range input.Weekdays {
		for _, t := range input.Times {
			schedule := &model.RecurringSchedule{
				GroupID:         groupID,
				InstructorID:    instructorID,
				Weekday:         weekday,
				StartHour:       t.Hour,
				StartMinute:     t.Minute,
				DurationMinutes: input.DurationMinutes,
				Location:        input.Location,
				MeetingType:     input.MeetingType,
				Notes:           input.Notes,
				IsActive:        true,
			}

			if err := s.recurringRepo.Create(ctx, schedule); err != nil {
				return uuid.Nil, fmt.Errorf("create recurring schedule: %w", err)
			}
			createdCount++

			count, err := s.generateSlotsForRecurringSchedule(ctx, schedule, s.weeksAhead)
			if err != nil {
				// Шаблон уже создан, слоты догенерирует ежедневная задача
				s.logger.Error("Failed to generate initial slots",
					zap.Error(err),
					zap.Int64("recurring_schedule_id", schedule.ID))
				continue
			}
			slotsCount += count
		}
	}

	s.logger.Info("Recurring schedule group created",
		zap.String("group_id", groupID.String()),
		zap.Int64("instructor_id", instructorID),
		zap.Int("total_created", createdCount),
		zap.Int("slots_created", slotsCount),
	)

	return groupID, nil
}

// DeactivateRecurringGroup деактивирует группу шаблонов. Созданные слоты остаются.
func (s *SlotService) DeactivateRecurringGroup(ctx context.Context, actor model.Actor, groupID uuid.UUID) error {
	schedules, err := s.recurringRepo.GetByGroupID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("get recurring schedules by group_id: %w", err)
	}

	if len(schedules) == 0 {
		return fmt.Errorf("%w: recurring schedule group %s", ErrNotFound, groupID)
	}

	if schedules[0].InstructorID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}

	if err := s.recurringRepo.DeactivateByGroupID(ctx, groupID); err != nil {
		return fmt.Errorf("deactivate recurring schedule group: %w", err)
	}

	s.logger.Info("Recurring schedule group deactivated",
		zap.String("group_id", groupID.String()),
		zap.Int64("actor_id", actor.ID),
	)

	return nil
}

// generateSlotsForRecurringSchedule создаёт недостающие слоты шаблона на weeksAhead недель.
// Слоты с уже существующим временем начала пропускаются.
func (s *SlotService) generateSlotsForRecurringSchedule(ctx context.Context, schedule *model.RecurringSchedule, weeksAhead int) (int, error) {
	now := s.now().In(s.location)
	weekday := time.Weekday(schedule.Weekday)

	count := 0
	for i := 0; i < weeksAhead*7; i++ {
		date := now.AddDate(0, 0, i)
		if date.Weekday() != weekday {
			continue
		}

		startTime := time.Date(date.Year(), date.Month(), date.Day(),
			schedule.StartHour, schedule.StartMinute, 0, 0, s.location)
		if !startTime.After(now) {
			continue
		}

		slot := &model.Slot{
			InstructorID: schedule.InstructorID,
			StartTime:    startTime,
			EndTime:      startTime.Add(time.Duration(schedule.DurationMinutes) * time.Minute),
			Location:     schedule.Location,
			MeetingType:  schedule.MeetingType,
			Notes:        schedule.Notes,
		}

		created, err := s.slotRepo.CreateIfNotExists(ctx, slot)
		if err != nil {
			return count, fmt.Errorf("create slot: %w", err)
		}
		if created {
			count++
		}
	}

	return count, nil
}

// GenerateSlotsForAllRecurringSchedules генерирует слоты для всех активных шаблонов.
// Вызывается планировщиком раз в день.
func (s *SlotService) GenerateSlotsForAllRecurringSchedules(ctx context.Context, weeksAhead int) (int, error) {
	schedules, err := s.recurringRepo.GetAllActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("get all active recurring schedules: %w", err)
	}

	totalCount := 0
	for _, schedule := range schedules {
		count, err := s.generateSlotsForRecurringSchedule(ctx, schedule, weeksAhead)
		totalCount += count
		if err != nil {
			s.logger.Error("Failed to generate slots for recurring schedule",
				zap.Error(err),
				zap.Int64("recurring_schedule_id", schedule.ID),
			)
			continue
		}
	}

	s.logger.Info("Generated slots for all recurring schedules",
		zap.Int("total_schedules", len(schedules)),
		zap.Int("total_slots_created", totalCount),
	)

	return totalCount, nil
}

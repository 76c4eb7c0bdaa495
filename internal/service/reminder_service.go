package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/office_hours/internal/model"
	"go.uber.org/zap"
)

// reminderWindow интервал времени до начала записи, в котором отправляется напоминание
type reminderWindow struct {
	kind     model.ReminderKind
	earliest time.Duration
	latest   time.Duration
}

// Окна шире интервала обхода, чтобы ни одно напоминание не было пропущено
var reminderWindows = []reminderWindow{
	{kind: model.Reminder24h, earliest: 23 * time.Hour, latest: 25 * time.Hour},
	{kind: model.Reminder1h, earliest: 30 * time.Minute, latest: 90 * time.Minute},
}

func (w reminderWindow) contains(untilStart time.Duration) bool {
	return untilStart >= w.earliest && untilStart <= w.latest
}

// SweepResult итог одного обхода
type SweepResult struct {
	Checked int `json:"checked"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

// ReminderService рассылает напоминания о предстоящих записях
type ReminderService struct {
	appointmentRepo AppointmentStore
	sender          Sender
	location        *time.Location
	logger          *zap.Logger

	now func() time.Time
}

func NewReminderService(appointmentRepo AppointmentStore, sender Sender, location *time.Location, logger *zap.Logger) *ReminderService {
	return &ReminderService{
		appointmentRepo: appointmentRepo,
		sender:          sender,
		location:        location,
		logger:          logger,
		now:             time.Now,
	}
}

// RunSweep проверяет scheduled записи и отправляет напоминания, окно которых открыто.
// Флаг выставляется до отправки; при ошибке отправки повтора не будет.
// Ошибка по одной записи не прерывает обход.
func (s *ReminderService) RunSweep(ctx context.Context) (SweepResult, error) {
	// Обход доводится до конца даже если вызывающий отменил запрос
	ctx = context.WithoutCancel(ctx)

	var result SweepResult
	now := s.now()

	from, to := now.Add(reminderWindows[0].earliest), now.Add(reminderWindows[0].latest)
	for _, w := range reminderWindows[1:] {
		if start := now.Add(w.earliest); start.Before(from) {
			from = start
		}
		if end := now.Add(w.latest); end.After(to) {
			to = end
		}
	}

	appointments, err := s.appointmentRepo.ListScheduledStartingBetween(ctx, from, to)
	if err != nil {
		return result, fmt.Errorf("get upcoming appointments: %w", err)
	}

	for _, appointment := range appointments {
		result.Checked++
		untilStart := appointment.StartTime.Sub(now)

		for _, w := range reminderWindows {
			if appointment.ReminderSent(w.kind) || !w.contains(untilStart) {
				continue
			}

			claimed, err := s.appointmentRepo.MarkReminderSent(ctx, appointment.ID, w.kind)
			if err != nil {
				s.logger.Error("Failed to mark reminder sent",
					zap.Int64("appointment_id", appointment.ID),
					zap.String("kind", string(w.kind)),
					zap.Error(err),
				)
				result.Failed++
				continue
			}
			if !claimed {
				// Другой обход уже отправил это напоминание
				continue
			}

			for _, recipient := range []int64{appointment.StudentID, appointment.InstructorID} {
				n := reminderNotification(appointment, recipient, w.kind, s.location)
				if err := s.sender.Send(ctx, n); err != nil {
					s.logger.Warn("Failed to send reminder",
						zap.Int64("appointment_id", appointment.ID),
						zap.Int64("user_id", recipient),
						zap.String("kind", string(w.kind)),
						zap.Error(err),
					)
					result.Failed++
					continue
				}
				result.Sent++
			}
		}
	}

	s.logger.Info("Reminder sweep finished",
		zap.Int("checked", result.Checked),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

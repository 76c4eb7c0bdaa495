package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/office_hours/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type reminderSweeper interface {
	RunSweep(ctx context.Context) (service.SweepResult, error)
}

type slotGenerator interface {
	GenerateSlotsForAllRecurringSchedules(ctx context.Context, weeksAhead int) (int, error)
}

// SchedulerConfig расписание фоновых задач
type SchedulerConfig struct {
	ReminderInterval    time.Duration
	StartupDelay        time.Duration
	SlotGenerationCron  string
	SlotGenerationWeeks int
	Location            *time.Location
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	cron      *cron.Cron
	reminders reminderSweeper
	slots     slotGenerator
	cfg       SchedulerConfig
	logger    *zap.Logger

	ctx      context.Context
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler создаёт новый планировщик и регистрирует задачи
func NewScheduler(reminders reminderSweeper, slots slotGenerator, cfg SchedulerConfig, logger *zap.Logger) (*Scheduler, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	cl := cronLogger{logger: logger.Named("cron").Sugar()}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		reminders: reminders,
		slots:     slots,
		cfg:       cfg,
		logger:    logger,
		ctx:       context.Background(),
		stopChan:  make(chan struct{}),
	}

	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", cfg.ReminderInterval), s.sweepReminders); err != nil {
		return nil, fmt.Errorf("schedule reminder sweep: %w", err)
	}
	if _, err := s.cron.AddFunc(cfg.SlotGenerationCron, s.generateSlots); err != nil {
		return nil, fmt.Errorf("schedule slot generation: %w", err)
	}

	return s, nil
}

// Start запускает фоновые задачи.
// Обход напоминаний и генерация слотов один раз выполняются вскоре после старта.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler",
		zap.Duration("reminder_interval", s.cfg.ReminderInterval),
		zap.String("slot_generation_cron", s.cfg.SlotGenerationCron),
	)

	s.ctx = ctx
	s.cron.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-time.After(s.cfg.StartupDelay):
			s.sweepReminders()
			s.generateSlots()
		case <-s.stopChan:
		case <-ctx.Done():
		}
	}()
}

// Stop останавливает фоновые задачи и ждёт завершения запущенных
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
		<-s.cron.Stop().Done()
		s.wg.Wait()
	})
}

func (s *Scheduler) sweepReminders() {
	if _, err := s.reminders.RunSweep(s.ctx); err != nil {
		s.logger.Error("Reminder sweep failed", zap.Error(err))
	}
}

// generateSlots генерирует слоты для всех активных шаблонов
func (s *Scheduler) generateSlots() {
	s.logger.Info("Starting automatic slot generation")

	count, err := s.slots.GenerateSlotsForAllRecurringSchedules(s.ctx, s.cfg.SlotGenerationWeeks)
	if err != nil {
		s.logger.Error("Failed to generate slots", zap.Error(err))
		return
	}

	s.logger.Info("Automatic slot generation completed", zap.Int("slots_created", count))
}

// cronLogger направляет логи robfig/cron в zap
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}

package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/office_hours/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) RunSweep(context.Context) (service.SweepResult, error) {
	s.calls.Add(1)
	return service.SweepResult{}, nil
}

type countingGenerator struct {
	calls atomic.Int32
	weeks atomic.Int32
}

func (g *countingGenerator) GenerateSlotsForAllRecurringSchedules(_ context.Context, weeksAhead int) (int, error) {
	g.calls.Add(1)
	g.weeks.Store(int32(weeksAhead))
	return 0, nil
}

func testSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		ReminderInterval:    time.Hour,
		StartupDelay:        10 * time.Millisecond,
		SlotGenerationCron:  "0 3 * * *",
		SlotGenerationWeeks: 6,
	}
}

func TestScheduler_RunsJobsAfterStartupDelay(t *testing.T) {
	sweeper := &countingSweeper{}
	generator := &countingGenerator{}

	s, err := NewScheduler(sweeper, generator, testSchedulerConfig(), zap.NewNop())
	require.NoError(t, err)

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return sweeper.calls.Load() == 1 && generator.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(6), generator.weeks.Load())
}

func TestScheduler_StopBeforeStartupDelay(t *testing.T) {
	cfg := testSchedulerConfig()
	cfg.StartupDelay = time.Hour
	sweeper := &countingSweeper{}

	s, err := NewScheduler(sweeper, &countingGenerator{}, cfg, zap.NewNop())
	require.NoError(t, err)

	s.Start(context.Background())
	s.Stop()
	s.Stop()

	assert.Equal(t, int32(0), sweeper.calls.Load())
}

func TestNewScheduler_InvalidCron(t *testing.T) {
	cfg := testSchedulerConfig()
	cfg.SlotGenerationCron = "every day"

	_, err := NewScheduler(&countingSweeper{}, &countingGenerator{}, cfg, zap.NewNop())
	assert.ErrorContains(t, err, "schedule slot generation")
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Freeeeeet/office_hours/internal/model"
	"go.uber.org/zap"
)

// Sink канал доставки уведомлений
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n model.Notification) error
}

type job struct {
	ctx context.Context
	n   model.Notification
}

// Dispatcher рассылает уведомления во все sink'и.
// Notify ставит уведомление в очередь и не ждёт доставки; Send доставляет синхронно.
type Dispatcher struct {
	sinks   []Sink
	queue   chan job
	workers int
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(logger *zap.Logger, workers, queueSize int, sinks ...Sink) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Dispatcher{
		sinks:   sinks,
		queue:   make(chan job, queueSize),
		workers: workers,
		logger:  logger.Named("notify"),
	}
}

// Start запускает воркеры очереди
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for j := range d.queue {
				if err := d.deliver(j.ctx, j.n); err != nil {
					d.logger.Warn("Notification delivery failed",
						zap.Int64("user_id", j.n.UserID),
						zap.String("kind", string(j.n.Kind)),
						zap.Error(err),
					)
				}
			}
		}()
	}
	d.logger.Info("Notification dispatcher started", zap.Int("workers", d.workers), zap.Int("queue_size", cap(d.queue)))
}

// Stop закрывает очередь и ждёт пока воркеры доставят оставшееся
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("Notification dispatcher stopped")
}

// Notify ставит уведомление в очередь. Если очередь заполнена, уведомление теряется.
func (d *Dispatcher) Notify(ctx context.Context, n model.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("Dispatcher stopped, notification dropped",
			zap.Int64("user_id", n.UserID),
			zap.String("kind", string(n.Kind)),
		)
		return
	}

	// Доставка не должна обрываться вместе с HTTP запросом
	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), n: n}:
	default:
		d.logger.Warn("Notification queue is full, notification dropped",
			zap.Int64("user_id", n.UserID),
			zap.String("kind", string(n.Kind)),
		)
	}
}

// Send доставляет уведомление во все sink'и и возвращает объединённую ошибку
func (d *Dispatcher) Send(ctx context.Context, n model.Notification) error {
	return d.deliver(ctx, n)
}

func (d *Dispatcher) deliver(ctx context.Context, n model.Notification) error {
	var errs []error
	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

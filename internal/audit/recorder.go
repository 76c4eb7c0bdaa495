package audit

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

type requestIDKey struct{}

// WithRequestID кладёт идентификатор запроса в контекст для записей аудита
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID возвращает идентификатор запроса из контекста
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Recorder пишет журнал изменений в отдельный логгер "audit".
// Хранение журнала выполняет внешний сборщик логов.
type Recorder struct {
	logger *zap.Logger
}

func NewRecorder(logger *zap.Logger) *Recorder {
	return &Recorder{logger: logger.Named("audit")}
}

func (r *Recorder) Record(ctx context.Context, actorID int64, action string, details map[string]any) {
	fields := make([]zap.Field, 0, len(details)+3)
	fields = append(fields, zap.Int64("actor_id", actorID), zap.String("action", action))
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, details[k]))
	}

	r.logger.Info("audit", fields...)
}

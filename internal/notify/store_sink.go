package notify

import (
	"context"

	"github.com/Freeeeeet/office_hours/internal/model"
)

type notificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
}

// StoreSink сохраняет уведомление во внутренний inbox
type StoreSink struct {
	store notificationStore
}

func NewStoreSink(store notificationStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Name() string { return "store" }

func (s *StoreSink) Deliver(ctx context.Context, n model.Notification) error {
	return s.store.Create(ctx, &n)
}

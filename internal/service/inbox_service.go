package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/office_hours/internal/model"
)

const defaultInboxLimit = 50

type InboxStore interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) (bool, error)
}

// InboxService внутренние уведомления пользователя
type InboxService struct {
	notificationRepo InboxStore
}

func NewInboxService(notificationRepo InboxStore) *InboxService {
	return &InboxService{notificationRepo: notificationRepo}
}

// List возвращает последние уведомления пользователя
func (s *InboxService) List(ctx context.Context, userID int64, limit int) ([]*model.Notification, error) {
	if limit <= 0 || limit > defaultInboxLimit {
		limit = defaultInboxLimit
	}
	return s.notificationRepo.ListByUser(ctx, userID, limit)
}

// MarkRead отмечает уведомление прочитанным
func (s *InboxService) MarkRead(ctx context.Context, userID, id int64) error {
	ok, err := s.notificationRepo.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: notification %d", ErrNotFound, id)
	}
	return nil
}

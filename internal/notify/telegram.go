package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// messageSender часть *bot.Bot, нужная для отправки
type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type userLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// TelegramSink отправляет уведомление в Telegram, если у пользователя привязан аккаунт
type TelegramSink struct {
	sender  messageSender
	users   userLookup
	baseURL string
}

func NewTelegramSink(sender messageSender, users userLookup, baseURL string) *TelegramSink {
	return &TelegramSink{sender: sender, users: users, baseURL: baseURL}
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Deliver(ctx context.Context, n model.Notification) error {
	user, err := s.users.GetByID(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	// Telegram не привязан: уведомление останется только во внутреннем inbox
	if user == nil || user.TelegramID == nil {
		return nil
	}

	_, err = s.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    *user.TelegramID,
		Text:      formatTelegram(n, s.baseURL),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func formatTelegram(n model.Notification, baseURL string) string {
	text := fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(n.Title), html.EscapeString(n.Message))
	if n.Link != "" && baseURL != "" {
		text += fmt.Sprintf("\n\n%s%s", html.EscapeString(baseURL), html.EscapeString(n.Link))
	}
	return text
}

package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/office_hours/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// maxListedAppointments сколько предстоящих записей показывает /appointments
const maxListedAppointments = 10

type telegramUsers interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
}

type appointmentLister interface {
	ListForActor(ctx context.Context, actor model.Actor) ([]*model.Appointment, error)
}

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// BotController Telegram бот только для чтения: приветствие и список записей.
// Бронирование выполняется через HTTP API.
type BotController struct {
	bot          *bot.Bot
	users        telegramUsers
	appointments appointmentLister
	location     *time.Location
	logger       *zap.Logger
	now          func() time.Time
}

func NewBotController(
	botInstance *bot.Bot,
	users telegramUsers,
	appointments appointmentLister,
	location *time.Location,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:          botInstance,
		users:        users,
		appointments: appointments,
		location:     location,
		logger:       logger.Named("bot"),
		now:          time.Now,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.onStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.onStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/appointments", bot.MatchTypeExact, c.onAppointments)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "appointments", Description: "📅 Мои ближайшие записи"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}

func (c *BotController) onStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.handleStart(ctx, b, update)
}

func (c *BotController) onAppointments(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.handleAppointments(ctx, b, update)
}

func (c *BotController) handleStart(ctx context.Context, sender messageSender, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	user, err := c.users.GetByTelegramID(ctx, update.Message.From.ID)
	if err != nil {
		c.logger.Error("Failed to get user", zap.Int64("telegram_id", update.Message.From.ID), zap.Error(err))
		c.reply(ctx, sender, update, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}
	if user == nil {
		c.reply(ctx, sender, update,
			"👋 Привет!\n\nЭтот Telegram аккаунт не привязан к университетской учётной записи. "+
				"Привяжите его в личном кабинете, чтобы получать уведомления о записях.")
		return
	}

	c.reply(ctx, sender, update, fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Сюда будут приходить уведомления о записях на консультации и напоминания.\n\n"+
			"/appointments - Мои ближайшие записи",
		user.Name,
	))
}

func (c *BotController) handleAppointments(ctx context.Context, sender messageSender, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	user, err := c.users.GetByTelegramID(ctx, update.Message.From.ID)
	if err != nil || user == nil {
		if err != nil {
			c.logger.Error("Failed to get user", zap.Int64("telegram_id", update.Message.From.ID), zap.Error(err))
		}
		c.reply(ctx, sender, update, "❌ Аккаунт не найден. Отправьте /start.")
		return
	}

	list, err := c.appointments.ListForActor(ctx, model.Actor{ID: user.ID, Role: user.Role})
	if err != nil {
		c.logger.Error("Failed to list appointments", zap.Int64("user_id", user.ID), zap.Error(err))
		c.reply(ctx, sender, update, "❌ Не удалось загрузить записи. Попробуйте позже.")
		return
	}

	c.reply(ctx, sender, update, c.formatUpcoming(list))
}

// formatUpcoming только будущие scheduled записи по возрастанию времени.
// list приходит отсортированным по убыванию start_time.
func (c *BotController) formatUpcoming(list []*model.Appointment) string {
	now := c.now()

	var sb strings.Builder
	count := 0
	for i := len(list) - 1; i >= 0 && count < maxListedAppointments; i-- {
		a := list[i]
		if a.Status != model.AppointmentStatusScheduled || !a.StartTime.After(now) {
			continue
		}
		start := a.StartTime.In(c.location)
		fmt.Fprintf(&sb, "• %s %s-%s (%s)", start.Format("02.01.2006"), start.Format("15:04"),
			a.EndTime.In(c.location).Format("15:04"), a.MeetingType)
		switch {
		case a.MeetingLink != "":
			sb.WriteString("\n  " + a.MeetingLink)
		case a.Location != "":
			sb.WriteString("\n  📍 " + a.Location)
		}
		sb.WriteString("\n")
		count++
	}

	if count == 0 {
		return "📭 У вас нет предстоящих записей."
	}
	return "📅 Ближайшие записи:\n\n" + sb.String()
}

func (c *BotController) reply(ctx context.Context, sender messageSender, update *models.Update, text string) {
	_, err := sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
	if err != nil {
		c.logger.Warn("Failed to send reply", zap.Int64("chat_id", update.Message.Chat.ID), zap.Error(err))
	}
}

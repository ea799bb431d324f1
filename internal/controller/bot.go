// Package controller команды Telegram-бота для учителей
package controller

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/colloqui/internal/colloqui"
	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type TeacherFinder interface {
	GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Teacher, error)
}

type BookingQueries interface {
	PendingCount(ctx context.Context, teacherID int64) (int, error)
	TeacherRequests(ctx context.Context, teacherID int64) (*colloqui.TeacherRequests, error)
	ReceptionDates(ctx context.Context, teacherID int64, locationID *int64) (*colloqui.Receptions, error)
}

type BotController struct {
	bot      *bot.Bot
	teachers TeacherFinder
	booking  BookingQueries
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, teachers TeacherFinder, booking BookingQueries, logger *zap.Logger) *BotController {
	return &BotController{
		bot:      botInstance,
		teachers: teachers,
		booking:  booking,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers() {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handle(c.startText))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/richieste", bot.MatchTypeExact, c.handle(c.pendingText))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/ricevimenti", bot.MatchTypeExact, c.handle(c.receptionsText))
}

// handle оборачивает построитель ответа в обработчик бота
func (c *BotController) handle(reply func(ctx context.Context, chatID int64) (string, error)) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil {
			return
		}
		chatID := update.Message.Chat.ID

		text, err := reply(ctx, chatID)
		if err != nil {
			c.logger.Error("Failed to handle command",
				zap.Int64("chat_id", chatID),
				zap.String("command", update.Message.Text),
				zap.Error(err))
			text = "Si è verificato un errore. Riprova più tardi."
		}

		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      text,
			ParseMode: models.ParseModeHTML,
		}); err != nil {
			c.logger.Warn("Failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}

func (c *BotController) startText(_ context.Context, chatID int64) (string, error) {
	return fmt.Sprintf(
		"Benvenuto!\n\n"+
			"Per ricevere le notifiche dei colloqui comunica alla segreteria questo codice: <code>%d</code>\n\n"+
			"Comandi disponibili:\n"+
			"/richieste - Richieste in attesa di risposta\n"+
			"/ricevimenti - Ricevimenti prenotabili",
		chatID,
	), nil
}

func (c *BotController) pendingText(ctx context.Context, chatID int64) (string, error) {
	teacher, err := c.teachers.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		return "", err
	}
	if teacher == nil {
		return notLinkedText, nil
	}

	count, err := c.booking.PendingCount(ctx, teacher.ID)
	if err != nil {
		return "", err
	}
	if count == 0 {
		return "Nessuna richiesta di colloquio in attesa.", nil
	}

	requests, err := c.booking.TeacherRequests(ctx, teacher.ID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hai <b>%d</b> richieste di colloquio in attesa di risposta.\n", count)
	for _, b := range requests.Blocks {
		var pending []*model.TeacherRequest
		for _, r := range b.Requests {
			if r.Status == model.RequestStatusRequested {
				pending = append(pending, r)
			}
		}
		if len(pending) == 0 {
			continue
		}

		fmt.Fprintf(&sb, "\n<b>%s</b> (%d/%d)\n", html.EscapeString(colloqui.BlockLabel(b.Block)), b.Active(), b.Block.Capacity)
		for _, r := range pending {
			fmt.Fprintf(&sb, "• %s %s\n", r.AppointmentAt.Short(), html.EscapeString(r.StudentName()))
		}
	}
	return sb.String(), nil
}

func (c *BotController) receptionsText(ctx context.Context, chatID int64) (string, error) {
	teacher, err := c.teachers.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		return "", err
	}
	if teacher == nil {
		return notLinkedText, nil
	}

	receptions, err := c.booking.ReceptionDates(ctx, teacher.ID, nil)
	if err != nil {
		return "", err
	}
	if len(receptions.Valid) == 0 && len(receptions.Exhausted) == 0 {
		return "Nessun ricevimento nel periodo di prenotazione.", nil
	}

	var sb strings.Builder
	sb.WriteString("<b>Ricevimenti prenotabili</b>\n")
	for _, d := range receptions.Valid {
		fmt.Fprintf(&sb, "• %s (%d/%d)\n", html.EscapeString(colloqui.BlockLabel(d.Block)), d.ActiveRequests, d.Block.Capacity)
	}
	for _, d := range receptions.Exhausted {
		fmt.Fprintf(&sb, "• %s (completo)\n", html.EscapeString(colloqui.BlockLabel(d.Block)))
	}
	return sb.String(), nil
}

const notLinkedText = "Questo account Telegram non è collegato a nessun docente."

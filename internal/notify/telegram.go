// Package notify отправляет учителям сообщения о приёме родителей в Telegram
package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/Freeeeeet/colloqui/internal/colloqui"
	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Sender часть *bot.Bot, которой достаточно для отправки сообщений
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type TeacherStore interface {
	GetByID(ctx context.Context, id int64) (*model.Teacher, error)
}

// TelegramNotifier пишет учителю в привязанный чат; учителя без чата пропускаются
type TelegramNotifier struct {
	sender   Sender
	teachers TeacherStore
	logger   *zap.Logger
}

func NewTelegramNotifier(sender Sender, teachers TeacherStore, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender:   sender,
		teachers: teachers,
		logger:   logger,
	}
}

// NotifyNewRequest сообщает о новой заявке на окно
func (n *TelegramNotifier) NotifyNewRequest(ctx context.Context, block *model.MeetingBlock, req *model.AppointmentRequest) error {
	text := fmt.Sprintf("<b>Nuova richiesta di colloquio</b>\n%s\nOrario assegnato: %s",
		html.EscapeString(colloqui.BlockLabel(block)), req.AppointmentAt.Short())
	return n.send(ctx, block.TeacherID, text)
}

// NotifyRequestCancelled сообщает об отмене заявки родителем
func (n *TelegramNotifier) NotifyRequestCancelled(ctx context.Context, block *model.MeetingBlock, req *model.AppointmentRequest) error {
	text := fmt.Sprintf("<b>Colloquio annullato dal genitore</b>\n%s\nOrario: %s",
		html.EscapeString(colloqui.BlockLabel(block)), req.AppointmentAt.Short())
	return n.send(ctx, block.TeacherID, text)
}

// NotifyPending напоминает о заявках, ожидающих ответа
func (n *TelegramNotifier) NotifyPending(ctx context.Context, summary model.PendingSummary) error {
	text := fmt.Sprintf("Hai <b>%d</b> richieste di colloquio in attesa di risposta.", summary.Pending)
	return n.send(ctx, summary.TeacherID, text)
}

func (n *TelegramNotifier) send(ctx context.Context, teacherID int64, text string) error {
	teacher, err := n.teachers.GetByID(ctx, teacherID)
	if err != nil {
		return fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil || teacher.TelegramChatID == nil {
		n.logger.Debug("Teacher has no Telegram chat, skipping notification", zap.Int64("teacher_id", teacherID))
		return nil
	}

	_, err = n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    *teacher.TelegramChatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	return nil
}

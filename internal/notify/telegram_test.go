package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []*bot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &models.Message{}, nil
}

type fakeTeachers map[int64]*model.Teacher

func (f fakeTeachers) GetByID(_ context.Context, id int64) (*model.Teacher, error) {
	return f[id], nil
}

func testBlock() *model.MeetingBlock {
	return &model.MeetingBlock{
		TeacherID:       1,
		Date:            time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC),
		Start:           model.NewTimeOfDay(15, 0),
		End:             model.NewTimeOfDay(17, 0),
		DurationMinutes: 10,
	}
}

func TestTelegramNotifier_NotifyNewRequest(t *testing.T) {
	chatID := int64(42)
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, fakeTeachers{1: {ID: 1, TelegramChatID: &chatID}}, zap.NewNop())

	err := n.NotifyNewRequest(context.Background(), testBlock(), &model.AppointmentRequest{AppointmentAt: model.NewTimeOfDay(15, 10)})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, chatID, sender.sent[0].ChatID)
	assert.Equal(t, models.ParseModeHTML, sender.sent[0].ParseMode)
	assert.Contains(t, sender.sent[0].Text, "Lunedì 3 Novembre 2025, dalle 15:00 alle 17:00")
	assert.Contains(t, sender.sent[0].Text, "15:10")
}

func TestTelegramNotifier_SkipsTeacherWithoutChat(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, fakeTeachers{1: {ID: 1}}, zap.NewNop())

	err := n.NotifyPending(context.Background(), model.PendingSummary{TeacherID: 1, Pending: 3})
	require.NoError(t, err)
	assert.Empty(t, sender.sent)

	err = n.NotifyPending(context.Background(), model.PendingSummary{TeacherID: 7, Pending: 3})
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestTelegramNotifier_SendError(t *testing.T) {
	chatID := int64(42)
	boom := errors.New("telegram down")
	n := NewTelegramNotifier(&fakeSender{err: boom}, fakeTeachers{1: {ID: 1, TelegramChatID: &chatID}}, zap.NewNop())

	err := n.NotifyRequestCancelled(context.Background(), testBlock(), &model.AppointmentRequest{})
	assert.ErrorIs(t, err, boom)
}

package notifier

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inspection-service/internal/models"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func dlpAlert() *models.Alert {
	return &models.Alert{
		ID:             12,
		UserID:         "user-1",
		AlertType:      models.KindDLP,
		Source:         models.SourceEmail,
		Direction:      models.DirectionOutgoing,
		MessagePreview: "card ****-****-****-9010",
		RiskLevel:      models.RiskHigh,
		RiskScore:      65,
		Categories:     models.CategoryList{models.CategoryCreditCard, models.CategoryPassword},
	}
}

func TestFormatAlert(t *testing.T) {
	text := FormatAlert(dlpAlert())

	assert.Contains(t, text, "Sensitive data alert #12: HIGH (score 65)")
	assert.Contains(t, text, "User: user-1")
	assert.Contains(t, text, "Source: email, outgoing")
	assert.Contains(t, text, "Categories: CREDIT_CARD, PASSWORD")
	assert.Contains(t, text, "Preview: card ****-****-****-9010")
	assert.NotContains(t, text, "Spam probability")

	spam := dlpAlert()
	spam.AlertType = models.KindSpam
	spam.SpamProbability = 0.8125
	assert.Contains(t, FormatAlert(spam), "Spam probability: 0.81")
}

func TestTelegramNotifier_Notify(t *testing.T) {
	sender := &fakeSender{}
	n := &TelegramNotifier{api: sender, chatID: 42, logger: zap.NewNop()}

	require.NoError(t, n.Notify(context.Background(), dlpAlert()))
	require.Len(t, sender.sent, 1)

	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, FormatAlert(dlpAlert()), msg.Text)
}

func TestTelegramNotifier_Errors(t *testing.T) {
	sender := &fakeSender{err: errors.New("network down")}
	n := &TelegramNotifier{api: sender, chatID: 42, logger: zap.NewNop()}
	assert.ErrorContains(t, n.Notify(context.Background(), dlpAlert()), "network down")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Notify(ctx, dlpAlert()), context.Canceled)
	assert.Len(t, sender.sent, 1)
}

func TestNewTelegramNotifier_DisabledIsNop(t *testing.T) {
	n, err := NewTelegramNotifier(false, "token", 1, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, n)

	n, err = NewTelegramNotifier(true, "", 1, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, n.Notify(context.Background(), dlpAlert()))
}

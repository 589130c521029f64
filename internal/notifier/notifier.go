package notifier

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"inspection-service/internal/models"
)

// Notifier tells an operator about a stored alert.
type Notifier interface {
	Notify(ctx context.Context, alert *models.Alert) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(context.Context, *models.Alert) error { return nil }

// messageSender is the part of the bot API the notifier needs.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts alert summaries to an operator chat.
type TelegramNotifier struct {
	api    messageSender
	chatID int64
	logger *zap.Logger
}

// NewTelegramNotifier authorizes the bot token. When disabled or the token is
// empty it returns a Nop notifier.
func NewTelegramNotifier(enabled bool, token string, chatID int64, logger *zap.Logger) (Notifier, error) {
	if !enabled || token == "" {
		logger.Info("Telegram notifier is disabled (notifier.enabled=false or token is empty)")
		return Nop{}, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", botAPI.Self.UserName))
	return &TelegramNotifier{api: botAPI, chatID: chatID, logger: logger}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, alert *models.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatAlert(alert))
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Error("Failed to send Telegram message", zap.Int64("chat_id", n.chatID), zap.Int64("alert_id", alert.ID), zap.Error(err))
		return fmt.Errorf("send telegram notification: %w", err)
	}
	return nil
}

// FormatAlert renders the operator summary of an alert. It only uses masked
// fields.
func FormatAlert(alert *models.Alert) string {
	var b strings.Builder

	title := "Spam alert"
	if alert.AlertType == models.KindDLP {
		title = "Sensitive data alert"
	}
	fmt.Fprintf(&b, "⚠️ %s #%d: %s (score %d)\n", title, alert.ID, alert.RiskLevel, alert.RiskScore)
	fmt.Fprintf(&b, "User: %s\n", alert.UserID)
	fmt.Fprintf(&b, "Source: %s, %s\n", alert.Source, alert.Direction)

	if len(alert.Categories) > 0 {
		names := make([]string, len(alert.Categories))
		for i, c := range alert.Categories {
			names[i] = string(c)
		}
		fmt.Fprintf(&b, "Categories: %s\n", strings.Join(names, ", "))
	}
	if alert.AlertType == models.KindSpam {
		fmt.Fprintf(&b, "Spam probability: %.2f\n", alert.SpamProbability)
	}
	fmt.Fprintf(&b, "Preview: %s", alert.MessagePreview)
	return b.String()
}

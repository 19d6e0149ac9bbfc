package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/spuriolabs/spurio/internal/config"
	"github.com/spuriolabs/spurio/internal/models"
)

// NotifierService announces freshly discovered correlations on a Telegram
// channel. The bot is optional: without a token or chat ID the service is a
// no-op, so local setups need no Telegram configuration at all.
type NotifierService struct {
	bot     *bot.Bot
	chatID  int64
	retrier *Retrier
	logger  *logrus.Logger
}

// NewNotifierService creates a notifier for the configured channel. Extra
// bot options are passed through, which lets callers point the client at a
// different API host.
func NewNotifierService(cfg config.TelegramConfig, logger *logrus.Logger, opts ...bot.Option) *NotifierService {
	if logger == nil {
		logger = logrus.New()
	}

	svc := &NotifierService{
		retrier: NamedRetrier("telegram_notify", logger),
		logger:  logger,
	}

	if cfg.BotToken == "" {
		logger.Info("Telegram notifications disabled, no bot token configured")
		return svc
	}
	if cfg.ChatID == "" {
		logger.Info("Telegram notifications disabled, no chat ID configured")
		return svc
	}
	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		logger.WithError(err).Warn("Invalid Telegram chat ID, notifications disabled")
		return svc
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize Telegram bot, notifications disabled")
		return svc
	}

	svc.bot = b
	svc.chatID = chatID
	return svc
}

// Enabled reports whether the service will actually deliver messages.
func (ns *NotifierService) Enabled() bool {
	return ns.bot != nil && ns.chatID != 0
}

// NotifyDiscovery announces one correlation on the configured channel.
// Calls on a disabled service succeed silently.
func (ns *NotifierService) NotifyDiscovery(ctx context.Context, record *models.CorrelationRecord) error {
	if !ns.Enabled() {
		return nil
	}

	message := ns.formatDiscoveryMessage(record)
	err := ns.retrier.Do(ctx, "telegram_notify", func(ctx context.Context) error {
		_, sendErr := ns.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    ns.chatID,
			Text:      message,
			ParseMode: tgmodels.ParseModeMarkdown,
		})
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	ns.logger.WithFields(logrus.Fields{
		"correlation_id": record.ID,
		"coefficient":    record.Coefficient,
	}).Info("Announced correlation on Telegram")
	return nil
}

// formatDiscoveryMessage creates a formatted message for a discovered
// correlation.
func (ns *NotifierService) formatDiscoveryMessage(record *models.CorrelationRecord) string {
	relation := "moves with"
	if record.Coefficient < 0 {
		relation = "moves against"
	}

	message := "🔍 *New Spurious Correlation!*\n\n"
	message += fmt.Sprintf("*%s*\nvs\n*%s*\n\n", record.NameA, record.NameB)
	message += fmt.Sprintf("📈 Coefficient: *%.3f* (%s)\n", record.Coefficient, record.Method)
	message += fmt.Sprintf("🎲 p-value: %.4f\n", record.PValue)
	message += fmt.Sprintf("📊 Overlapping samples: %d\n\n", record.SampleSize())
	message += fmt.Sprintf("One %s the other. The numbers insist.\n\n", relation)
	message += fmt.Sprintf("Sources: %s, %s\n", record.SourceA.Name, record.SourceB.Name)
	message += "Correlation still does not imply causation. Probably."

	return message
}

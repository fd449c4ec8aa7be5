package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
)

// Telegram posts booking announcements to a configured chat. With no token
// it degrades to a disabled notifier that only logs at debug level, so the
// wiring stays identical whether or not a bot is configured.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

// NewTelegram constructs the notifier. An empty token yields the disabled
// notifier; a non-empty token is validated against the bot API.
func NewTelegram(token string, chatID int64, logger *slog.Logger) (*Telegram, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if token == "" {
		logger.Info("telegram notifications disabled, no token configured")
		return &Telegram{logger: logger}, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID, logger: logger}, nil
}

// BookingConfirmed announces a successful admission.
func (t *Telegram) BookingConfirmed(ctx context.Context, confirmed booking.Booking) {
	text := fmt.Sprintf(
		"*Booking confirmed*\nRoom: %s\nDate: %s\nTime: %s\nBy: %s",
		confirmed.RoomID, confirmed.Date, confirmed.Interval, confirmed.OwnerID,
	)
	t.send(ctx, text)
}

// BookingCancelled announces a cancellation.
func (t *Telegram) BookingCancelled(ctx context.Context, cancelled booking.Booking) {
	text := fmt.Sprintf(
		"*Booking cancelled*\nRoom: %s\nDate: %s\nTime: %s\nWas held by: %s",
		cancelled.RoomID, cancelled.Date, cancelled.Interval, cancelled.OwnerID,
	)
	t.send(ctx, text)
}

func (t *Telegram) send(ctx context.Context, text string) {
	if t == nil {
		return
	}
	if t.bot == nil || t.chatID == 0 {
		t.logger.DebugContext(ctx, "notification skipped, telegram disabled", "text", text)
		return
	}
	if err := ctx.Err(); err != nil {
		t.logger.DebugContext(ctx, "notification skipped", "reason", err)
		return
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.ErrorContext(ctx, "failed to send telegram notification", "error", err)
	}
}

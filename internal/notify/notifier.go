package notify

import (
	"fmt"

	"lightning_sats/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends Telegram messages to users and admins. Sends are
// fire-and-forget: failures are logged, never retried, never block callers.
type Notifier struct {
	bot      *tgbotapi.BotAPI
	adminIDs []int64
}

// New connects to the Bot API. A connection failure returns a disabled
// notifier rather than an error, so a bad token never takes the app down.
func New(token string, adminIDs []int64) *Notifier {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Warn("notifier disabled, bot api unavailable", "error", err)
		return &Notifier{adminIDs: adminIDs}
	}
	return &Notifier{bot: bot, adminIDs: adminIDs}
}

// NewDisabled returns a notifier that drops everything (tests, dev mode)
func NewDisabled() *Notifier {
	return &Notifier{}
}

// Send delivers one message to a chat. Errors are swallowed after logging.
func (n *Notifier) Send(chatID int64, text string) {
	if n.bot == nil {
		return
	}
	go func() {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			logger.Warn("notification send failed", "chat_id", chatID, "error", err)
		}
	}()
}

// NotifyAdmins delivers one message to every configured admin
func (n *Notifier) NotifyAdmins(text string) {
	for _, id := range n.adminIDs {
		n.Send(id, text)
	}
}

// WithdrawalPaid formats the payout confirmation sent to a user
func WithdrawalPaid(amount int64, txHash string) string {
	if txHash != "" {
		return fmt.Sprintf("✅ Your withdrawal of %d sats has been paid.\nTransaction: %s", amount, txHash)
	}
	return fmt.Sprintf("✅ Your withdrawal of %d sats has been paid.", amount)
}

// WithdrawalRejected formats the rejection notice sent to a user
func WithdrawalRejected(amount int64, reason string) string {
	if reason != "" {
		return fmt.Sprintf("❌ Your withdrawal of %d sats was rejected: %s", amount, reason)
	}
	return fmt.Sprintf("❌ Your withdrawal of %d sats was rejected.", amount)
}

package telegram

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/ticketbot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// allowedUpdates limits delivery to the update kinds the bot routes.
var allowedUpdates = []string{"message", "callback_query"}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	Telegram coreconfig.TelegramConfig
	Webhook  coreconfig.WebhookConfig
	// Filter drops updates before they reach middlewares; nil keeps all.
	Filter func(*tele.Update) bool
}

// BuildPoller returns a webhook or long poller for the configured run mode.
func BuildPoller(opts PollerOptions) tele.Poller {
	var p tele.Poller
	if strings.EqualFold(strings.TrimSpace(opts.Telegram.RunMode), coreconfig.RunModeWebhook) {
		p = &tele.Webhook{
			Listen:         fmt.Sprintf("%s:%d", opts.Webhook.Listen, opts.Webhook.Port),
			SecretToken:    opts.Webhook.SecretToken,
			AllowedUpdates: allowedUpdates,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
		}
	} else {
		p = &tele.LongPoller{
			Timeout:        longPollTimeout(opts.Telegram),
			AllowedUpdates: allowedUpdates,
		}
	}
	if opts.Filter != nil {
		return tele.NewMiddlewarePoller(p, opts.Filter)
	}
	return p
}

func longPollTimeout(cfg coreconfig.TelegramConfig) time.Duration {
	if cfg.LongPollTimeoutSeconds <= 0 {
		return defaultLongPollTimeout
	}
	return time.Duration(cfg.LongPollTimeoutSeconds) * time.Second
}

// PrivateChatsOnly accepts updates from one-to-one chats with the bot.
func PrivateChatsOnly(u *tele.Update) bool {
	switch {
	case u.Message != nil:
		return u.Message.Chat != nil && u.Message.Chat.Type == tele.ChatPrivate
	case u.Callback != nil:
		m := u.Callback.Message
		return m == nil || m.Chat == nil || m.Chat.Type == tele.ChatPrivate
	}
	return false
}

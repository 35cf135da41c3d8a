package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Normalize fills defaults and validates every section. All problems are
// reported together.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	return errors.Join(
		cfg.Telegram.normalize(),
		cfg.Webhook.validate(cfg.Telegram.RunMode),
		cfg.RateLimit.normalize(),
	)
}

func (t *TelegramConfig) normalize() error {
	var errs []error
	if t.Token == "" {
		errs = append(errs, errors.New("telegram.token (BOT_TOKEN) is required"))
	}
	if t.AdminID < 0 {
		errs = append(errs, errors.New("telegram.admin_id must be a positive Telegram user id"))
	}
	if t.LongPollTimeoutSeconds < 0 {
		errs = append(errs, errors.New("telegram.longpoll_timeout_seconds must be >= 0"))
	}
	if t.HTTPTimeoutSeconds < 0 {
		errs = append(errs, errors.New("telegram.http_timeout_seconds must be >= 0"))
	}
	switch mode := strings.ToLower(strings.TrimSpace(t.RunMode)); mode {
	case "", "polling", RunModeLongpoll:
		t.RunMode = RunModeLongpoll
	case RunModeWebhook:
		t.RunMode = mode
	default:
		errs = append(errs, fmt.Errorf("telegram.run_mode %q: want webhook or longpoll", t.RunMode))
	}
	return errors.Join(errs...)
}

func (w WebhookConfig) validate(mode string) error {
	if mode != RunModeWebhook {
		return nil
	}
	var errs []error
	if strings.TrimSpace(w.URL) == "" {
		errs = append(errs, errors.New("webhook.url is required in webhook mode"))
	}
	if strings.TrimSpace(w.Listen) == "" {
		errs = append(errs, errors.New("webhook.listen is required in webhook mode"))
	}
	if w.Port <= 0 {
		errs = append(errs, errors.New("webhook.port must be > 0 in webhook mode"))
	}
	return errors.Join(errs...)
}

var excludable = []string{UpdateCallback, UpdateMessage, UpdateInlineQuery}

func (r *RateLimitConfig) normalize() error {
	var errs []error
	if r.IntervalMS < 0 {
		errs = append(errs, errors.New("rate_limit.interval_ms must be >= 0"))
	}
	r.Burst = max(r.Burst, 1)
	kinds := r.ExcludeUpdates[:0]
	for _, v := range r.ExcludeUpdates {
		kind := strings.ToLower(strings.TrimSpace(v))
		switch {
		case kind == "":
		case slices.Contains(excludable, kind):
			kinds = append(kinds, kind)
		default:
			errs = append(errs, fmt.Errorf("rate_limit.exclude_updates: unknown update %q", v))
		}
	}
	r.ExcludeUpdates = kinds
	return errors.Join(errs...)
}

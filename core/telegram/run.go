package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/ticketbot/core/config"
	"github.com/m3rciful/ticketbot/core/logger"
	tghelpers "github.com/m3rciful/ticketbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/ticketbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// stopTimeout bounds OnStop hooks once the run context is gone.
const stopTimeout = 10 * time.Second

// Middleware is a named global middleware installed with bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route binds a handler to a telebot endpoint such as tele.OnText or "/start".
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Dispatcher is created from DispatcherOptions when nil.
	Dispatcher        *tgsender.Dispatcher
	DispatcherOptions tgsender.Options

	// UpdateFilter drops updates before any middleware runs.
	UpdateFilter func(*tele.Update) bool
	Middlewares  []Middleware
	Routes       []Route

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is what lifecycle hooks get to see of the running bot.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram builds the bot, wires routes and serves updates until ctx is
// done. Once OnStart succeeded OnStop always runs, with a fresh context.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	start := time.Now()
	bot, err := newBot(opts.Config, opts.UpdateFilter)
	if err != nil {
		return err
	}
	logMode(ctx, opts.Config, bot, logger.Took(start))
	if !isWebhook(bot) {
		dropWebhook(ctx, bot)
	}
	install(bot, opts)

	rt := Runtime{Bot: bot, Dispatcher: opts.Dispatcher, Registry: opts.Registry}
	if rt.Dispatcher == nil {
		rt.Dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	tghelpers.SetDispatcher(rt.Dispatcher)
	defer func() {
		rt.Dispatcher.Close()
		tghelpers.SetDispatcher(nil)
	}()

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}
	runErr := serve(ctx, bot)
	if opts.OnStop == nil {
		return runErr
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return errors.Join(opts.OnStop(stopCtx, rt), runErr)
}

// install registers middlewares, routes and the visible command menu.
func install(bot *tele.Bot, opts RunOptions) {
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
	InitBotCommands(bot, opts.Registry)
}

// serve runs the poller until ctx ends or the bot stops on its own. A
// cancelled context is a clean shutdown; a deadline is reported.
func serve(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
	}
	bot.Stop()
	<-done
	if err := ctx.Err(); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newBot(cfg *coreconfig.Config, filter func(*tele.Update) bool) (*tele.Bot, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token: cfg.Telegram.Token,
		Poller: BuildPoller(PollerOptions{
			Telegram: cfg.Telegram,
			Webhook:  cfg.Webhook,
			Filter:   filter,
		}),
		Client: BuildHTTPClient(HTTPOptions{
			Timeout: time.Duration(cfg.Telegram.HTTPTimeoutSeconds) * time.Second,
		}),
		OnError: onBotError,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	return bot, nil
}

// onBotError logs errors handlers returned to telebot.
func onBotError(err error, c tele.Context) {
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, "tg", "handler.error", slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
}

func logMode(ctx context.Context, cfg *coreconfig.Config, bot *tele.Bot, took time.Duration) {
	attrs := []slog.Attr{slog.String("event", "mode"), slog.Duration("duration", took)}
	if wh, ok := unwrapPoller(bot.Poller).(*tele.Webhook); ok {
		logger.TG.LogAttrs(ctx, slog.LevelInfo, "webhook mode", append(attrs,
			slog.String("mode", coreconfig.RunModeWebhook),
			slog.String("listen", wh.Listen),
			slog.String("public_url", wh.Endpoint.PublicURL),
			slog.Bool("secret_token", wh.SecretToken != ""),
		)...)
		return
	}
	logger.TG.LogAttrs(ctx, slog.LevelInfo, "polling mode", append(attrs,
		slog.String("mode", "polling"),
		slog.Duration("timeout", longPollTimeout(cfg.Telegram)),
	)...)
}

// dropWebhook clears a webhook left by an earlier deployment; Telegram
// refuses getUpdates while one is set.
func dropWebhook(ctx context.Context, bot *tele.Bot) {
	if err := bot.RemoveWebhook(); err != nil {
		logger.TG.WarnContext(ctx, "failed to delete webhook",
			slog.String("event", "delete_webhook"),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.TG.DebugContext(ctx, "webhook deleted", slog.String("event", "delete_webhook"))
}

func isWebhook(bot *tele.Bot) bool {
	_, ok := unwrapPoller(bot.Poller).(*tele.Webhook)
	return ok
}

func unwrapPoller(p tele.Poller) tele.Poller {
	if mp, ok := p.(*tele.MiddlewarePoller); ok {
		return mp.Poller
	}
	return p
}

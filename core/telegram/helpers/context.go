package helpers

import (
	"context"
	"time"

	"github.com/m3rciful/ticketbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// ctxKey is the tele.Context slot holding the per-update context.Context.
const ctxKey = "logger_ctx"

// StoreContext replaces the context cached on c.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxKey, ctx)
	}
}

func cached(c tele.Context) context.Context {
	ctx, _ := c.Get(ctxKey).(context.Context)
	return ctx
}

// BuildContext returns the context for the update behind c, creating and
// caching it on first use. It carries the request id, update meta and the
// "tg" component logger.
func BuildContext(c tele.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if ctx := cached(c); ctx != nil {
		return ctx
	}

	var userID, chatID int64
	if u := c.Sender(); u != nil {
		userID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		chatID = ch.ID
	}
	updateID := c.Update().ID

	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
	}

	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler tags the cached context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler != "" {
		ctx = logger.WithHandler(ctx, handler)
		StoreContext(c, ctx)
	}
	return ctx
}

// Bounded derives a context that expires after d. The derived context is
// not cached, so later handlers start with a fresh deadline.
func Bounded(c tele.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(BuildContext(c), d)
}

package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/ticketbot/core/logger"
	tghelpers "github.com/m3rciful/ticketbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Authorizer decides whether a Telegram user may run administrative handlers.
type Authorizer interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	Authorizer Authorizer
	OnReject   tele.HandlerFunc
}

// AdminOnlyMiddleware lets only authorized admins reach downstream handlers.
// Lookup failures deny access. Without an Authorizer every call is denied.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			ctx := tghelpers.BuildContext(c)
			user := c.Sender()
			allowed := false
			if user != nil && opts.Authorizer != nil {
				ok, err := opts.Authorizer.IsAdmin(ctx, user.ID)
				if err != nil {
					logger.Error(ctx, "tg", "access.lookup_failed", slog.String("err", err.Error()))
				}
				allowed = ok && err == nil
			}
			if !allowed {
				logger.Info(ctx, "tg", "access.denied", slog.String("outcome", "denied"))
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}

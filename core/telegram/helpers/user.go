package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

// SenderID returns the Telegram id of the acting user or 0.
func SenderID(c tele.Context) int64 {
	if c == nil {
		return 0
	}
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

// CurrentUser resolves the acting Telegram user to a domain record through
// any lookup exposing Get(ctx, id). The generic type T lets each bot supply
// its own user model.
func CurrentUser[T any](c tele.Context, lookup interface {
	Get(context.Context, int64) (T, error)
}) (T, error) {
	var zero T
	if lookup == nil {
		return zero, nil
	}
	return lookup.Get(BuildContext(c), SenderID(c))
}

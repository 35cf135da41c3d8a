package router

import (
	"log/slog"

	tg "github.com/m3rciful/ticketbot/core/telegram"
	"github.com/m3rciful/ticketbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	// NotFound is used when the registry has no not-found handler.
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches inline button presses by unique key. Every
// callback is answered exactly once.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	pick := func(c tele.Context) target {
		key := callbacks.From(c).Unique
		t := target{name: "callback." + handlerName(key), extras: []slog.Attr{slog.String("cb_key", key)}}
		if h, ok := reg.GetCallback(key); ok {
			t.run = h
			return t
		}
		t.run = reg.CallbackNotFound()
		if t.run == nil {
			t.run = opts.NotFound
		}
		t.extras = append(t.extras, slog.String("reason", "not_found"))
		return t
	}
	h := endpoint(pick)
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler: func(c tele.Context) error {
			if c.Callback() == nil {
				return nil
			}
			once := &answerOnce{Context: c}
			defer once.ack()
			return h(once)
		},
	}
}

// answerOnce acknowledges the callback after the handler returns unless the
// handler already answered it with its own text or alert.
type answerOnce struct {
	tele.Context
	done bool
}

func (a *answerOnce) Respond(resp ...*tele.CallbackResponse) error {
	if a.done {
		return nil
	}
	a.done = true
	return a.Context.Respond(resp...)
}

func (a *answerOnce) ack() { _ = a.Respond() }

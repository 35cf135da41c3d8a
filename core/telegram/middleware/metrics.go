package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const statsKey = "send_stats"

// SendStats summarizes what a handler sent back for one update.
type SendStats struct {
	Messages  int
	Documents int
	Keyboard  bool
}

type sendCounter struct {
	messages  atomic.Int32
	documents atomic.Int32
	keyboard  atomic.Bool
}

func (s *sendCounter) observe(what any, opts []any) {
	if _, ok := what.(*tele.Document); ok {
		s.documents.Add(1)
	} else {
		s.messages.Add(1)
	}
	if carriesMarkup(opts) {
		s.keyboard.Store(true)
	}
}

func carriesMarkup(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// countingContext records successful sends. Edits count as messages.
type countingContext struct {
	tele.Context
	stats *sendCounter
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.track(c.Context.Send(what, opts...), what, opts)
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.track(c.Context.Reply(what, opts...), what, opts)
}

func (c countingContext) Edit(what any, opts ...any) error {
	return c.track(c.Context.Edit(what, opts...), what, opts)
}

func (c countingContext) EditOrSend(what any, opts ...any) error {
	return c.track(c.Context.EditOrSend(what, opts...), what, opts)
}

func (c countingContext) EditOrReply(what any, opts ...any) error {
	return c.track(c.Context.EditOrReply(what, opts...), what, opts)
}

func (c countingContext) track(err error, what any, opts []any) error {
	if err == nil {
		c.stats.observe(what, opts)
	}
	return err
}

// MessageMetricsMiddleware counts outbound messages and documents per update.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		stats := &sendCounter{}
		c.Set(statsKey, stats)
		return next(countingContext{Context: c, stats: stats})
	}
}

// Stats returns the counters collected for the current update.
func Stats(c tele.Context) SendStats {
	s, ok := c.Get(statsKey).(*sendCounter)
	if !ok || s == nil {
		return SendStats{}
	}
	return SendStats{
		Messages:  int(s.messages.Load()),
		Documents: int(s.documents.Load()),
		Keyboard:  s.keyboard.Load(),
	}
}

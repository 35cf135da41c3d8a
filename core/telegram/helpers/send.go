package helpers

import (
	"bytes"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/ticketbot/core/logger"
	"github.com/m3rciful/ticketbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// outbox is the dispatcher used by the Send helpers. When unset every send
// happens inline on the handler goroutine.
var outbox atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes helper sends through d; nil restores inline sends.
func SetDispatcher(d *sender.Dispatcher) {
	outbox.Store(d)
}

// outgoing is one Bot API call produced by a handler. payload is evaluated
// per attempt so retried uploads start from a fresh reader.
type outgoing struct {
	action   string
	endpoint string
	payload  func() any
	opts     *tele.SendOptions
}

func (o outgoing) call(c tele.Context) func() error {
	return func() error {
		if o.opts == nil {
			return c.Send(o.payload())
		}
		return c.Send(o.payload(), o.opts)
	}
}

func (o outgoing) post(c tele.Context) error {
	run := o.call(c)
	d := outbox.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, o.action, o.endpoint, run)
	// A full queue is reported, not bypassed: an inline send would jump
	// ahead of the chat's queued messages. After Close the workers are
	// draining or gone, so sending inline is the only way out.
	if !errors.Is(err, sender.ErrQueueClosed) {
		return err
	}
	logger.Warn(ctx, "tg.sender", "queue.fallback",
		slog.String("action", o.action),
		slog.String("endpoint", o.endpoint),
		slog.String("err", err.Error()),
	)
	return run()
}

func text(s string, opts *tele.SendOptions) outgoing {
	return outgoing{action: "send.text", endpoint: "sendMessage", payload: func() any { return s }, opts: opts}
}

func withMode(mode tele.ParseMode, markup []*tele.ReplyMarkup) *tele.SendOptions {
	opts := &tele.SendOptions{ParseMode: mode}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return opts
}

// SendText sends s without a parse mode. Only the first opts is used.
func SendText(c tele.Context, s string, opts ...*tele.SendOptions) error {
	var o *tele.SendOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return text(s, o).post(c)
}

// SendMD sends s as legacy Markdown with an optional keyboard.
func SendMD(c tele.Context, s string, markup ...*tele.ReplyMarkup) error {
	return text(s, withMode(tele.ModeMarkdown, markup)).post(c)
}

// SendHTML sends s as HTML with an optional keyboard.
func SendHTML(c tele.Context, s string, markup ...*tele.ReplyMarkup) error {
	return text(s, withMode(tele.ModeHTML, markup)).post(c)
}

// SendDocument uploads data as a named attachment.
func SendDocument(c tele.Context, fileName, mime string, data []byte, caption string) error {
	return outgoing{
		action:   "send.document",
		endpoint: "sendDocument",
		payload: func() any {
			return &tele.Document{
				File:     tele.FromReader(bytes.NewReader(data)),
				FileName: fileName,
				MIME:     mime,
				Caption:  caption,
			}
		},
	}.post(c)
}

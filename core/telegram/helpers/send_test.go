package helpers

import (
	"context"
	"errors"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ticketbot/core/telegram/sender"
	"github.com/m3rciful/ticketbot/core/telegram/teletest"
)

func TestSendInlineWithoutDispatcher(t *testing.T) {
	SetDispatcher(nil)
	c := teletest.NewText(7, "/start")
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	if err := SendMD(c, "*hi*", markup); err != nil {
		t.Fatalf("SendMD: %v", err)
	}
	sent := c.Sent()
	if len(sent) != 1 || sent[0].Text() != "*hi*" {
		t.Fatalf("sent = %+v", sent)
	}
	opts, ok := sent[0].Opts[0].(*tele.SendOptions)
	if !ok || opts.ParseMode != tele.ModeMarkdown || sent[0].Markup() != markup {
		t.Fatalf("opts = %+v", sent[0].Opts)
	}
}

func TestSendTextHasNoParseMode(t *testing.T) {
	SetDispatcher(nil)
	c := teletest.NewText(7, "hello")
	if err := SendText(c, "plain"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if sent := c.Sent(); len(sent[0].Opts) != 0 {
		t.Fatalf("unexpected opts %+v", sent[0].Opts)
	}
}

func TestSendThroughDispatcher(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 1, QueueSize: 4})
	SetDispatcher(d)
	defer SetDispatcher(nil)

	c := teletest.NewText(7, "/export")
	if err := SendDocument(c, "users.xlsx", "application/octet-stream", []byte("xlsx"), "export"); err != nil {
		t.Fatalf("SendDocument: %v", err)
	}
	d.Close()

	sent := c.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages", len(sent))
	}
	doc, ok := sent[0].What.(*tele.Document)
	if !ok || doc.FileName != "users.xlsx" || doc.Caption != "export" {
		t.Fatalf("payload = %#v", sent[0].What)
	}
}

func TestSendReportsFullQueueWithoutSendingInline(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 1, QueueSize: 1, EnqueueTimeout: 20 * time.Millisecond})
	gate := make(chan struct{})
	defer d.Close()
	defer close(gate)
	SetDispatcher(d)
	defer SetDispatcher(nil)

	wait := func() error { <-gate; return nil }
	for i := 0; i < 2; i++ {
		if err := d.Enqueue(context.Background(), "send.text", "sendMessage", wait); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	c := teletest.NewText(7, "hi")
	if err := SendText(c, "late"); !errors.Is(err, sender.ErrQueueFull) {
		t.Fatalf("SendText = %v, want ErrQueueFull", err)
	}
	if sent := c.Sent(); len(sent) != 0 {
		t.Fatalf("message jumped the queue: %+v", sent)
	}
}

func TestSendFallsBackWhenClosed(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 1})
	d.Close()
	SetDispatcher(d)
	defer SetDispatcher(nil)

	c := teletest.NewText(7, "hi")
	if err := SendHTML(c, "<b>x</b>"); err != nil {
		t.Fatalf("SendHTML: %v", err)
	}
	if c.LastText() != "<b>x</b>" {
		t.Fatalf("fallback send missing: %q", c.LastText())
	}
}

package middleware

import (
	"testing"
	"time"

	"github.com/m3rciful/ticketbot/core/telegram/teletest"

	tele "gopkg.in/telebot.v4"
)

func TestLoggerMiddlewareSetsRID(t *testing.T) {
	c := teletest.NewText(7, "/tickets")
	var rid string
	h := LoggerMiddleware(func(c tele.Context) error {
		rid, _ = c.Get("rid").(string)
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rid == "" {
		t.Fatal("rid not set")
	}
}

func TestSeenUpdates(t *testing.T) {
	s := &seenUpdates{ttl: time.Second, ids: map[int]time.Time{}}
	now := time.Now()
	if !s.first(1, now) || s.first(1, now) {
		t.Fatal("second sighting must be suppressed")
	}
	if !s.first(1, now.Add(2*time.Second)) {
		t.Fatal("expired id must be logged again")
	}
}

func TestUpdateAttrsHideFreeText(t *testing.T) {
	c := teletest.NewText(7, "+7 701 123 45 67")
	for _, a := range updateAttrs(c, c.Update()) {
		if a.Value.String() == "+7 701 123 45 67" {
			t.Fatalf("free text leaked into %s", a.Key)
		}
	}
	cmd := teletest.NewText(7, "/start ref")
	found := false
	for _, a := range updateAttrs(cmd, cmd.Update()) {
		if a.Key == "command" && a.Value.String() == "/start" {
			found = true
		}
	}
	if !found {
		t.Fatal("command not logged")
	}
}

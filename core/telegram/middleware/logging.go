package middleware

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/ticketbot/core/logger"
	"github.com/m3rciful/ticketbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/ticketbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seenUpdates remembers update ids for ttl so an update routed through
// several wrapped branches is logged once.
type seenUpdates struct {
	mu     sync.Mutex
	ttl    time.Duration
	ids    map[int]time.Time
	lastGC time.Time
}

func (s *seenUpdates) first(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastGC) > s.ttl {
		for k, at := range s.ids {
			if now.Sub(at) > s.ttl {
				delete(s.ids, k)
			}
		}
		s.lastGC = now
	}
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = now
	return true
}

var received = &seenUpdates{ttl: 10 * time.Second, ids: make(map[int]time.Time)}

// LoggerMiddleware assigns the request id, caches the per-update context and
// writes a sampled "update.received" line. Free text is never logged: it
// carries registration answers such as phone numbers.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		var chatID, userID int64
		if ch := c.Chat(); ch != nil {
			chatID = ch.ID
		}
		if u := c.Sender(); u != nil {
			userID = u.ID
		}
		c.Set("rid", logger.BuildRID(upd.ID, chatID, userID))
		c.Set("update_start", time.Now())
		ctx := tghelpers.BuildContext(c)

		if logger.ShouldSampleDebug() && received.first(upd.ID, time.Now()) {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", updateAttrs(c, upd)...)
		}
		return next(c)
	}
}

func updateAttrs(c tele.Context, upd tele.Update) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if ch := c.Chat(); ch != nil {
		attrs = append(attrs, slog.String("chat_type", string(ch.Type)))
	}
	if u := c.Sender(); u != nil {
		if u.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
		}
		if u.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", u.LanguageCode))
		}
	}

	switch {
	case upd.Callback != nil:
		cb := callbacks.Parse(upd.Callback)
		attrs = append(attrs,
			slog.String("cb_key", logger.SanitizeLimit(cb.Unique, 128)),
			slog.String("payload", logger.SanitizeLimit(cb.Payload, 256)),
		)
	case upd.Message != nil:
		text := strings.TrimSpace(c.Text())
		if strings.HasPrefix(text, "/") {
			attrs = append(attrs, slog.String("command", logger.SanitizeLimit(strings.Fields(text)[0], 64)))
		} else if text != "" {
			attrs = append(attrs, slog.Int("text_len", len([]rune(text))))
		}
		if doc := upd.Message.Document; doc != nil {
			attrs = append(attrs,
				slog.String("mime", doc.MIME),
				slog.Int64("size", int64(doc.FileSize)),
			)
		}
	}
	return attrs
}

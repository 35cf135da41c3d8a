package logger

import "strings"

// Level names as they appear in the "level" field.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

// vocab maps accepted spellings of an enumerated field to its canonical value.
type vocab map[string]string

func newVocab(words ...string) vocab {
	v := make(vocab, len(words))
	for _, w := range words {
		v[w] = w
	}
	return v
}

// lookup returns the canonical form of s and whether s is known. Unknown
// values come back lowercased.
func (v vocab) lookup(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := v[s]; ok {
		return c, true
	}
	return s, false
}

var (
	levelVocab = vocab{
		"debug": LevelDebug, "info": LevelInfo,
		"warn": LevelWarn, "warning": LevelWarn,
		"error": LevelError, "fatal": LevelFatal,
	}
	statusVocab = newVocab("ok", "fail", "skip", "retry", "rate_limited", "cancelled")

	// strictVocabs drop values outside the vocabulary instead of keeping them.
	strictVocabs = map[string]vocab{
		"cache":   newVocab("hit", "miss", "refresh"),
		"outcome": newVocab("ok", "fail", "cancelled", "rate_limited", "rejected", "duplicate", "denied"),
	}
)

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if c, ok := levelVocab.lookup(level); ok {
		return c
	}
	// slog renders custom levels as "INFO+2" and the like.
	return strings.ToUpper(level)
}

// defaultKeyOrder puts identity and outcome fields first; everything else
// follows alphabetically.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano", "trace_id", "span_id",
	"update_id", "user_id", "chat_id", "chat_type", "handler",
	"operation", "op", "cb_key", "outcome", "duration_ms",
	"submission_id", "receipt", "amount", "tickets", "ticket_total",
	"file_digest", "step", "role", "mime", "size",
	"messages", "documents", "kb", "count", "rows",
	"mode", "listen", "public_url", "http_code",
	"db", "host", "port",
	"err", "err_code", "cause", "retryable", "attempts", "backoff_ms", "rate_limited",
}

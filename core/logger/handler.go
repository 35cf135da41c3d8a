package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"
)

const timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"

type handlerConfig struct {
	level     slog.Leveler
	writer    *asyncWriter
	errWriter *asyncWriter // also receives ERROR and above, when set
	format    logFormat
	keyOrder  []string
}

// structuredHandler renders records as one flat line per event with a
// stable key order, filling request metadata from the context.
type structuredHandler struct {
	cfg    *handlerConfig
	attrs  []slog.Attr
	prefix string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if len(cfg.keyOrder) == 0 {
		cfg.keyOrder = defaultKeyOrder
	}
	if cfg.format == "" {
		cfg.format = formatJSON
	}
	return &structuredHandler{cfg: &cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errors.New("logger: writer not initialized")
	}
	e := h.entry(ctx, r)
	line, err := e.encode(h.cfg.format, h.cfg.keyOrder)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	if r.Level >= slog.LevelError && h.cfg.errWriter != nil {
		_ = h.cfg.errWriter.Write(line)
	}
	return h.cfg.writer.Write(line)
}

func (h *structuredHandler) entry(ctx context.Context, r slog.Record) entry {
	e := make(entry, 16+r.NumAttrs())
	ts := r.Time.UTC()
	e["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	e["level"] = normalizeLevel(r.Level.String())
	if h.cfg.format == formatJSON {
		e["ts_unix_nano"] = ts.UnixNano()
	}

	for _, a := range h.attrs {
		e.add(h.prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		e.add(h.prefix, a)
		return true
	})

	MetaFrom(ctx).fill(e)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		e.setDefault("trace_id", sc.TraceID().String())
		e.setDefault("span_id", sc.SpanID().String())
	}

	if rid, ok := e.str("rid"); ok {
		if compact := CompactRID(rid); compact != rid {
			if h.cfg.format == formatJSON {
				e.setDefault("rid_full", rid)
			}
			e["rid"] = compact
		}
	}
	if r.Message != "" {
		e.setDefault("event", r.Message)
	}
	e.setDefault("event", "unknown")
	e.setDefault("component", "app")
	e.normalize()
	return e
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

// entry is one log line before encoding.
type entry map[string]any

func (e entry) setDefault(key string, val any) {
	if _, ok := e[key]; !ok {
		e[key] = val
	}
}

func (e entry) str(key string) (string, bool) {
	switch v := e[key].(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	default:
		s := fmt.Sprint(v)
		return s, s != ""
	}
}

// add flattens groups into dotted keys.
func (e entry) add(prefix string, a slog.Attr) {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			e.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := fieldValue(key, v); ok {
		e[k] = val
	}
}

// normalize folds enumerated fields onto their vocabularies and drops empties.
func (e entry) normalize() {
	if s, ok := e.str("status"); ok {
		e["status"], _ = statusVocab.lookup(s)
	}
	for key, vocab := range strictVocabs {
		s, ok := e.str(key)
		if !ok {
			continue
		}
		if v, known := vocab.lookup(s); known {
			e[key] = v
		} else {
			delete(e, key)
		}
	}
	for k, v := range e {
		if v == nil || v == "" {
			delete(e, k)
		}
	}
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

func fieldValue(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return msKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return "", nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return msKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	case string:
		return key, strings.TrimSpace(x), true
	default:
		return key, fmt.Sprint(x), true
	}
}

// msKey renames duration keys so every duration is logged in milliseconds:
// "duration" -> "duration_ms", "wait" -> "wait_ms".
func msKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

// Package router turns registry entries into telebot routes. Every handled
// update ends with one "handler.handled" summary line and an observer call.
package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"sync/atomic"
	"time"

	"github.com/m3rciful/ticketbot/core/logger"
	tghelpers "github.com/m3rciful/ticketbot/core/telegram/helpers"
	"github.com/m3rciful/ticketbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

var nowFunc = time.Now

// Observer receives one call per handled update, e.g. to feed metrics.
type Observer func(handler, outcome string, took time.Duration)

var observer atomic.Pointer[Observer]

// SetObserver installs the handler observer; nil removes it.
func SetObserver(fn Observer) {
	if fn == nil {
		observer.Store(nil)
		return
	}
	observer.Store(&fn)
}

// target is the handler chosen for an update. A nil run means the update
// was dropped and is logged with status "skip".
type target struct {
	name   string
	run    tele.HandlerFunc
	extras []slog.Attr
}

// endpoint wraps pick into the recover and logging middleware and serves
// whatever target it returns.
func endpoint(pick func(tele.Context) target) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(func(c tele.Context) error {
		start := nowFunc()
		return serve(c, start, pick(c))
	}))
}

func serve(c tele.Context, start time.Time, t target) error {
	ctx := tghelpers.WithHandler(c, t.name)
	status := "skip"
	var err error
	if t.run != nil {
		err = t.run(c)
		status = "ok"
	}
	outcome := "ok"
	if err != nil {
		status, outcome = "fail", "fail"
	}

	took := time.Since(start)
	if obs := observer.Load(); obs != nil {
		(*obs)(t.name, outcome, took)
	}
	sent := middleware.Stats(c)
	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.String("handler", t.name),
		slog.String("outcome", outcome),
		slog.Int("messages", sent.Messages),
		slog.Int("documents", sent.Documents),
		slog.Bool("kb", sent.Keyboard),
		slog.Int64("duration_ms", logger.RoundMS(took).Milliseconds()),
	}, t.extras...)
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "handler.handled", attrs...)
	return err
}

// handlerName maps "/export_users" or a callback key to a log-friendly name.
func handlerName(raw string) string {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(raw, " ", "_"))
}

// errorCode prefers a Code() string from the chain, then the error's type
// name.
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}

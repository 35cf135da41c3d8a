// Package logger is the structured slog setup shared by every package:
// a flat JSON or key=value line per event, stable key order, request
// metadata pulled from the context and an asynchronous multi-sink writer.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/ticketbot/core/buildinfo"
	coreconfig "github.com/m3rciful/ticketbot/core/config"
)

const queueSize = 64 * 1024

var (
	initOnce sync.Once
	stopOnce sync.Once

	writers []*asyncWriter
	closers []io.Closer

	levelVar      slog.LevelVar
	debugSampler  = newRatioSampler(1, 50)
	traceOverride bool

	// L is the root logger; component loggers below are derived from it.
	L *slog.Logger

	DB    *slog.Logger // connection pool
	MIG   *slog.Logger // schema migrations
	SEED  *slog.Logger // bootstrap seeders
	TG    *slog.Logger // Telegram transport
	TWire *slog.Logger // handler and command wiring
	OPS   *slog.Logger // metrics and health endpoint

	SVCUsers        *slog.Logger
	SVCLedger       *slog.Logger
	SVCRegistration *slog.Logger
	SVCIntake       *slog.Logger
	SVCAccess       *slog.Logger
	SVCExport       *slog.Logger
)

var components = []struct {
	dst  **slog.Logger
	name string
}{
	{&DB, "db"},
	{&MIG, "db.migrate"},
	{&SEED, "db.seed"},
	{&TG, "tg"},
	{&TWire, "tg.wire"},
	{&OPS, "ops"},
	{&SVCUsers, "service.users"},
	{&SVCLedger, "service.ledger"},
	{&SVCRegistration, "service.registration"},
	{&SVCIntake, "service.intake"},
	{&SVCAccess, "service.access"},
	{&SVCExport, "service.export"},
}

func init() {
	// Until InitLogger runs (tests, tooling) everything goes to io.Discard.
	setRoot(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setRoot(l *slog.Logger) {
	L = l
	for _, c := range components {
		*c.dst = l.With("component", c.name)
	}
}

// settings is the logging section of the config after defaults.
type settings struct {
	format     logFormat
	level      slog.Level
	order      []string
	sampleNum  int
	sampleDen  int
	profile    string
	file       string
	errorsFile string
}

func settingsFrom(cfg *coreconfig.Config) settings {
	s := settings{format: formatJSON, level: slog.LevelInfo, order: defaultKeyOrder, sampleNum: 1, sampleDen: 50, profile: "prod"}
	if cfg == nil {
		return s
	}
	lc := cfg.Logging
	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		s.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		s.format = formatKV
	case "json":
	default:
		if s.profile == "debug" || s.profile == "dev" {
			s.format = formatKV
		}
	}
	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		s.level = slog.LevelDebug
	case "warn", "warning":
		s.level = slog.LevelWarn
	case "error":
		s.level = slog.LevelError
	}
	if order := splitKeys(lc.KeysOrder); len(order) > 0 {
		s.order = order
	}
	if spec := strings.TrimSpace(lc.DebugSample); spec != "" {
		num, den := parseRatioSpec(spec)
		switch {
		case num == 0 && den == 0:
			s.sampleNum, s.sampleDen = 0, 0
		case num > 0 && den > 0:
			s.sampleNum, s.sampleDen = num, den
		}
	}
	if dir := strings.TrimSpace(lc.Dir); dir != "" {
		if f := strings.TrimSpace(lc.BotFile); f != "" {
			s.file = filepath.Join(dir, f)
		}
		if f := strings.TrimSpace(lc.ErrorsFile); f != "" {
			s.errorsFile = filepath.Join(dir, f)
		}
	}
	return s
}

func splitKeys(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// InitLogger installs the structured handler as the slog default. Only the
// first call has an effect.
func InitLogger(cfg *coreconfig.Config) error {
	var initErr error
	initOnce.Do(func() {
		s := settingsFrom(cfg)
		levelVar.Set(s.level)
		debugSampler.Set(s.sampleNum, s.sampleDen)
		traceOverride = isTruthy(os.Getenv("TRACE")) || isTruthy(os.Getenv("LOG_TRACE"))

		sinks := []io.Writer{os.Stdout}
		if s.file != "" {
			f, err := openLogFile(s.file)
			if err != nil {
				initErr = err
				return
			}
			sinks = append(sinks, f)
		}
		hc := handlerConfig{level: &levelVar, format: s.format, keyOrder: s.order}
		hc.writer = newAsyncWriter(sinks, queueSize)
		writers = append(writers, hc.writer)
		if s.errorsFile != "" {
			f, err := openLogFile(s.errorsFile)
			if err != nil {
				initErr = err
				return
			}
			hc.errWriter = newAsyncWriter([]io.Writer{f}, queueSize/16)
			writers = append(writers, hc.errWriter)
		}

		root := slog.New(newStructuredHandler(hc))
		slog.SetDefault(root)
		setRoot(root)
		root.LogAttrs(context.Background(), slog.LevelInfo, "startup",
			slog.String("component", "app"),
			slog.String("go_version", runtime.Version()),
			slog.String("version", buildinfo.Version),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", s.profile),
			slog.String("log_level", s.level.String()),
		)
	})
	return initErr
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logger: log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open %s: %w", path, err)
	}
	closers = append(closers, f)
	return f, nil
}

// Shutdown drains queued lines and closes log files. Later calls are no-ops.
func Shutdown() error {
	var errs []error
	stopOnce.Do(func() {
		for _, w := range writers {
			errs = append(errs, w.Flush(), w.Close())
		}
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
	})
	return errors.Join(errs...)
}

// Component returns L scoped to name.
func Component(name string) *slog.Logger {
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// LogEvent writes event through logg, or the logger carried by ctx.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Debug logs event for component at debug level.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelDebug, event, attrs...)
}

func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelInfo, event, attrs...)
}

func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelWarn, event, attrs...)
}

func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelError, event, attrs...)
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether a high-volume debug line should be
// written. TRACE=1 in the environment forces every line through.
func ShouldSampleDebug() bool {
	return traceOverride || debugSampler.Allow()
}

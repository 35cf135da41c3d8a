// Package cmd is the shared entry point of bot binaries: flag parsing,
// config loading, bootstrap and the signal-aware run loop.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/m3rciful/ticketbot/core/buildinfo"
	coreconfig "github.com/m3rciful/ticketbot/core/config"
	"github.com/m3rciful/ticketbot/core/logger"
	coretelegram "github.com/m3rciful/ticketbot/core/telegram"
)

// ConfigCarrier exposes access to the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp is the minimal interface required to run a Telegram bot.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options describe how to load configuration, bootstrap the app, and run the bot.
type Options struct {
	// Name is used in usage output; defaults to os.Args[0].
	Name string
	// Args excludes the program name; nil means os.Args[1:].
	Args   []string
	Stdout io.Writer

	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(cfg ConfigCarrier) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

type flags struct {
	configPath  string
	version     bool
	checkConfig bool
}

func (o *Options) defaults() {
	if o.Name == "" {
		o.Name = os.Args[0]
	}
	if o.Args == nil {
		o.Args = os.Args[1:]
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.ConfigEnvVar == "" {
		o.ConfigEnvVar = "CONFIG_PATH"
	}
	if o.ShutdownLogger == nil {
		o.ShutdownLogger = logger.Shutdown
	}
	if o.RunTelegram == nil {
		o.RunTelegram = coretelegram.RunTelegram
	}
}

func (o *Options) parse() (flags, error) {
	var f flags
	fs := pflag.NewFlagSet(o.Name, pflag.ContinueOnError)
	fs.SetOutput(o.Stdout)
	fs.StringVarP(&f.configPath, "config", "c", "", "path to the YAML config (overrides $"+o.ConfigEnvVar+")")
	fs.BoolVar(&f.version, "version", false, "print the build version and exit")
	fs.BoolVar(&f.checkConfig, "check-config", false, "load and validate the config, then exit")
	if err := fs.Parse(o.Args); err != nil {
		return f, err
	}
	if f.configPath == "" {
		f.configPath = os.Getenv(o.ConfigEnvVar)
	}
	if f.configPath == "" {
		f.configPath = o.DefaultConfigPath
	}
	return f, nil
}

// Run parses flags, loads configuration, bootstraps the Telegram app and
// runs it until SIGINT or SIGTERM.
func Run(opts Options) error {
	if opts.LoadConfig == nil {
		return fmt.Errorf("cmd: LoadConfig is required")
	}
	if opts.Bootstrap == nil {
		return fmt.Errorf("cmd: Bootstrap is required")
	}
	opts.defaults()

	f, err := opts.parse()
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cmd: %w", err)
	}
	if f.version {
		_, err := fmt.Fprintln(opts.Stdout, buildinfo.String())
		return err
	}
	if f.configPath == "" {
		return fmt.Errorf("cmd: config path not provided via --config, %s or DefaultConfigPath", opts.ConfigEnvVar)
	}

	log.Printf("loading config: %s", f.configPath)
	cfg, err := opts.LoadConfig(f.configPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}
	if cfg == nil || cfg.CoreConfig() == nil {
		return fmt.Errorf("cmd: loaded config is missing core configuration")
	}
	if f.checkConfig {
		_, err := fmt.Fprintf(opts.Stdout, "config ok: %s\n", f.configPath)
		return err
	}

	application, err := opts.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	defer func() {
		if err := opts.ShutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options build failed: %w", err)
	}
	wrapLifecycle(&runOpts, time.Now())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return opts.RunTelegram(ctx, runOpts)
}

// wrapLifecycle adds the "ready" and "shutdown" app events around the
// hooks the application registered.
func wrapLifecycle(runOpts *coretelegram.RunOptions, startedAt time.Time) {
	appLog := logger.L.With("component", "app")

	onStart := runOpts.OnStart
	runOpts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		appLog.Info("app ready",
			slog.String("event", "ready"),
			slog.String("version", buildinfo.Version),
			slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
		)
		return nil
	}

	onStop := runOpts.OnStop
	runOpts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		appLog.Info("shutting down...", slog.String("event", "shutdown"))
		if onStop != nil {
			return onStop(ctx, rt)
		}
		return nil
	}
}

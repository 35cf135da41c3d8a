// Package bootstrap brings up shared infrastructure before the bot starts:
// logger, database pool, schema and reference data.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/ticketbot/core/config"
	coredatabase "github.com/m3rciful/ticketbot/core/database"
	"github.com/m3rciful/ticketbot/core/logger"
)

const seedTimeout = 30 * time.Second

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	Seeders  []Seeder

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
	// Steps lists stage durations in execution order.
	Steps []StepTiming
}

// StepTiming records how long one bootstrap stage took.
type StepTiming struct {
	Name     string
	Duration time.Duration
}

func (o *Options) defaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
}

// Run initializes the logger, connects to the database, applies migrations
// and runs seeders. The pool is closed if a later stage fails.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	opts.defaults()

	res := &Result{}
	step := func(name string, fn func() error) error {
		start := time.Now()
		if err := fn(); err != nil {
			if res.DB != nil {
				_ = res.DB.Close()
			}
			return fmt.Errorf("bootstrap: %s failed: %w", name, err)
		}
		took := logger.Took(start)
		res.Steps = append(res.Steps, StepTiming{Name: name, Duration: took})
		logger.L.With("component", "bootstrap").Debug("step done",
			slog.String("event", "bootstrap."+name),
			slog.Duration("duration", took),
		)
		return nil
	}

	if err := step("logger", func() error { return opts.LoggerInit(opts.Config) }); err != nil {
		return nil, err
	}
	if err := step("database", func() (err error) {
		res.DB, err = opts.Connect(opts.Database)
		return err
	}); err != nil {
		return nil, err
	}
	if err := step("migrate", func() error { return opts.Migrate(opts.Database) }); err != nil {
		return nil, err
	}
	if err := step("seed", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
		defer cancel()
		return runSeeders(ctx, res.DB, opts.Seeders)
	}); err != nil {
		return nil, err
	}
	return res, nil
}

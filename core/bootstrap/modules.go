package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/ticketbot/core/logger"
)

// Seeder loads reference data (roles, fixtures) once the schema is in place.
type Seeder interface {
	Name() string
	Seed(ctx context.Context, db *sqlx.DB) error
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc struct {
	Label string
	Fn    func(ctx context.Context, db *sqlx.DB) error
}

// Name returns the label used in logs.
func (f SeederFunc) Name() string { return f.Label }

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context, db *sqlx.DB) error {
	return f.Fn(ctx, db)
}

func runSeeders(ctx context.Context, db *sqlx.DB, seeders []Seeder) error {
	for _, s := range seeders {
		if s == nil {
			continue
		}
		start := time.Now()
		if err := s.Seed(ctx, db); err != nil {
			logger.SEED.Error("seed failed",
				slog.String("event", "db.seed"),
				slog.String("op", s.Name()),
				slog.String("err", err.Error()),
			)
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		logger.SEED.Info("seed applied",
			slog.String("event", "db.seed"),
			slog.String("op", s.Name()),
			slog.Duration("duration", logger.Took(start)),
		)
	}
	return nil
}

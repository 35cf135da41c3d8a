package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/ticketbot/core/logger"
)

const (
	driverName    = "postgres"
	retryInterval = 2 * time.Second
)

// Connect waits for the server to accept connections, opens the pool and
// applies the pool limits from cfg.
func Connect(cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ReadyTimeout())
	defer cancel()

	start := time.Now()
	db, err := sqlx.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := WaitReady(ctx, db, retryInterval); err != nil {
		_ = db.Close()
		logger.DB.Error("db connect failed",
			append(cfg.logAttrs(),
				slog.String("event", "db.connect"),
				slog.Duration("duration", logger.Took(start)),
				slog.String("err", err.Error()),
			)...,
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	applyPool(db.DB, cfg)
	logger.DB.Info("db connected",
		append(cfg.logAttrs(),
			slog.String("event", "db.connect"),
			slog.Int("pool_open", cfg.MaxConnections),
			slog.Int("pool_idle", cfg.MaxIdle),
			slog.Duration("duration", logger.Took(start)),
		)...,
	)
	return db, nil
}

// WaitReady pings db every interval until it answers or ctx ends. The last
// ping error is wrapped into the returned error.
func WaitReady(ctx context.Context, db interface {
	PingContext(context.Context) error
}, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for attempt := 1; ; attempt++ {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		logger.DB.Debug("db not ready",
			slog.String("event", "db.wait"),
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("database not ready after %d attempts: %w", attempt, err)
		case <-t.C:
		}
	}
}

func applyPool(db *sql.DB, cfg Config) {
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
}

func (c Config) logAttrs() []any {
	return []any{
		slog.String("driver", driverName),
		slog.String("host", c.Host),
		slog.String("port", c.Port),
		slog.String("db", c.Name),
	}
}

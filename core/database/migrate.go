package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/ticketbot/core/logger"
)

// migration is one *.up.sql file.
type migration struct {
	version uint64
	file    string
}

// migrateLog forwards golang-migrate's own output to the db.migrate logger.
type migrateLog struct{}

func (migrateLog) Printf(format string, v ...any) {
	logger.MIG.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("event", "migrate.lib"))
}

func (migrateLog) Verbose() bool { return false }

// RunMigrations waits for the server and applies every pending up
// migration from cfg.MigrationsDir.
func RunMigrations(cfg Config) error {
	if err := waitForServer(cfg); err != nil {
		return migrateFailed("wait", fmt.Errorf("database not ready: %w", err))
	}
	dir, err := migrationsDir(cfg.MigrationsDir)
	if err != nil {
		return migrateFailed("resolve", err)
	}
	files, err := scanMigrations(dir)
	if err != nil {
		return migrateFailed("resolve", err)
	}
	logger.MIG.Debug("migrations resolved",
		slog.String("event", "resolve"),
		slog.String("path", dir),
		slog.Int("files_total", len(files)),
		logger.ListAttr("files", names(files), 6),
	)

	m, err := migrate.New("file://"+dir, cfg.URL())
	if err != nil {
		return migrateFailed("init", err)
	}
	defer m.Close()
	m.Log = migrateLog{}

	from := currentVersion(m)
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return migrateFailed("apply", err)
	}
	took := logger.RoundMS(time.Since(start))
	to := currentVersion(m)

	applied := pending(files, from, to)
	if len(applied) > 0 {
		logger.MIG.Debug("applied files",
			slog.String("event", "apply"),
			slog.Int("files_total", len(applied)),
			logger.ListAttr("files", names(applied), 6),
		)
	}
	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.Uint64("from_ver", from),
		slog.Uint64("to_ver", to),
		slog.Int("files", len(applied)),
		slog.Duration("duration", took),
	)
	return nil
}

func migrateFailed(stage string, err error) error {
	logger.MIG.Error("migration failed",
		slog.String("event", "db.migrate"),
		slog.String("stage", stage),
		slog.String("err", err.Error()),
	)
	return fmt.Errorf("migrate %s: %w", stage, err)
}

// currentVersion is 0 on a fresh database.
func currentVersion(m *migrate.Migrate) uint64 {
	v, _, err := m.Version()
	if err != nil {
		return 0
	}
	return uint64(v)
}

func waitForServer(cfg Config) error {
	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ReadyTimeout())
	defer cancel()
	return WaitReady(ctx, db, retryInterval)
}

// migrationsDir returns dir as an absolute path, defaulting to ./migrations.
func migrationsDir(dir string) (string, error) {
	if dir = strings.TrimSpace(dir); dir == "" {
		dir = "migrations"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("migrations dir: %w", err)
	}
	return abs, nil
}

// scanMigrations lists the up migrations in dir ordered by version.
func scanMigrations(dir string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var out []migration
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("migration %s: bad version prefix", name)
		}
		out = append(out, migration{version: v, file: name})
	}
	slices.SortFunc(out, func(a, b migration) int {
		switch {
		case a.version < b.version:
			return -1
		case a.version > b.version:
			return 1
		}
		return 0
	})
	return out, nil
}

// pending returns the migrations with from < version <= to.
func pending(all []migration, from, to uint64) []migration {
	var out []migration
	for _, m := range all {
		if m.version > from && m.version <= to {
			out = append(out, m)
		}
	}
	return out
}

func names(ms []migration) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.file
	}
	return out
}

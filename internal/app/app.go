// Package app wires the raffle services into the Telegram runtime: commands,
// menu aliases, dialogues, callbacks and receipt uploads.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/ticketbot/core/bootstrap"
	"github.com/m3rciful/ticketbot/core/buildinfo"
	"github.com/m3rciful/ticketbot/core/logger"
	tg "github.com/m3rciful/ticketbot/core/telegram"
	tghelpers "github.com/m3rciful/ticketbot/core/telegram/helpers"
	"github.com/m3rciful/ticketbot/core/telegram/middleware"
	"github.com/m3rciful/ticketbot/core/telegram/router"
	"github.com/m3rciful/ticketbot/core/telegram/state"
	"github.com/m3rciful/ticketbot/internal/access"
	"github.com/m3rciful/ticketbot/internal/config"
	"github.com/m3rciful/ticketbot/internal/export"
	"github.com/m3rciful/ticketbot/internal/intake"
	"github.com/m3rciful/ticketbot/internal/ledger"
	"github.com/m3rciful/ticketbot/internal/metrics"
	"github.com/m3rciful/ticketbot/internal/receipt"
	"github.com/m3rciful/ticketbot/internal/registration"
	"github.com/m3rciful/ticketbot/internal/tracing"
	"github.com/m3rciful/ticketbot/internal/users"

	tele "gopkg.in/telebot.v4"
)

// opTimeout caps storage work done for a single update.
const opTimeout = 10 * time.Second

// App is the raffle bot.
type App struct {
	cfg *config.Config
	db  *sqlx.DB

	users        *users.Repository
	access       *access.Authorizer
	ledger       *ledger.Ledger
	intake       *intake.Service
	exporter     *export.Exporter
	sessions     *state.Manager
	registration *registration.Flow
	registry     *tg.Registry

	download  Downloader
	extractor intake.Extractor
	store     state.Store
	welcome   string
	ops       *metrics.Server

	// stopTracing flushes exported spans; nil when tracing is off.
	stopTracing func(context.Context) error
}

// Option customizes App construction.
type Option func(*App)

// WithDownloader replaces the Telegram file downloader.
func WithDownloader(d Downloader) Option {
	return func(a *App) {
		if d != nil {
			a.download = d
		}
	}
}

// WithSessionStore replaces the SQL-backed dialogue store.
func WithSessionStore(s state.Store) Option {
	return func(a *App) {
		if s != nil {
			a.store = s
		}
	}
}

// WithExtractor replaces the PDF text extractor.
func WithExtractor(e intake.Extractor) Option {
	return func(a *App) {
		if e != nil {
			a.extractor = e
		}
	}
}

// New builds the services over db and registers every handler.
func New(cfg *config.Config, db *sqlx.DB, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if db == nil {
		return nil, errors.New("app: nil database")
	}
	a := &App{cfg: cfg, db: db, download: botDownloader{}}
	for _, opt := range opts {
		opt(a)
	}
	raffle := cfg.Raffle
	if a.store == nil {
		a.store = state.NewSQLStore(db)
	}
	if a.extractor == nil {
		a.extractor = receipt.NewExtractor(raffle.MaxReceiptBytes)
	}

	lg, err := ledger.New(db, raffle.TicketPrice, ledger.WithMaxTickets(raffle.MaxTicketsPerReceipt))
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.ledger = lg
	a.users = users.NewRepository(db)
	a.access = access.NewAuthorizer(db)
	a.intake = intake.New(
		a.extractor,
		receipt.NewParser(raffle.Currency, raffle.Location()),
		lg,
		a.users,
	)
	a.exporter = export.New(a.users, raffle.Location())
	a.sessions = state.NewManager(a.store)
	a.registration = registration.NewFlow(a.store, a.users)
	a.welcome = loadWelcome(raffle.WelcomeFile, raffle.TicketPrice, raffle.Currency)

	a.registry = tg.NewRegistry()
	if err := errors.Join(a.registerCommands(), a.registerCallbacks()); err != nil {
		return nil, fmt.Errorf("app: wiring: %w", err)
	}
	a.registerDialogues()
	return a, nil
}

// Bootstrap connects to the database, migrates it, seeds the administrator
// role and builds the App.
func Bootstrap(cfg *config.Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
		Seeders:  []bootstrap.Seeder{access.AdminSeeder(cfg.Telegram.AdminID)},
	})
	if err != nil {
		return nil, err
	}
	a, err := New(cfg, res.DB)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	if cfg.Tracing.Enabled() {
		stop, err := tracing.Setup(context.Background(), cfg.Tracing, buildinfo.Version)
		if err != nil {
			_ = res.DB.Close()
			return nil, fmt.Errorf("app: %w", err)
		}
		a.stopTracing = stop
		logger.TWire.Info("tracing enabled",
			slog.String("event", "tracing.setup"),
			slog.String("endpoint", cfg.Tracing.Endpoint),
			slog.Float64("sample_ratio", cfg.Tracing.SampleRatio),
		)
	}
	return a, nil
}

// Registry exposes the command and callback registry.
func (a *App) Registry() *tg.Registry { return a.registry }

func (a *App) adminOptions() middleware.AdminOptions {
	return middleware.AdminOptions{Authorizer: a.access, OnReject: a.denied}
}

// TelegramRunOptions assembles routes, middlewares and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	router.SetObserver(metrics.ObserveHandler)

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{Admin: a.adminOptions()})
	routes = append(routes, router.TextRoutes(a.sessions, a.registry, router.TextOptions{
		Admin:       a.adminOptions(),
		Document:    a.handleDocument,
		UnknownText: a.UnknownText(),
	})...)
	routes = append(routes,
		router.CallbackRoute(a.registry, router.CallbackOptions{NotFound: a.UnknownCallback()}),
		tg.Route{Endpoint: tele.OnPhoto, Handler: middleware.RecoverMiddleware(middleware.LoggerMiddleware(a.UnknownDocument()))},
	)

	core := a.cfg.CoreConfig()
	return tg.RunOptions{
		Config:       core,
		Registry:     a.registry,
		UpdateFilter: tg.PrivateChatsOnly,
		Middlewares:  tg.DefaultMiddlewares(core, a.rateLimited),
		Routes:       routes,
		OnStart:      a.onStart,
		OnStop:       a.onStop,
	}, nil
}

func (a *App) onStart(_ context.Context, _ tg.Runtime) error {
	if a.cfg.Ops.Listen == "" {
		return nil
	}
	srv, err := metrics.Start(a.cfg.Ops.Listen, a.db)
	if err != nil {
		return fmt.Errorf("app: ops server: %w", err)
	}
	a.ops = srv
	return nil
}

func (a *App) onStop(ctx context.Context, _ tg.Runtime) error {
	var errs []error
	if a.ops != nil {
		if err := a.ops.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("ops shutdown: %w", err))
		}
	}
	if a.stopTracing != nil {
		if err := a.stopTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("db close: %w", err))
	}
	return errors.Join(errs...)
}

// opContext derives a bounded context carrying the update's log metadata.
func opContext(c tele.Context) (context.Context, context.CancelFunc) {
	return tghelpers.Bounded(c, opTimeout)
}

func (a *App) isAdmin(ctx context.Context, userID int64) bool {
	ok, err := a.access.IsAdmin(ctx, userID)
	if err != nil {
		logger.SVCAccess.WarnContext(ctx, "role lookup failed",
			slog.String("event", "access.lookup"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return false
	}
	return ok
}

func loadWelcome(path string, price int64, currency string) string {
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil && len(data) > 0:
			return string(data)
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			logger.TWire.Warn("welcome file unreadable",
				slog.String("event", "welcome.load"),
				slog.String("path", path),
				slog.String("err", err.Error()),
			)
		default:
			logger.TWire.Warn("welcome file missing, using built-in text",
				slog.String("event", "welcome.load"),
				slog.String("path", path),
			)
		}
	}
	return defaultWelcome(price, currency)
}

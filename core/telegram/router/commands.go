package router

import (
	"log/slog"

	"github.com/m3rciful/ticketbot/core/logger"
	tg "github.com/m3rciful/ticketbot/core/telegram"
	"github.com/m3rciful/ticketbot/core/telegram/commands"
	"github.com/m3rciful/ticketbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	Admin middleware.AdminOptions
}

// guarded puts AdminOnly commands behind the admin gate. Slash routes and
// alias lookups both go through it.
func guarded(cmd commands.Command, admin middleware.AdminOptions) tele.HandlerFunc {
	if !cmd.AdminOnly {
		return cmd.Handler
	}
	return middleware.AdminOnlyMiddleware(admin)(cmd.Handler)
}

// CommandRoutes returns one route per registered slash command.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	names := reg.Names()
	routes := make([]tg.Route, 0, len(names))
	for _, name := range names {
		cmd, _ := reg.Command(name)
		t := target{name: handlerName(name), run: guarded(cmd, opts.Admin)}
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  endpoint(func(tele.Context) target { return t }),
		})
	}
	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(names)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

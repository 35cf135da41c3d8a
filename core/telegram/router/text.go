package router

import (
	"context"

	tg "github.com/m3rciful/ticketbot/core/telegram"
	tghelpers "github.com/m3rciful/ticketbot/core/telegram/helpers"
	"github.com/m3rciful/ticketbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM is the dialogue manager as seen by the router.
type FSM interface {
	InProgress(ctx context.Context, userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls routing of text and document updates.
type TextOptions struct {
	Admin middleware.AdminOptions
	// Document handles documents sent outside of a dialogue.
	Document    tele.HandlerFunc
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the OnText and OnDocument routes.
//
// Text goes to the first of: a command or reply-keyboard alias, the sender's
// active dialogue, the registry text fallback, UnknownText. Commands win so
// menu buttons and /cancel always work; the dialogue session is left as is
// and resumes with the next plain text. Documents go to the active dialogue
// first, then to Document.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	inDialogue := func(c tele.Context) bool {
		return fsm != nil && fsm.InProgress(tghelpers.BuildContext(c), tghelpers.SenderID(c))
	}

	pickText := func(c tele.Context) target {
		if reg != nil {
			if name, cmd, ok := reg.LookupCommand(c.Text()); ok {
				return target{name: handlerName(name), run: guarded(cmd, opts.Admin)}
			}
		}
		if inDialogue(c) {
			return target{name: "fsm", run: fsm.ManagerHandler}
		}
		if reg != nil && reg.TextFallback() != nil {
			return target{name: "fallback", run: reg.TextFallback()}
		}
		return target{name: "unknown_text", run: opts.UnknownText}
	}

	pickDocument := func(c tele.Context) target {
		if inDialogue(c) {
			return target{name: "fsm_document", run: fsm.ManagerHandler}
		}
		if opts.Document == nil {
			return target{name: "unexpected_document"}
		}
		return target{name: "document", run: opts.Document}
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: endpoint(pickText)},
		{Endpoint: tele.OnDocument, Handler: endpoint(pickDocument)},
	}
}

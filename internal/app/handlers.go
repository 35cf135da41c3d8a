package app

import (
	"errors"
	"fmt"
	"strings"

	tghelpers "github.com/m3rciful/ticketbot/core/telegram/helpers"
	"github.com/m3rciful/ticketbot/internal/registration"
	"github.com/m3rciful/ticketbot/internal/users"

	tele "gopkg.in/telebot.v4"
)

// maxMessageLen keeps ticket listings under Telegram's 4096 character limit.
const maxMessageLen = 3500

func (a *App) handleStart(c tele.Context) error {
	ctx, cancel := opContext(c)
	defer cancel()
	uid := tghelpers.SenderID(c)

	if err := tghelpers.SendHTML(c, a.welcome); err != nil {
		return err
	}

	// Only registered users get the menu. A new user's intro clears any
	// keyboard left over from an earlier session.
	eff, err := a.registration.Start(ctx, uid)
	switch {
	case errors.Is(err, registration.ErrAlreadyRegistered):
		if err := tghelpers.SendText(c, msgAlreadyWelcome); err != nil {
			return err
		}
		return tghelpers.SendMD(c, msgChooseAction, mainMenu(a.isAdmin(ctx, uid)))
	case err != nil:
		_ = tghelpers.SendText(c, msgTryLater)
		return err
	}
	if err := tghelpers.SendText(c, msgRegisterIntro, noKeyboard()); err != nil {
		return err
	}
	return tghelpers.SendMD(c, eff.Prompt)
}

func (a *App) handleRegistrationStep(c tele.Context) error {
	if isDocument(c) {
		return a.handleDocument(c)
	}
	ctx, cancel := opContext(c)
	defer cancel()
	uid := tghelpers.SenderID(c)

	eff, err := a.registration.Advance(ctx, uid, c.Text())
	switch {
	case errors.Is(err, registration.ErrAlreadyRegistered):
		if err := tghelpers.SendText(c, msgAlreadyDone); err != nil {
			return err
		}
		return a.sendBackToMenu(c, a.isAdmin(ctx, uid))
	case errors.Is(err, registration.ErrNotInProgress):
		return a.sendBackToMenu(c, a.isAdmin(ctx, uid))
	case err != nil:
		_ = tghelpers.SendText(c, msgRegisterFailed)
		return err
	}

	switch {
	case eff.Completed:
		if err := tghelpers.SendMD(c, msgRegistered); err != nil {
			return err
		}
		return a.sendBackToMenu(c, a.isAdmin(ctx, uid))
	case eff.Cancelled:
		if err := tghelpers.SendText(c, msgCancelled); err != nil {
			return err
		}
		return a.sendBackToMenu(c, a.isAdmin(ctx, uid))
	case eff.Rejected:
		hint := msgBlankAnswer
		if eff.Reason == registration.ReasonCommand {
			hint = msgCommandAnswer
		}
		if err := tghelpers.SendText(c, hint); err != nil {
			return err
		}
	}
	return tghelpers.SendMD(c, eff.Prompt)
}

func (a *App) handleCancel(c tele.Context) error {
	ctx, cancel := opContext(c)
	defer cancel()
	uid := tghelpers.SenderID(c)

	sess, err := a.sessions.Get(ctx, uid)
	if err != nil {
		return err
	}
	msg := msgNothingToCancel
	if sess.Active() {
		if err := a.sessions.Clear(ctx, uid); err != nil {
			return err
		}
		msg = msgCancelled
	}
	if err := tghelpers.SendText(c, msg); err != nil {
		return err
	}
	return a.sendBackToMenu(c, a.isAdmin(ctx, uid))
}

func (a *App) handleMyTickets(c tele.Context) error {
	ctx, cancel := opContext(c)
	defer cancel()
	uid := tghelpers.SenderID(c)

	if _, err := tghelpers.CurrentUser[users.User](c, a.users); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return tghelpers.SendText(c, msgNotRegistered)
		}
		_ = tghelpers.SendText(c, msgTryLater)
		return err
	}
	tickets, err := a.users.Tickets(ctx, uid)
	if err != nil {
		_ = tghelpers.SendText(c, msgTryLater)
		return err
	}
	if len(tickets) == 0 {
		if err := tghelpers.SendText(c, msgNoTickets); err != nil {
			return err
		}
		return a.sendBackToMenu(c, a.isAdmin(ctx, uid))
	}

	loc := a.cfg.Raffle.Location()
	lines := []string{msgTicketsHeader, msgTicketsTotal(len(tickets)), "---"}
	for _, t := range tickets {
		lines = append(lines, fmt.Sprintf("Билет №: *%d* | Дата получения: %s",
			t.TicketID, t.CreatedAt.In(loc).Format("02.01.2006 15:04")))
	}
	for _, chunk := range chunkLines(lines, maxMessageLen) {
		if err := tghelpers.SendMD(c, chunk); err != nil {
			return err
		}
	}
	return a.sendBackToMenu(c, a.isAdmin(ctx, uid))
}

func (a *App) handleGetTickets(c tele.Context) error {
	ctx, cancel := opContext(c)
	defer cancel()

	ok, err := a.users.Exists(ctx, tghelpers.SenderID(c))
	if err != nil {
		_ = tghelpers.SendText(c, msgTryLater)
		return err
	}
	if !ok {
		return tghelpers.SendText(c, msgNotRegistered)
	}
	return tghelpers.SendMD(c, msgSendReceipt)
}

func (a *App) handleResults(c tele.Context) error {
	return tghelpers.SendHTML(c, msgResults, resultsMarkup())
}

func (a *App) handleLearnResults(c tele.Context) error {
	return tghelpers.SendHTML(c, msgResultsDetails)
}

func (a *App) handleBack(c tele.Context) error {
	ctx, cancel := opContext(c)
	defer cancel()
	return a.sendBackToMenu(c, a.isAdmin(ctx, tghelpers.SenderID(c)))
}

func (a *App) sendBackToMenu(c tele.Context, admin bool) error {
	return tghelpers.SendMD(c, msgBackToMenu, mainMenu(admin))
}

func (a *App) denied(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgNoPermission, ShowAlert: true})
	}
	return tghelpers.SendText(c, msgNoPermission)
}

func (a *App) rateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgRateLimited})
	}
	return tghelpers.SendText(c, msgRateLimited)
}

func isDocument(c tele.Context) bool {
	m := c.Message()
	return m != nil && m.Document != nil
}

// chunkLines joins lines into messages no longer than limit bytes.
func chunkLines(lines []string, limit int) []string {
	var (
		out []string
		b   strings.Builder
	)
	for _, line := range lines {
		if b.Len() > 0 && b.Len()+1+len(line) > limit {
			out = append(out, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

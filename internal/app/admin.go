package app

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/ticketbot/core/logger"
	"github.com/m3rciful/ticketbot/core/telegram/callbacks"
	"github.com/m3rciful/ticketbot/core/telegram/format"
	tghelpers "github.com/m3rciful/ticketbot/core/telegram/helpers"
	"github.com/m3rciful/ticketbot/core/telegram/state"
	"github.com/m3rciful/ticketbot/internal/export"
	"github.com/m3rciful/ticketbot/internal/users"

	tele "gopkg.in/telebot.v4"
)

// Administrator dialogue steps.
const (
	adminStatePrefix = "admin."

	stAddID      state.State = "admin.add.id"
	stAddSurname state.State = "admin.add.surname"
	stAddName    state.State = "admin.add.name"
	stAddAddress state.State = "admin.add.address"
	stAddPhone   state.State = "admin.add.phone"
	stDeleteID   state.State = "admin.delete.id"

	skipCommand = "/skip"
)

// Session keys of the add-user dialogue.
const (
	keyTarget  = "target_id"
	keySurname = "surname"
	keyName    = "name"
	keyAddress = "address"
)

func (a *App) handleManage(c tele.Context) error {
	return tghelpers.SendMD(c, msgManageMenu, manageMenu())
}

func (a *App) handleExport(c tele.Context) error {
	ctx, cancel := opContext(c)
	defer cancel()

	f, err := a.exporter.Export(ctx)
	switch {
	case errors.Is(err, export.ErrNoUsers):
		return tghelpers.SendText(c, msgNoUsers)
	case err != nil:
		_ = tghelpers.SendText(c, msgTryLater)
		return err
	}
	return tghelpers.SendDocument(c, f.Name, f.MIME, f.Data, msgExportCaption)
}

func (a *App) handleAddUser(c tele.Context) error {
	return a.beginAdminStep(c, stAddID, msgAskNewUserID)
}

func (a *App) handleDeleteUser(c tele.Context) error {
	return a.beginAdminStep(c, stDeleteID, msgAskDeleteUserID)
}

func (a *App) beginAdminStep(c tele.Context, st state.State, prompt string) error {
	ctx, cancel := opContext(c)
	defer cancel()
	sess := state.Session{UserID: tghelpers.SenderID(c), State: st, Data: map[string]string{}}
	if err := a.sessions.Set(ctx, sess); err != nil {
		_ = tghelpers.SendText(c, msgTryLater)
		return err
	}
	return tghelpers.SendMD(c, prompt)
}

// handleAdminStep advances the add and delete dialogues. Admin rights are
// checked on every step since a role can be revoked mid-dialogue.
func (a *App) handleAdminStep(c tele.Context) error {
	ctx, cancel := opContext(c)
	defer cancel()
	uid := tghelpers.SenderID(c)

	if !a.isAdmin(ctx, uid) {
		if err := a.sessions.Clear(ctx, uid); err != nil {
			return err
		}
		return a.denied(c)
	}
	if isDocument(c) {
		return a.handleDocument(c)
	}

	sess, err := a.sessions.Get(ctx, uid)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(c.Text())

	switch sess.State {
	case stAddID:
		return a.adminAddID(ctx, c, sess, text)
	case stAddSurname, stAddName, stAddAddress, stAddPhone:
		return a.adminAddField(ctx, c, sess, text)
	case stDeleteID:
		return a.adminDeleteID(ctx, c, sess, text)
	}
	return a.sessions.Clear(ctx, uid)
}

func (a *App) adminAddID(ctx context.Context, c tele.Context, sess state.Session, text string) error {
	target, ok := parseUserID(text)
	if !ok {
		return tghelpers.SendMD(c, msgBadUserID)
	}
	exists, err := a.users.Exists(ctx, target)
	if err != nil {
		_ = tghelpers.SendText(c, msgTryLater)
		return err
	}
	if exists {
		if err := a.sessions.Clear(ctx, sess.UserID); err != nil {
			return err
		}
		if err := tghelpers.SendText(c, msgUserExists(target)); err != nil {
			return err
		}
		return a.sendBackToMenu(c, true)
	}
	sess = sess.With(keyTarget, strconv.FormatInt(target, 10))
	sess.State = stAddSurname
	if err := a.sessions.Set(ctx, sess); err != nil {
		return err
	}
	return tghelpers.SendMD(c, msgAskSurnameFor(target))
}

func (a *App) adminAddField(ctx context.Context, c tele.Context, sess state.Session, text string) error {
	target, _ := strconv.ParseInt(sess.Value(keyTarget), 10, 64)
	value := text
	switch {
	case strings.EqualFold(text, skipCommand):
		value = ""
	case text == "":
		if err := tghelpers.SendText(c, msgBlankAnswer); err != nil {
			return err
		}
		return tghelpers.SendMD(c, addPrompt(sess.State, target))
	case strings.HasPrefix(text, "/"):
		if err := tghelpers.SendText(c, msgCommandAnswer); err != nil {
			return err
		}
		return tghelpers.SendMD(c, addPrompt(sess.State, target))
	}

	var next state.State
	switch sess.State {
	case stAddSurname:
		sess, next = sess.With(keySurname, value), stAddName
	case stAddName:
		sess, next = sess.With(keyName, value), stAddAddress
	case stAddAddress:
		sess, next = sess.With(keyAddress, value), stAddPhone
	case stAddPhone:
		return a.adminAddFinish(ctx, c, sess, target, value)
	}
	sess.State = next
	if err := a.sessions.Set(ctx, sess); err != nil {
		return err
	}
	return tghelpers.SendMD(c, addPrompt(next, target))
}

func (a *App) adminAddFinish(ctx context.Context, c tele.Context, sess state.Session, target int64, phone string) error {
	if err := a.sessions.Clear(ctx, sess.UserID); err != nil {
		return err
	}
	_, err := a.users.Create(ctx, target, users.Profile{
		Surname: format.Optional(sess.Value(keySurname)),
		Name:    format.Optional(sess.Value(keyName)),
		Address: format.Optional(sess.Value(keyAddress)),
		Phone:   format.Optional(phone),
	})
	msg := msgUserAdded(target)
	switch {
	case errors.Is(err, users.ErrUserExists):
		msg = msgUserExists(target)
	case err != nil:
		logger.SVCUsers.ErrorContext(ctx, "admin add failed",
			slog.String("event", "admin.add_user"),
			slog.String("outcome", "fail"),
			slog.Int64("target_id", target),
			slog.String("err", err.Error()),
		)
		msg = msgUserAddFailed(target)
	default:
		logger.SVCUsers.InfoContext(ctx, "user added by admin",
			slog.String("event", "admin.add_user"),
			slog.String("outcome", "ok"),
			slog.Int64("admin_id", sess.UserID),
			slog.Int64("target_id", target),
		)
	}
	if err := tghelpers.SendMD(c, msg); err != nil {
		return err
	}
	return a.sendBackToMenu(c, true)
}

func (a *App) adminDeleteID(ctx context.Context, c tele.Context, sess state.Session, text string) error {
	target, ok := parseUserID(text)
	if !ok {
		return tghelpers.SendMD(c, msgBadUserID)
	}
	if err := a.sessions.Clear(ctx, sess.UserID); err != nil {
		return err
	}
	u, err := a.users.Get(ctx, target)
	switch {
	case errors.Is(err, users.ErrNotFound):
		if err := tghelpers.SendText(c, msgUserNotFound(target)); err != nil {
			return err
		}
		return a.sendBackToMenu(c, true)
	case err != nil:
		_ = tghelpers.SendText(c, msgTryLater)
		return err
	}
	payload := strconv.FormatInt(target, 10)
	return tghelpers.SendMD(c, msgConfirmDelete(target, u.FullName()), confirmDeleteMarkup(payload))
}

func (a *App) handleDeleteConfirm(c tele.Context) error {
	ctx, cancel := opContext(c)
	defer cancel()

	target, err := callbacks.From(c).Int64()
	if err != nil || target <= 0 {
		return tghelpers.SendMD(c, msgBadUserID)
	}
	msg := msgUserDeleted(target)
	switch err := a.users.Delete(ctx, target); {
	case errors.Is(err, users.ErrNotFound):
		msg = msgUserNotFound(target)
	case err != nil:
		logger.SVCUsers.ErrorContext(ctx, "admin delete failed",
			slog.String("event", "admin.delete_user"),
			slog.String("outcome", "fail"),
			slog.Int64("target_id", target),
			slog.String("err", err.Error()),
		)
		msg = msgUserDeleteFailed(target)
	}
	if err := tghelpers.SendMD(c, msg); err != nil {
		return err
	}
	return a.sendBackToMenu(c, true)
}

func (a *App) handleDeleteCancel(c tele.Context) error {
	if err := tghelpers.SendText(c, msgDeleteCancelled); err != nil {
		return err
	}
	return a.sendBackToMenu(c, true)
}

func addPrompt(st state.State, target int64) string {
	switch st {
	case stAddSurname:
		return msgAskSurnameFor(target)
	case stAddName:
		return msgAskNameFor(target)
	case stAddAddress:
		return msgAskAddressFor(target)
	case stAddPhone:
		return msgAskPhoneFor(target)
	}
	return msgAskNewUserID
}

func parseUserID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

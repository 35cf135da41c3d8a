package app

import (
	tghelpers "github.com/m3rciful/ticketbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const msgActionUnavailable = "Действие недоступно"

// UnknownText answers text that matched no command, alias or dialogue.
func (a *App) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx, cancel := opContext(c)
		defer cancel()
		if err := tghelpers.SendText(c, msgUnknownText); err != nil {
			return err
		}
		return a.sendBackToMenu(c, a.isAdmin(ctx, tghelpers.SenderID(c)))
	}
}

// UnknownDocument answers uploads that cannot be receipts, such as photos.
func (a *App) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendMD(c, msgReceiptNotPDF)
	}
}

// UnknownCallback answers presses on buttons no handler owns.
func (a *App) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: msgActionUnavailable})
	}
}

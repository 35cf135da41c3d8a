package app

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ticketbot/core/telegram/keyboard"
)

func mainMenu(admin bool) *tele.ReplyMarkup {
	rows := [][]string{{btnMyTickets, btnGetTickets, btnResults}}
	if admin {
		rows = append(rows, []string{btnExport, btnManage})
	}
	return keyboard.Reply(rows...)
}

func noKeyboard() *tele.SendOptions {
	return &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{RemoveKeyboard: true}}
}

func manageMenu() *tele.ReplyMarkup {
	m := keyboard.Reply(
		[]string{btnAddUser, btnDeleteUser},
		[]string{btnBack},
	)
	m.OneTimeKeyboard = true
	return m
}

func resultsMarkup() *tele.ReplyMarkup {
	return keyboard.Inline(keyboard.Column(keyboard.Button{Text: btnLearnMore, Unique: cbLearnResults})...)
}

func confirmDeleteMarkup(payload string) *tele.ReplyMarkup {
	return keyboard.Inline([]keyboard.Button{
		{Text: btnConfirm, Unique: cbDeleteOK, Data: payload},
		keyboard.Cancel(cbDeleteCancel, payload),
	})
}

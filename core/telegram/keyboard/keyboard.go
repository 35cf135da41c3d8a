// Package keyboard builds reply and inline markups from plain labels.
package keyboard

import tele "gopkg.in/telebot.v4"

// CancelText is the label of Cancel buttons.
const CancelText = "❌ Отмена"

// Button is an inline button; Unique routes the callback, Data is its payload.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Cancel returns a cancel button routed to unique carrying data.
func Cancel(unique, data string) Button {
	return Button{Text: CancelText, Unique: unique, Data: data}
}

// Reply builds a resized reply keyboard, one row per argument.
func Reply(rows ...[]string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{ResizeKeyboard: true}
	out := make([]tele.Row, len(rows))
	for i, labels := range rows {
		btns := make([]tele.Btn, len(labels))
		for j, l := range labels {
			btns[j] = m.Text(l)
		}
		out[i] = m.Row(btns...)
	}
	m.Reply(out...)
	return m
}

// Inline builds an inline keyboard, one row per argument.
func Inline(rows ...[]Button) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.InlineKeyboard = make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		m.InlineKeyboard[i] = make([]tele.InlineButton, len(row))
		for j, b := range row {
			m.InlineKeyboard[i][j] = *m.Data(b.Text, b.Unique, b.Data).Inline()
		}
	}
	return m
}

// Column puts every button on its own row.
func Column(buttons ...Button) [][]Button {
	rows := make([][]Button, len(buttons))
	for i, b := range buttons {
		rows[i] = []Button{b}
	}
	return rows
}

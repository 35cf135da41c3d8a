// Package callbacks decodes inline button callback data.
package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Data is a decoded callback: the button's unique key and its payload.
type Data struct {
	Unique  string
	Payload string
}

// Parse decodes cb. Callbacks routed by telebot already carry Unique;
// raw ones use the "\f<unique>|<payload>" wire form.
func Parse(cb *tele.Callback) Data {
	if cb == nil {
		return Data{}
	}
	if cb.Unique != "" {
		return Data{Unique: cb.Unique, Payload: cb.Data}
	}
	unique, payload, _ := strings.Cut(strings.TrimPrefix(cb.Data, "\f"), "|")
	return Data{Unique: strings.TrimSpace(unique), Payload: payload}
}

// From decodes the callback of c.
func From(c tele.Context) Data {
	return Parse(c.Callback())
}

// Int64 parses the payload as a decimal id.
func (d Data) Int64() (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(d.Payload), 10, 64)
}

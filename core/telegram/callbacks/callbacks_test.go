package callbacks

import (
	"testing"

	"github.com/m3rciful/ticketbot/core/telegram/teletest"

	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		cb   *tele.Callback
		want Data
	}{
		{name: "nil", cb: nil},
		{name: "routed", cb: &tele.Callback{Unique: "admin_delete_confirm", Data: "42"}, want: Data{"admin_delete_confirm", "42"}},
		{name: "raw", cb: &tele.Callback{Data: "\flearn_results|"}, want: Data{Unique: "learn_results"}},
		{name: "raw with payload", cb: &tele.Callback{Data: "\fadmin_delete_confirm|777"}, want: Data{"admin_delete_confirm", "777"}},
		{name: "no separator", cb: &tele.Callback{Data: "\fping"}, want: Data{Unique: "ping"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Parse(tc.cb); got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestInt64(t *testing.T) {
	id, err := From(teletest.NewCallback(1, "admin_delete_confirm", " 123456789 ")).Int64()
	if err != nil || id != 123456789 {
		t.Fatalf("got %d err=%v", id, err)
	}
	if _, err := From(teletest.NewCallback(1, "admin_delete_confirm", "abc")).Int64(); err == nil {
		t.Fatal("expected parse error")
	}
}

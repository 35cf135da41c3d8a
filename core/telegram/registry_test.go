package telegram

import (
	"errors"
	"testing"

	"github.com/m3rciful/ticketbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestLookupCommandByNameAndAlias(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/tickets", commands.Command{Handler: noop, Description: "Мои билеты", Aliases: []string{"🎫 Мои билеты"}})
	reg.RegisterCommand("/export_users", commands.Command{Handler: noop, Description: "Экспорт", AdminOnly: true, Aliases: []string{"📊 Экспорт данных"}})

	cases := []struct {
		text string
		key  string
		ok   bool
	}{
		{"/tickets", "/tickets", true},
		{"/tickets@raffle_bot now", "/tickets", true},
		{"  🎫 Мои билеты ", "/tickets", true},
		{"📊 Экспорт данных", "/export_users", true},
		{"Ivanov", "", false},
		{"/skip", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		key, _, ok := reg.LookupCommand(tc.text)
		if ok != tc.ok || key != tc.key {
			t.Fatalf("LookupCommand(%q) = (%q, %v), want (%q, %v)", tc.text, key, ok, tc.key, tc.ok)
		}
	}
}

func TestRegistryRejectsInvalidAndDuplicates(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("start", commands.Command{Handler: noop, Description: "x"}); err == nil {
		t.Fatal("name without slash accepted")
	}
	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "first", Aliases: []string{"Начать"}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "second"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate err = %v", err)
	}
	if err := reg.RegisterCommand("/begin", commands.Command{Handler: noop, Description: "x", Aliases: []string{" Начать"}}); !errors.Is(err, ErrAliasTaken) {
		t.Fatalf("alias err = %v", err)
	}
	if _, ok := reg.Command("/begin"); ok {
		t.Fatal("rejected command stored")
	}
	if cmd, ok := reg.Command("/start"); !ok || cmd.Description != "first" {
		t.Fatalf("stored = %+v", cmd)
	}

	if err := reg.RegisterCallback("learn_results", noop); err != nil {
		t.Fatalf("register callback: %v", err)
	}
	if err := reg.RegisterCallback("learn_results", noop); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate callback err = %v", err)
	}
	if err := reg.RegisterCallback("", noop); !errors.Is(err, ErrBadCallback) {
		t.Fatalf("empty key err = %v", err)
	}
	if _, ok := reg.GetCallback("learn_results"); !ok {
		t.Fatal("callback not found")
	}
}

func TestListCommandsHidesAdminOnly(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Начать"})
	reg.RegisterCommand("/manage", commands.Command{Handler: noop, Description: "Управление", AdminOnly: true})
	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "/start" {
		t.Fatalf("visible = %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 2 {
		t.Fatalf("all = %+v", all)
	}
}

// Package commands describes slash commands and their reply-keyboard aliases.
package commands

import (
	"errors"
	"fmt"
	"regexp"

	tele "gopkg.in/telebot.v4"
)

// Telegram accepts 1-32 lowercase latin letters, digits and underscores.
var nameRe = regexp.MustCompile(`^/[a-z0-9_]{1,32}$`)

var (
	ErrNoHandler     = errors.New("commands: handler is required")
	ErrNoDescription = errors.New("commands: description is required")
)

// Command is a slash command. Aliases are exact texts, usually menu button
// labels, that trigger the same handler.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Validate checks that name is a valid Bot API command and cmd is usable.
func (c Command) Validate(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("commands: invalid name %q", name)
	}
	if c.Handler == nil {
		return ErrNoHandler
	}
	if c.Description == "" {
		return ErrNoDescription
	}
	return nil
}

// Package format holds small text helpers for outgoing messages and the
// optional profile fields built from user input.
package format

import "strings"

var (
	legacyMD = strings.NewReplacer(`_`, `\_`, `*`, `\*`, "`", "\\`", `[`, `\[`)
	md2      = strings.NewReplacer(
		`\`, `\\`, `_`, `\_`, `*`, `\*`, `[`, `\[`, `]`, `\]`, `(`, `\(`, `)`, `\)`,
		`~`, `\~`, "`", "\\`", `>`, `\>`, `#`, `\#`, `+`, `\+`, `-`, `\-`, `=`, `\=`,
		`|`, `\|`, `{`, `\{`, `}`, `\}`, `.`, `\.`, `!`, `\!`,
	)
)

// Markdown escapes s for the legacy Markdown parse mode.
func Markdown(s string) string { return legacyMD.Replace(s) }

// MarkdownV2 escapes s for the MarkdownV2 parse mode.
func MarkdownV2(s string) string { return md2.Replace(s) }

// Optional maps blank input to nil.
func Optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// OrDefault returns *p, or def when p is nil.
func OrDefault(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// Package buildinfo holds version stamps injected with -ldflags:
//
//	-X 'github.com/m3rciful/ticketbot/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/m3rciful/ticketbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/ticketbot/core/buildinfo.Date=2025-08-30T12:00:00Z'
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "local"
	// Date is RFC3339; empty for local builds.
	Date = ""
)

// String renders a one-line banner such as "v1.2.3 (abcdef0, 2025-08-30T12:00:00Z)".
func String() string {
	if Date == "" {
		return fmt.Sprintf("%s (%s)", Version, Commit)
	}
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}

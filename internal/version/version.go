// Package version reports build information for portal-inbox.
package version

import "fmt"

// Version, Commit and Date are overridden at build time using ldflags:
//
//	-X github.com/univ-portal/portal-inbox/internal/version.Version=1.2.0
var (
	Version = "development"
	Commit  = "unknown"
	Date    = ""
)

// String returns the version followed by the commit hash when known.
func String() string {
	if Commit != "unknown" && Commit != "" {
		return Version + "+" + Commit
	}
	return Version
}

// Long returns the string printed by `portal-inbox version --long`.
func Long() string {
	s := fmt.Sprintf("portal-inbox %s", String())
	if Date != "" {
		s += fmt.Sprintf(" (built %s)", Date)
	}
	return s
}

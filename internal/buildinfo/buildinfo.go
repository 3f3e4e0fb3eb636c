// Package buildinfo holds version information injected at build time via ldflags.
package buildinfo

import "runtime"

var (
	Version    = "dev"
	Codename   = "unknown"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// UserAgent identifies nearbyd in outbound HTTP requests.
func UserAgent() string {
	return "nearbyd/" + Version + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}

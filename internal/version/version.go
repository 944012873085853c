package version

import "fmt"

var (
	// Version is the semantic version of the pipeline binary, overridable via ldflags.
	Version = "1.0.0"
	// Commit is the short git SHA stamped at build time (or "none" for local builds).
	Commit = "none"
	// BuildTime is the UTC timestamp stamped at build time.
	BuildTime = "unknown"
)

// Short returns the bare semantic version string.
func Short() string {
	return Version
}

// Full renders the version together with commit and build timestamp.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}

// Package version exposes the pipeline's build metadata.
//
// Version, Commit, and BuildTime are stamped through Go ldflags and carry
// local-build defaults otherwise. Short and Full render them for CLI output.
package version

// Package toolchain wraps the external tools the pipeline drives.
//
// It provides a capability probe returning a discriminated result
// (available-with-path or unavailable), an ordered fallback chain over
// interchangeable tools, and a Runner abstraction over blocking tool
// invocations that captures combined output for diagnostics. Services accept
// a Runner and a ProbeFunc so tests can inject fakes.
package toolchain

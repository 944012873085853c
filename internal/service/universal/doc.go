// Package universal merges architecture-specific executables for the same OS
// into one multi-architecture binary and verifies the result.
//
// After the merge the embedded architecture set is read back and compared
// against the requested set; a mismatch removes the output and fails, since a
// universal binary missing a slice fails silently at launch on that
// architecture.
package universal

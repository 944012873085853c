// Package compiler invokes the external toolchain for one (OS, architecture)
// pair and returns the produced architecture-specific executable.
//
// Each target writes to its own toolchain output directory, so concurrent
// compilations for different targets never collide. Re-invocation overwrites
// the prior output for the same target.
package compiler

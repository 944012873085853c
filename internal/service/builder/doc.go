// Package builder orchestrates the distribution pipeline.
//
// It sequences compile, merge, package, sign, and produce per requested
// platform, driving the run state machine in the dist domain package. Compile
// and merge and package failures abort the platform's run; signing and
// producing sub-steps degrade to recorded warnings. Platform runs are
// independent: a fatal failure on one never aborts another. Each run claims
// its output root with a lock so concurrent builds cannot race on the same
// artifact paths.
package builder

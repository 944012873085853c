// Package producer turns an assembled container into end-user distributables.
//
// The portable-archive variant stages the container and auxiliary files and
// compresses them into a versioned zip. The installer-executable variant
// renders an NSIS script from a template and invokes makensis. A release
// checksum manifest covering the produced artifacts is written last.
package producer

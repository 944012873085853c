// Package sign applies a trust signature over an assembled container.
//
// The default identity is "-", an ad-hoc signature sufficient for local
// launches without a trust prompt. Signing is best-effort: the orchestrator
// downgrades failures to warnings unless the manifest marks signing required.
package sign

// Package dist contains core domain types for the distribution pipeline.
//
// It defines the build targets the pipeline knows how to produce, the typed
// artifacts handed between stages (CompiledBinary, UniversalBinary, IconAsset,
// Container, Artifact), the per-platform run state machine with its RunStatus
// record, and the error taxonomy shared by all stages.
package dist

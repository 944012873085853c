package dist

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage is one step of a per-platform pipeline run.
type Stage string

const (
	// StagePending means the run has not started yet.
	StagePending Stage = "pending"
	// StageCompiling covers per-architecture compilation.
	StageCompiling Stage = "compiling"
	// StageMerging covers universal binary assembly. Skipped for single-arch runs.
	StageMerging Stage = "merging"
	// StagePackaging covers icon conversion and container assembly.
	StagePackaging Stage = "packaging"
	// StageSigning covers the best-effort trust signature.
	StageSigning Stage = "signing"
	// StageProducing covers archive, installer, and manifest production.
	StageProducing Stage = "producing"
	// StageDone is the terminal success state.
	StageDone Stage = "done"
	// StageFailed is the absorbing failure state, reachable from any non-terminal stage.
	StageFailed Stage = "failed"
)

// transitions lists the valid forward moves of the run state machine.
// StageFailed is reachable from every non-terminal stage and is not listed.
//
//nolint:gochecknoglobals // Fixed transition table, never mutated.
var transitions = map[Stage][]Stage{
	StagePending:   {StageCompiling},
	StageCompiling: {StageMerging, StagePackaging},
	StageMerging:   {StagePackaging},
	StagePackaging: {StageSigning},
	StageSigning:   {StageProducing},
	StageProducing: {StageDone},
}

// Terminal reports whether the stage is an end state.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// CanTransition reports whether moving from s to next is a valid progression.
func (s Stage) CanTransition(next Stage) bool {
	if next == StageFailed {
		return !s.Terminal()
	}

	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// errInvalidTransition is returned when a run is advanced out of order.
var errInvalidTransition = errors.New("invalid stage transition")

// RunStatus is the status record for one platform run. The orchestrator is
// its sole mutator; other stages only ever see their typed inputs and outputs.
type RunStatus struct {
	// RunID uniquely identifies this invocation in logs and summaries.
	RunID uuid.UUID
	// Platform is the OS this run targets.
	Platform OS
	// Stage is the state the run is currently in, or ended in.
	Stage Stage
	// FailedStage records which stage the run failed in, when Stage is StageFailed.
	FailedStage Stage
	// Err is the fatal error that aborted the run, when Stage is StageFailed.
	Err error
	// Warnings collects non-fatal degradations recorded during the run.
	Warnings []string
	// Artifacts lists the distributables the run produced.
	Artifacts []Artifact
	// StartedAt is when the run was created.
	StartedAt time.Time
	// FinishedAt is when the run reached a terminal stage.
	FinishedAt time.Time
}

// NewRunStatus creates a pending status record for a platform run.
func NewRunStatus(platform OS) *RunStatus {
	return &RunStatus{
		RunID:     uuid.New(),
		Platform:  platform,
		Stage:     StagePending,
		StartedAt: time.Now(),
	}
}

// Advance moves the run to the next stage, validating the transition.
func (r *RunStatus) Advance(next Stage) error {
	if !r.Stage.CanTransition(next) {
		return fmt.Errorf("%s -> %s: %w", r.Stage, next, errInvalidTransition)
	}

	r.Stage = next

	if next.Terminal() {
		r.FinishedAt = time.Now()
	}

	return nil
}

// Fail moves the run to the absorbing failure state, recording where and why.
func (r *RunStatus) Fail(err error) {
	r.FailedStage = r.Stage
	r.Err = err
	r.Stage = StageFailed
	r.FinishedAt = time.Now()
}

// Warn records a non-fatal degradation.
func (r *RunStatus) Warn(message string) {
	r.Warnings = append(r.Warnings, message)
}

// AddArtifact records a produced distributable.
func (r *RunStatus) AddArtifact(a Artifact) {
	r.Artifacts = append(r.Artifacts, a)
}

// Fatal reports whether the run ended in failure.
func (r *RunStatus) Fatal() bool {
	return r.Stage == StageFailed
}

// Partial reports whether the run completed but recorded warnings.
func (r *RunStatus) Partial() bool {
	return r.Stage == StageDone && len(r.Warnings) > 0
}

// Clone returns a copy of the status to avoid leaking internal references.
func (r *RunStatus) Clone() *RunStatus {
	cloned := *r
	cloned.Warnings = append([]string(nil), r.Warnings...)
	cloned.Artifacts = append([]Artifact(nil), r.Artifacts...)

	return &cloned
}

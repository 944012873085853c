package dist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestStageTransitions verifies the valid progression of the run state machine.
func TestStageTransitions(t *testing.T) {
	t.Parallel()

	require.True(t, StagePending.CanTransition(StageCompiling))
	require.True(t, StageCompiling.CanTransition(StageMerging))
	require.True(t, StageCompiling.CanTransition(StagePackaging))
	require.True(t, StageMerging.CanTransition(StagePackaging))
	require.True(t, StagePackaging.CanTransition(StageSigning))
	require.True(t, StageSigning.CanTransition(StageProducing))
	require.True(t, StageProducing.CanTransition(StageDone))

	// No skipping ahead or moving backwards.
	require.False(t, StagePending.CanTransition(StagePackaging))
	require.False(t, StagePackaging.CanTransition(StageCompiling))
	require.False(t, StageSigning.CanTransition(StageDone))

	// The failure state absorbs every non-terminal stage.
	for _, stage := range []Stage{StagePending, StageCompiling, StageMerging, StagePackaging, StageSigning, StageProducing} {
		require.True(t, stage.CanTransition(StageFailed))
	}

	// Terminal states never transition.
	require.False(t, StageDone.CanTransition(StageFailed))
	require.False(t, StageFailed.CanTransition(StageCompiling))
	require.False(t, StageFailed.CanTransition(StageFailed))
}

// TestRunStatusAdvance checks progression bookkeeping and invalid moves.
func TestRunStatusAdvance(t *testing.T) {
	t.Parallel()

	status := NewRunStatus(OSDarwin)
	require.Equal(t, StagePending, status.Stage)
	require.NotEqual(t, "", status.RunID.String())

	require.NoError(t, status.Advance(StageCompiling))
	require.Error(t, status.Advance(StageDone))

	require.NoError(t, status.Advance(StagePackaging))
	require.NoError(t, status.Advance(StageSigning))
	require.NoError(t, status.Advance(StageProducing))
	require.NoError(t, status.Advance(StageDone))

	require.False(t, status.Fatal())
	require.False(t, status.FinishedAt.IsZero())
}

// TestRunStatusFail records the failing stage and reason.
func TestRunStatusFail(t *testing.T) {
	t.Parallel()

	status := NewRunStatus(OSWindows)
	require.NoError(t, status.Advance(StageCompiling))

	cause := errors.New("boom")
	status.Fail(cause)

	require.True(t, status.Fatal())
	require.Equal(t, StageFailed, status.Stage)
	require.Equal(t, StageCompiling, status.FailedStage)
	require.ErrorIs(t, status.Err, cause)
	require.False(t, status.Partial())
}

// TestRunStatusPartial reports partial success only for completed runs with warnings.
func TestRunStatusPartial(t *testing.T) {
	t.Parallel()

	status := NewRunStatus(OSDarwin)
	status.Warn("container left unsigned")
	require.False(t, status.Partial())

	for _, stage := range []Stage{StageCompiling, StagePackaging, StageSigning, StageProducing, StageDone} {
		require.NoError(t, status.Advance(stage))
	}

	require.True(t, status.Partial())
}

// TestRunStatusClone ensures clones do not share slices with the original.
func TestRunStatusClone(t *testing.T) {
	t.Parallel()

	status := NewRunStatus(OSDarwin)
	status.Warn("first")
	status.AddArtifact(Artifact{Kind: ArtifactPortableArchive, Path: "a.zip"})

	cloned := status.Clone()
	cloned.Warn("second")
	cloned.AddArtifact(Artifact{Kind: ArtifactInstaller, Path: "b.exe"})

	require.Len(t, status.Warnings, 1)
	require.Len(t, status.Artifacts, 1)
	require.Len(t, cloned.Warnings, 2)
	require.Len(t, cloned.Artifacts, 2)
}

package toolchain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestExecRunnerMissingTool surfaces a ToolError for tools that cannot start.
func TestExecRunnerMissingTool(t *testing.T) {
	t.Parallel()

	err := ExecRunner{}.Run(context.Background(), "", "definitely-not-a-real-tool-name")
	require.Error(t, err)

	var toolErr *ToolError

	require.True(t, errors.As(err, &toolErr))
	require.Equal(t, "definitely-not-a-real-tool-name", toolErr.Tool)
	require.Equal(t, -1, toolErr.ExitCode)
}

// TestToolErrorMessage keeps raw output out of the primary error message.
func TestToolErrorMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("exit status 2")
	toolErr := &ToolError{
		Tool:     "makensis",
		ExitCode: 2,
		Output:   "hundreds of lines of compiler output",
		Err:      cause,
	}

	require.NotContains(t, toolErr.Error(), "hundreds of lines")
	require.ErrorIs(t, toolErr, cause)
}

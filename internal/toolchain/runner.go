package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/multiinstance/dist-builder/internal/logger"
)

// Runner executes blocking external tool invocations.
// All invocations are synchronous; cancellation applies between, not within, runs.
type Runner interface {
	// Run executes the tool in dir (empty means current directory) and
	// returns an error carrying the captured output on failure.
	Run(ctx context.Context, dir, name string, args ...string) error
	// Output executes the tool and returns its combined output.
	Output(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ToolError carries the exit status and raw captured output of a failed tool
// run. The output is preserved for diagnostics; callers log it rather than
// treating it as the primary signal.
type ToolError struct {
	// Tool is the invoked tool name.
	Tool string
	// ExitCode is the tool's exit status, or -1 if it did not run.
	ExitCode int
	// Output is the combined stdout and stderr captured from the tool.
	Output string
	// Err is the underlying execution error.
	Err error
}

// Error renders the failure without dumping the raw output.
func (e *ToolError) Error() string {
	return fmt.Sprintf("%s exited with status %d: %v", e.Tool, e.ExitCode, e.Err)
}

// Unwrap exposes the underlying execution error.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// ExecRunner runs tools via os/exec, capturing combined output.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	_, err := ExecRunner{}.Output(ctx, dir, name, args...)

	return err
}

// Output implements Runner.
func (ExecRunner) Output(ctx context.Context, dir, name string, args ...string) (string, error) {
	logger.DebugKV(ctx, "Running external tool", "tool", name, "args", strings.Join(args, " "), "dir", dir)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		// ProcessState is nil when the tool never started.
		exitCode := -1
		if cmd.ProcessState != nil {
			exitCode = cmd.ProcessState.ExitCode()
		}

		toolErr := &ToolError{
			Tool:     name,
			ExitCode: exitCode,
			Output:   string(out),
			Err:      err,
		}

		logger.DebugKV(ctx, "External tool failed", "tool", name, "output", toolErr.Output)

		return string(out), toolErr
	}

	return string(out), nil
}

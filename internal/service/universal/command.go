package universal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/multiinstance/dist-builder/internal/domain/dist"
	"github.com/multiinstance/dist-builder/internal/logger"
	"github.com/multiinstance/dist-builder/internal/toolchain"
)

// Options contains inputs for one merge.
type Options struct {
	// Inputs are the constituent binaries, in merge order.
	Inputs []dist.CompiledBinary
	// OutputPath is where the universal binary is written.
	OutputPath string
	// Runner executes external tools. Defaults to toolchain.ExecRunner.
	Runner toolchain.Runner
	// Probe resolves tool availability. Defaults to toolchain.Probe.
	Probe toolchain.ProbeFunc
}

var (
	// errNoInputs is returned when the constituent sequence is empty.
	errNoInputs = errors.New("no constituent binaries provided")
	// errSameArchTwice is returned when two constituents share an architecture.
	errSameArchTwice = errors.New("duplicate constituent architecture")
)

// Run merges the constituent binaries into one universal binary.
// Preconditions: all inputs exist, target the same OS, and cover distinct
// architectures. After the merge, the embedded architecture set is verified
// against the requested set.
func Run(ctx context.Context, opts *Options) (*dist.UniversalBinary, error) {
	if err := validateInputs(opts.Inputs); err != nil {
		return nil, err
	}

	runner := opts.Runner
	if runner == nil {
		runner = toolchain.ExecRunner{}
	}

	probe := opts.Probe
	if probe == nil {
		probe = toolchain.Probe
	}

	lipo := probe("lipo")
	if !lipo.Available {
		return nil, fmt.Errorf("lipo not found on PATH: %w", dist.ErrToolchainMissing)
	}

	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	args := []string{"-create"}
	for _, in := range opts.Inputs {
		args = append(args, in.Path)
	}

	args = append(args, "-output", opts.OutputPath)

	logger.InfoKV(ctx, "Merging universal binary",
		"constituents", len(opts.Inputs), "output", opts.OutputPath)

	if err := runner.Run(ctx, "", lipo.Path, args...); err != nil {
		return nil, fmt.Errorf("lipo -create: %w", err)
	}

	if err := verify(ctx, runner, lipo.Path, opts); err != nil {
		// A partial universal binary is worse than none.
		_ = os.Remove(opts.OutputPath)

		return nil, err
	}

	return &dist.UniversalBinary{
		Constituents: append([]dist.CompiledBinary(nil), opts.Inputs...),
		Path:         opts.OutputPath,
	}, nil
}

// validateInputs enforces the merge preconditions.
func validateInputs(inputs []dist.CompiledBinary) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: %w", dist.ErrMissingConstituent, errNoInputs)
	}

	seen := make(map[dist.Arch]bool, len(inputs))

	for _, in := range inputs {
		if in.Target.OS != inputs[0].Target.OS {
			return fmt.Errorf("%s does not match %s: %w",
				in.Target, inputs[0].Target, dist.ErrArchitectureMismatch)
		}

		if seen[in.Target.Arch] {
			return fmt.Errorf("%s: %w: %w",
				in.Target.Arch, errSameArchTwice, dist.ErrArchitectureMismatch)
		}

		seen[in.Target.Arch] = true

		if _, err := os.Stat(in.Path); err != nil {
			return fmt.Errorf("%s (%s): %w", in.Path, in.Target, dist.ErrMissingConstituent)
		}
	}

	return nil
}

// verify reads the embedded architecture set back and compares it with the
// requested set.
func verify(ctx context.Context, runner toolchain.Runner, lipoPath string, opts *Options) error {
	out, err := runner.Output(ctx, "", lipoPath, "-archs", opts.OutputPath)
	if err != nil {
		return fmt.Errorf("lipo -archs: %w: %w", dist.ErrMergeVerificationFailed, err)
	}

	embedded := strings.Fields(out)
	sort.Strings(embedded)

	expected := make([]string, 0, len(opts.Inputs))
	for _, in := range opts.Inputs {
		expected = append(expected, in.Target.Arch.LipoName())
	}

	sort.Strings(expected)

	if strings.Join(embedded, " ") != strings.Join(expected, " ") {
		return fmt.Errorf("embedded [%s], requested [%s]: %w",
			strings.Join(embedded, " "), strings.Join(expected, " "),
			dist.ErrMergeVerificationFailed)
	}

	logger.InfoKV(ctx, "Verified universal binary", "architectures", strings.Join(embedded, " "))

	return nil
}

package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/multiinstance/dist-builder/internal/config"
	"github.com/multiinstance/dist-builder/internal/domain/dist"
	"github.com/multiinstance/dist-builder/internal/logger"
	"github.com/multiinstance/dist-builder/internal/toolchain"
)

// Options contains inputs for one per-architecture compilation.
type Options struct {
	// Config is the build manifest.
	Config *config.Config
	// Target is the compilation unit to build.
	Target dist.Target
	// Runner executes external tools. Defaults to toolchain.ExecRunner.
	Runner toolchain.Runner
	// Probe resolves tool availability. Defaults to toolchain.Probe.
	Probe toolchain.ProbeFunc
}

// Run compiles the application for the target and returns the produced binary.
// It fails with dist.ErrToolchainMissing when cargo or the target triple is
// not installed, and with dist.ErrCompileFailed when the compiler exits
// non-zero.
func Run(ctx context.Context, opts *Options) (*dist.CompiledBinary, error) {
	ctx = logger.WithKV(ctx, "target", opts.Target.String())

	runner := opts.Runner
	if runner == nil {
		runner = toolchain.ExecRunner{}
	}

	probe := opts.Probe
	if probe == nil {
		probe = toolchain.Probe
	}

	cargo := probe("cargo")
	if !cargo.Available {
		return nil, fmt.Errorf("cargo not found on PATH: %w", dist.ErrToolchainMissing)
	}

	if err := ensureTargetInstalled(ctx, runner, probe, opts.Target.Triple); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Compiling", "triple", opts.Target.Triple)

	err := runner.Run(ctx, opts.Config.SourceDir, cargo.Path,
		"build", "--release", "--target", opts.Target.Triple)
	if err != nil {
		return nil, fmt.Errorf("cargo build for %s: %w: %w", opts.Target, dist.ErrCompileFailed, err)
	}

	binary := &dist.CompiledBinary{
		Target: opts.Target,
		Path:   BinaryPath(opts.Config, opts.Target),
	}

	if _, err := os.Stat(binary.Path); err != nil {
		return nil, fmt.Errorf("compiler produced no output at %s: %w", binary.Path, dist.ErrCompileFailed)
	}

	logger.InfoKV(ctx, "Compiled", "path", binary.Path)

	return binary, nil
}

// BinaryPath returns the target-exclusive output path the toolchain writes
// the executable to. Used directly when recompilation is skipped.
func BinaryPath(cfg *config.Config, target dist.Target) string {
	name := cfg.App.ExecutableName
	if target.OS == dist.OSWindows {
		name += ".exe"
	}

	return filepath.Join(cfg.SourceDir, "target", target.Triple, "release", name)
}

// ensureTargetInstalled checks the triple is installed when rustup is present.
// Hosts without rustup (distro toolchains) skip the check and let cargo report.
func ensureTargetInstalled(
	ctx context.Context,
	runner toolchain.Runner,
	probe toolchain.ProbeFunc,
	triple string,
) error {
	rustup := probe("rustup")
	if !rustup.Available {
		logger.Debug(ctx, "rustup not found, skipping installed-target check")
		return nil
	}

	out, err := runner.Output(ctx, "", rustup.Path, "target", "list", "--installed")
	if err != nil {
		return fmt.Errorf("list installed targets: %w", err)
	}

	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == triple {
			return nil
		}
	}

	return fmt.Errorf("target %s is not installed (rustup target add %s): %w",
		triple, triple, dist.ErrToolchainMissing)
}

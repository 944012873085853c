package sign

import (
	"context"
	"fmt"

	"github.com/multiinstance/dist-builder/internal/config"
	"github.com/multiinstance/dist-builder/internal/domain/dist"
	"github.com/multiinstance/dist-builder/internal/logger"
	"github.com/multiinstance/dist-builder/internal/toolchain"
)

// Options contains inputs for one signing pass.
type Options struct {
	// ContainerRoot is the assembled container to sign recursively.
	ContainerRoot string
	// Identity is the signing identity. config.AdHocIdentity for ad-hoc.
	Identity string
	// Runner executes external tools. Defaults to toolchain.ExecRunner.
	Runner toolchain.Runner
	// Probe resolves tool availability. Defaults to toolchain.Probe.
	Probe toolchain.ProbeFunc
}

// Run signs the container recursively. It fails with
// dist.ErrSigningUnavailable when no signing tool is present.
func Run(ctx context.Context, opts *Options) error {
	runner := opts.Runner
	if runner == nil {
		runner = toolchain.ExecRunner{}
	}

	probe := opts.Probe
	if probe == nil {
		probe = toolchain.Probe
	}

	identity := opts.Identity
	if identity == "" {
		identity = config.AdHocIdentity
	}

	codesign := probe("codesign")
	if !codesign.Available {
		return fmt.Errorf("codesign not found on PATH: %w", dist.ErrSigningUnavailable)
	}

	logger.InfoKV(ctx, "Signing container", "root", opts.ContainerRoot, "identity", identity)

	err := runner.Run(ctx, "", codesign.Path,
		"--force", "--deep", "-s", identity, opts.ContainerRoot)
	if err != nil {
		return fmt.Errorf("codesign: %w", err)
	}

	return nil
}

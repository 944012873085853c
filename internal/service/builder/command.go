package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/multiinstance/dist-builder/internal/config"
	"github.com/multiinstance/dist-builder/internal/domain/dist"
	"github.com/multiinstance/dist-builder/internal/logger"
	"github.com/multiinstance/dist-builder/internal/service/bundle"
	"github.com/multiinstance/dist-builder/internal/service/compiler"
	"github.com/multiinstance/dist-builder/internal/service/icon"
	"github.com/multiinstance/dist-builder/internal/service/producer"
	"github.com/multiinstance/dist-builder/internal/service/sign"
	"github.com/multiinstance/dist-builder/internal/service/universal"
	"github.com/multiinstance/dist-builder/internal/toolchain"
)

// Options contains inputs for one orchestrator invocation.
type Options struct {
	// Config is the validated build manifest.
	Config *config.Config
	// Platforms are the OS runs to execute, in order. Runs are independent.
	Platforms []dist.OS
	// Arches restricts compilation to the listed architectures.
	// Empty selects the platform default.
	Arches []dist.Arch
	// Universal requests a multi-architecture merge on platforms that
	// support it.
	Universal bool
	// Installer additionally produces the installer executable on Windows.
	Installer bool
	// SkipCompile packages existing binaries without recompiling.
	SkipCompile bool
	// Runner executes external tools. Defaults to toolchain.ExecRunner.
	Runner toolchain.Runner
	// Probe resolves tool availability. Defaults to toolchain.Probe.
	Probe toolchain.ProbeFunc
}

// Result aggregates the status records of all platform runs.
type Result struct {
	// Statuses holds one record per requested platform, in request order.
	Statuses []*dist.RunStatus
}

// ExitCode maps the run outcomes to the CLI contract:
// 0 full success, 1 fatal failure, 2 partial success.
func (r *Result) ExitCode() int {
	code := 0

	for _, status := range r.Statuses {
		if status.Fatal() {
			return 1
		}

		if status.Partial() {
			code = 2
		}
	}

	return code
}

var (
	// errNoPlatforms is returned when no platform run was requested.
	errNoPlatforms = errors.New("no platforms requested")
	// errUniversalUnsupported is returned when a universal binary is requested
	// for a platform with a single supported architecture.
	errUniversalUnsupported = errors.New("universal binary is not supported for this platform")
	// errMultiArchNeedsUniversal is returned when several architectures are
	// requested without a merge, since the container embeds one executable.
	errMultiArchNeedsUniversal = errors.New("multiple architectures require a universal merge")
	// errUnknownArch is returned when a requested architecture has no target.
	errUnknownArch = errors.New("unsupported architecture for platform")
)

// Run executes one pipeline invocation covering all requested platforms and
// returns their status records. Per-platform failures are captured in the
// records; the returned error covers invalid inputs only.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, "dist-builder")

	if err := config.Validate(opts.Config); err != nil {
		return nil, err
	}

	if len(opts.Platforms) == 0 {
		return nil, errNoPlatforms
	}

	if opts.Runner == nil {
		opts.Runner = toolchain.ExecRunner{}
	}

	if opts.Probe == nil {
		opts.Probe = toolchain.Probe
	}

	result := &Result{Statuses: make([]*dist.RunStatus, 0, len(opts.Platforms))}

	for _, platform := range opts.Platforms {
		// Runs are isolated: a fatal failure here must not stop the next one.
		status := runPlatform(ctx, opts, platform)
		result.Statuses = append(result.Statuses, status)

		logSummary(ctx, status)
	}

	return result, nil
}

// runPlatform drives the state machine for one platform run.
func runPlatform(ctx context.Context, opts *Options, platform dist.OS) *dist.RunStatus {
	status := dist.NewRunStatus(platform)
	ctx = logger.WithKV(logger.WithName(ctx, platform.Label()), "run_id", status.RunID.String())

	targets, err := resolveTargets(opts, platform)
	if err != nil {
		status.Fail(err)
		return status
	}

	outputDir := filepath.Join(opts.Config.OutputRoot, platform.Label())

	release, err := acquireOutputLock(ctx, outputDir)
	if err != nil {
		status.Fail(err)
		return status
	}

	defer release()

	// advance checks cancellation between stages before moving on.
	advance := func(next dist.Stage) bool {
		if err := ctx.Err(); err != nil {
			status.Fail(err)
			return false
		}

		if err := status.Advance(next); err != nil {
			status.Fail(err)
			return false
		}

		return true
	}

	if !advance(dist.StageCompiling) {
		return status
	}

	binaries, err := compileAll(ctx, opts, targets)
	if err != nil {
		status.Fail(err)
		return status
	}

	executablePath := binaries[0].Path
	archLabel := binaries[0].Target.Arch.Label()

	if len(binaries) > 1 {
		if !advance(dist.StageMerging) {
			return status
		}

		merged, err := universal.Run(ctx, &universal.Options{
			Inputs:     binaries,
			OutputPath: filepath.Join(outputDir, "bin", opts.Config.App.ExecutableName),
			Runner:     opts.Runner,
			Probe:      opts.Probe,
		})
		if err != nil {
			status.Fail(err)
			return status
		}

		executablePath = merged.Path
		archLabel = "universal"
	}

	if !advance(dist.StagePackaging) {
		return status
	}

	// The icon is rendered into a scratch directory and copied into the
	// container, so the output root holds only the container and distributables.
	scratch, err := os.MkdirTemp("", "dist-builder-*")
	if err != nil {
		status.Fail(fmt.Errorf("create scratch directory: %w", err))
		return status
	}

	defer func() {
		_ = os.RemoveAll(scratch)
	}()

	iconPath := buildIcon(ctx, opts, platform, scratch, status)
	if status.Fatal() {
		return status
	}

	container, err := bundle.Run(ctx, &bundle.Options{
		Config:         opts.Config,
		Platform:       platform,
		ExecutablePath: executablePath,
		IconPath:       iconPath,
		OutputDir:      outputDir,
	})
	if err != nil {
		status.Fail(err)
		return status
	}

	if !advance(dist.StageSigning) {
		return status
	}

	signContainer(ctx, opts, platform, container, status)

	if status.Fatal() {
		return status
	}

	if !advance(dist.StageProducing) {
		return status
	}

	produce(ctx, opts, platform, container, archLabel, outputDir, status)

	if status.Fatal() {
		return status
	}

	if err := status.Advance(dist.StageDone); err != nil {
		status.Fail(err)
	}

	return status
}

// resolveTargets maps the requested architectures to the platform's targets.
func resolveTargets(opts *Options, platform dist.OS) ([]dist.Target, error) {
	supported := dist.TargetsFor(platform)

	if opts.Universal {
		if len(supported) < 2 {
			return nil, fmt.Errorf("%s: %w", platform, errUniversalUnsupported)
		}

		return supported, nil
	}

	arches := opts.Arches
	if len(arches) == 0 {
		arches = []dist.Arch{defaultArch(platform)}
	}

	targets := make([]dist.Target, 0, len(arches))

	for _, arch := range arches {
		target, ok := dist.LookupTarget(platform, arch)
		if !ok {
			return nil, fmt.Errorf("%s/%s: %w", platform, arch, errUnknownArch)
		}

		targets = append(targets, target)
	}

	if len(targets) > 1 {
		return nil, errMultiArchNeedsUniversal
	}

	return targets, nil
}

// defaultArch picks the architecture built when none is requested.
func defaultArch(platform dist.OS) dist.Arch {
	if platform == dist.OSDarwin && runtime.GOARCH == "arm64" {
		return dist.ArchARM64
	}

	if platform == dist.OSDarwin {
		return dist.ArchAMD64
	}

	return dist.ArchAMD64
}

// compileAll builds every target, in parallel when more than one is
// requested. Target output paths never collide, one directory per triple.
func compileAll(ctx context.Context, opts *Options, targets []dist.Target) ([]dist.CompiledBinary, error) {
	binaries := make([]dist.CompiledBinary, len(targets))

	if opts.SkipCompile {
		for i, target := range targets {
			binaries[i] = dist.CompiledBinary{
				Target: target,
				Path:   compiler.BinaryPath(opts.Config, target),
			}
		}

		return binaries, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)

	for i, target := range targets {
		i, target := i, target
		group.Go(func() error {
			binary, err := compiler.Run(groupCtx, &compiler.Options{
				Config: opts.Config,
				Target: target,
				Runner: opts.Runner,
				Probe:  opts.Probe,
			})
			if err != nil {
				return err
			}

			binaries[i] = *binary

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return binaries, nil
}

// buildIcon runs the optional icon conversion, rendering into scratch.
// Absence of a source or converter degrades to a recorded warning unless the
// manifest marks the icon required, in which case the run fails.
func buildIcon(ctx context.Context, opts *Options, platform dist.OS, scratch string, status *dist.RunStatus) string {
	cfg := opts.Config

	degrade := func(err error) string {
		if cfg.Icon.Required {
			status.Fail(err)
			return ""
		}

		status.Warn(fmt.Sprintf("no icon embedded: %v", err))
		logger.WarnKV(ctx, "Continuing without icon", "reason", err.Error())

		return ""
	}

	if cfg.Icon.Source == "" {
		return degrade(errors.New("no icon source configured"))
	}

	format := dist.IconICNS
	outputName := "AppIcon.icns"

	if platform == dist.OSWindows {
		format = dist.IconICO
		outputName = "app.ico"
	}

	asset, err := icon.Run(ctx, &icon.Options{
		SourcePath: cfg.Icon.Source,
		Format:     format,
		OutputPath: filepath.Join(scratch, outputName),
		Runner:     opts.Runner,
		Probe:      opts.Probe,
	})
	if err != nil {
		return degrade(err)
	}

	return asset.Path
}

// signContainer applies the trust signature where the platform has a signer.
// Failures degrade to warnings unless the manifest marks signing required.
func signContainer(ctx context.Context, opts *Options, platform dist.OS, container *dist.Container, status *dist.RunStatus) {
	if platform != dist.OSDarwin {
		logger.Debug(ctx, "No signer for platform, skipping")
		return
	}

	err := sign.Run(ctx, &sign.Options{
		ContainerRoot: container.Root,
		Identity:      opts.Config.Signing.Identity,
		Runner:        opts.Runner,
		Probe:         opts.Probe,
	})
	if err == nil {
		return
	}

	if opts.Config.Signing.Required {
		status.Fail(err)
		return
	}

	status.Warn(fmt.Sprintf("container left unsigned: %v", err))
	logger.WarnKV(ctx, "Continuing with unsigned container", "reason", err.Error())
}

// produce runs the archive, installer, and manifest sub-steps. Each sub-step
// fails independently and degrades to a warning; the run keeps going so a
// missing installer tool never discards an already-built archive.
func produce(
	ctx context.Context,
	opts *Options,
	platform dist.OS,
	container *dist.Container,
	archLabel, outputDir string,
	status *dist.RunStatus,
) {
	archive, err := producer.BuildArchive(ctx, &producer.ArchiveOptions{
		Config:    opts.Config,
		Platform:  platform,
		ArchLabel: archLabel,
		Payload:   container.Root,
		OutputDir: outputDir,
	})
	if err != nil {
		status.Warn(fmt.Sprintf("portable archive not produced: %v", err))
		logger.WarnKV(ctx, "Portable archive failed", "reason", err.Error())
	} else {
		status.AddArtifact(*archive)
	}

	if opts.Installer && platform == dist.OSWindows {
		installer, err := producer.BuildInstaller(ctx, &producer.InstallerOptions{
			Config:    opts.Config,
			SourceDir: container.Root,
			OutputDir: outputDir,
			Runner:    opts.Runner,
			Probe:     opts.Probe,
		})
		if err != nil {
			status.Warn(fmt.Sprintf("installer not produced: %v", err))
			logger.WarnKV(ctx, "Installer generation failed", "reason", err.Error())
		} else {
			status.AddArtifact(*installer)
		}
	}

	if len(status.Artifacts) == 0 {
		return
	}

	manifest, err := producer.WriteManifest(ctx,
		opts.Config.App.Name, opts.Config.App.Version, platform, outputDir, status.Artifacts)
	if err != nil {
		status.Warn(fmt.Sprintf("release manifest not written: %v", err))
		logger.WarnKV(ctx, "Release manifest failed", "reason", err.Error())

		return
	}

	status.AddArtifact(*manifest)
}

// logSummary prints the structured per-platform outcome: stage reached,
// fatal error if any, and the list of warnings and artifacts.
func logSummary(ctx context.Context, status *dist.RunStatus) {
	// The summary prints even when console logging is raised above info.
	ctx = logger.AtLevel(ctx, zapcore.InfoLevel)

	paths := make([]string, 0, len(status.Artifacts))
	for _, artifact := range status.Artifacts {
		paths = append(paths, artifact.Path)
	}

	if status.Fatal() {
		logger.ErrorKV(ctx, "Platform run failed",
			"platform", status.Platform.Label(),
			"run_id", status.RunID.String(),
			"failed_stage", string(status.FailedStage),
			"error", status.Err.Error(),
			"warnings", status.Warnings,
		)

		return
	}

	logger.InfoKV(ctx, "Platform run completed",
		"platform", status.Platform.Label(),
		"run_id", status.RunID.String(),
		"stage", string(status.Stage),
		"warnings", status.Warnings,
		"artifacts", paths,
	)
}

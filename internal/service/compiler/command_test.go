package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/multiinstance/dist-builder/internal/config"
	"github.com/multiinstance/dist-builder/internal/domain/dist"
	"github.com/multiinstance/dist-builder/internal/toolchain"
)

// fakeCargo emulates the compiler and, optionally, the target manager.
type fakeCargo struct {
	// buildErr is returned by cargo build.
	buildErr error
	// writeOutput makes the build produce the expected binary on disk.
	writeOutput bool
	// installed is the list printed by the target manager.
	installed string
	// cfg and target locate the output path.
	cfg    *config.Config
	target dist.Target
}

func (f *fakeCargo) Run(_ context.Context, _, _ string, _ ...string) error {
	if f.buildErr != nil {
		return f.buildErr
	}

	if !f.writeOutput {
		return nil
	}

	path := BinaryPath(f.cfg, f.target)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, []byte("machine code"), 0o755)
}

func (f *fakeCargo) Output(_ context.Context, _, _ string, _ ...string) (string, error) {
	return f.installed, nil
}

// toolsProbe reports only the listed tools as available.
func toolsProbe(names ...string) toolchain.ProbeFunc {
	return func(name string) toolchain.Capability {
		for _, known := range names {
			if name == known {
				return toolchain.Capability{Name: name, Path: "/usr/bin/" + name, Available: true}
			}
		}

		return toolchain.Capability{Name: name}
	}
}

// testConfig returns a validated manifest rooted in a temp directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		App: config.App{
			Name:     "MultiInstance",
			BundleID: "com.multiinstance.app",
			Version:  "1.0.0",
		},
		SourceDir: t.TempDir(),
	}
	require.NoError(t, config.Validate(cfg))

	return cfg
}

// TestRunCompiles builds a target and returns the binary at the triple path.
func TestRunCompiles(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	target, _ := dist.LookupTarget(dist.OSDarwin, dist.ArchARM64)

	binary, err := Run(context.Background(), &Options{
		Config: cfg,
		Target: target,
		Runner: &fakeCargo{writeOutput: true, cfg: cfg, target: target},
		Probe:  toolsProbe("cargo"),
	})
	require.NoError(t, err)
	require.Equal(t, target, binary.Target)
	require.Equal(t, BinaryPath(cfg, target), binary.Path)
	require.FileExists(t, binary.Path)
}

// TestRunCargoMissing fails before invoking anything.
func TestRunCargoMissing(t *testing.T) {
	t.Parallel()

	target, _ := dist.LookupTarget(dist.OSDarwin, dist.ArchARM64)

	_, err := Run(context.Background(), &Options{
		Config: testConfig(t),
		Target: target,
		Runner: &fakeCargo{},
		Probe:  toolsProbe(),
	})
	require.ErrorIs(t, err, dist.ErrToolchainMissing)
}

// TestRunCompileFailure surfaces the compiler error behind the sentinel.
func TestRunCompileFailure(t *testing.T) {
	t.Parallel()

	target, _ := dist.LookupTarget(dist.OSWindows, dist.ArchAMD64)
	cause := errors.New("error[E0432]: unresolved import")

	_, err := Run(context.Background(), &Options{
		Config: testConfig(t),
		Target: target,
		Runner: &fakeCargo{buildErr: cause},
		Probe:  toolsProbe("cargo"),
	})
	require.ErrorIs(t, err, dist.ErrCompileFailed)
	require.ErrorIs(t, err, cause)
}

// TestRunNoOutput fails when the build succeeds but leaves no binary behind.
func TestRunNoOutput(t *testing.T) {
	t.Parallel()

	target, _ := dist.LookupTarget(dist.OSDarwin, dist.ArchAMD64)

	_, err := Run(context.Background(), &Options{
		Config: testConfig(t),
		Target: target,
		Runner: &fakeCargo{},
		Probe:  toolsProbe("cargo"),
	})
	require.ErrorIs(t, err, dist.ErrCompileFailed)
}

// TestRunTargetNotInstalled consults the target manager when present.
func TestRunTargetNotInstalled(t *testing.T) {
	t.Parallel()

	target, _ := dist.LookupTarget(dist.OSDarwin, dist.ArchARM64)

	_, err := Run(context.Background(), &Options{
		Config: testConfig(t),
		Target: target,
		Runner: &fakeCargo{installed: "x86_64-unknown-linux-gnu\n"},
		Probe:  toolsProbe("cargo", "rustup"),
	})
	require.ErrorIs(t, err, dist.ErrToolchainMissing)
	require.Contains(t, err.Error(), "rustup target add "+target.Triple)
}

// TestRunTargetInstalled passes the check when the triple is listed.
func TestRunTargetInstalled(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	target, _ := dist.LookupTarget(dist.OSDarwin, dist.ArchARM64)

	_, err := Run(context.Background(), &Options{
		Config: cfg,
		Target: target,
		Runner: &fakeCargo{
			writeOutput: true,
			cfg:         cfg,
			target:      target,
			installed:   target.Triple + "\nx86_64-apple-darwin\n",
		},
		Probe: toolsProbe("cargo", "rustup"),
	})
	require.NoError(t, err)
}

// TestBinaryPath appends the platform executable suffix.
func TestBinaryPath(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)

	darwin, _ := dist.LookupTarget(dist.OSDarwin, dist.ArchARM64)
	windows, _ := dist.LookupTarget(dist.OSWindows, dist.ArchAMD64)

	require.Equal(t,
		filepath.Join(cfg.SourceDir, "target", darwin.Triple, "release", "multiinstance"),
		BinaryPath(cfg, darwin))
	require.Equal(t,
		filepath.Join(cfg.SourceDir, "target", windows.Triple, "release", "multiinstance.exe"),
		BinaryPath(cfg, windows))
}

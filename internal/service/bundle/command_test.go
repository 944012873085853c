package bundle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/multiinstance/dist-builder/internal/config"
	"github.com/multiinstance/dist-builder/internal/domain/dist"
)

// testConfig returns a validated manifest for container tests.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		App: config.App{
			Name:     "MultiInstance",
			BundleID: "com.multiinstance.app",
			Version:  "1.0.0",
		},
	}
	require.NoError(t, config.Validate(cfg))

	return cfg
}

// writeExecutable creates a placeholder compiled binary.
func writeExecutable(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "multiinstance")
	require.NoError(t, os.WriteFile(path, []byte("machine code"), 0o755))

	return path
}

// TestRunDarwinContainer assembles the .app skeleton with verbatim metadata.
func TestRunDarwinContainer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outputDir := filepath.Join(dir, "out")

	container, err := Run(context.Background(), &Options{
		Config:         testConfig(t),
		Platform:       dist.OSDarwin,
		ExecutablePath: writeExecutable(t, dir),
		OutputDir:      outputDir,
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outputDir, "MultiInstance.app"), container.Root)

	// Executable is present and runnable.
	info, err := os.Stat(container.ExecutablePath)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0o111)

	// Metadata slot carries the manifest values unaltered.
	plist, err := os.ReadFile(container.MetadataPath)
	require.NoError(t, err)
	require.Contains(t, string(plist), "<string>MultiInstance</string>")
	require.Contains(t, string(plist), "<string>1.0.0</string>")
	require.Contains(t, string(plist), "<string>com.multiinstance.app</string>")

	// No icon was provided, so none is referenced.
	require.Empty(t, container.IconPath)
	require.NotContains(t, string(plist), "CFBundleIconFile")
}

// TestRunDarwinContainerWithIcon embeds the icns resource and references it.
func TestRunDarwinContainerWithIcon(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	icon := filepath.Join(dir, "AppIcon.icns")
	require.NoError(t, os.WriteFile(icon, []byte("icns"), 0o644))

	container, err := Run(context.Background(), &Options{
		Config:         testConfig(t),
		Platform:       dist.OSDarwin,
		ExecutablePath: writeExecutable(t, dir),
		IconPath:       icon,
		OutputDir:      filepath.Join(dir, "out"),
	})
	require.NoError(t, err)
	require.FileExists(t, container.IconPath)

	plist, err := os.ReadFile(container.MetadataPath)
	require.NoError(t, err)
	require.Contains(t, string(plist), "CFBundleIconFile")
	require.Contains(t, string(plist), "<string>AppIcon</string>")
}

// TestRunWindowsContainer lays out the flat distribution directory.
func TestRunWindowsContainer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	container, err := Run(context.Background(), &Options{
		Config:         testConfig(t),
		Platform:       dist.OSWindows,
		ExecutablePath: writeExecutable(t, dir),
		OutputDir:      filepath.Join(dir, "out"),
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "out", "MultiInstance"), container.Root)
	require.FileExists(t, filepath.Join(container.Root, "multiinstance.exe"))

	raw, err := os.ReadFile(container.MetadataPath)
	require.NoError(t, err)

	var metadata windowsMetadata

	require.NoError(t, yaml.Unmarshal(raw, &metadata))
	require.Equal(t, "MultiInstance", metadata.Name)
	require.Equal(t, "1.0.0", metadata.Version)
	require.Equal(t, "com.multiinstance.app", metadata.BundleID)
}

// TestRunIdempotent produces byte-for-byte identical contents on rerun.
func TestRunIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	executable := writeExecutable(t, dir)
	outputDir := filepath.Join(dir, "out")
	cfg := testConfig(t)

	read := func(root string) map[string]string {
		contents := map[string]string{}

		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return err
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			relative, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}

			contents[relative] = string(raw)

			return nil
		})
		require.NoError(t, err)

		return contents
	}

	opts := &Options{
		Config:         cfg,
		Platform:       dist.OSDarwin,
		ExecutablePath: executable,
		OutputDir:      outputDir,
	}

	first, err := Run(context.Background(), opts)
	require.NoError(t, err)

	firstContents := read(first.Root)

	second, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, firstContents, read(second.Root))
}

// TestRunExecutableMissing fails before touching the output path.
func TestRunExecutableMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := Run(context.Background(), &Options{
		Config:         testConfig(t),
		Platform:       dist.OSDarwin,
		ExecutablePath: filepath.Join(dir, "absent"),
		OutputDir:      filepath.Join(dir, "out"),
	})
	require.ErrorIs(t, err, dist.ErrExecutableMissing)
}

// TestRunDestroysPriorContainer removes whatever occupied the output path.
func TestRunDestroysPriorContainer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outputDir := filepath.Join(dir, "out")
	stale := filepath.Join(outputDir, "MultiInstance.app", "Contents", "leftover")
	require.NoError(t, os.MkdirAll(stale, 0o755))

	container, err := Run(context.Background(), &Options{
		Config:         testConfig(t),
		Platform:       dist.OSDarwin,
		ExecutablePath: writeExecutable(t, dir),
		OutputDir:      outputDir,
	})
	require.NoError(t, err)
	require.NoDirExists(t, filepath.Join(container.Root, "Contents", "leftover"))
}

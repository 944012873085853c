package bundle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/multiinstance/dist-builder/internal/config"
	"github.com/multiinstance/dist-builder/internal/domain/dist"
	"github.com/multiinstance/dist-builder/internal/logger"
)

// Options contains inputs for one container assembly.
type Options struct {
	// Config is the build manifest supplying the metadata descriptor.
	Config *config.Config
	// Platform selects the container convention to assemble.
	Platform dist.OS
	// ExecutablePath is the compiled (or universal) binary to embed.
	ExecutablePath string
	// IconPath is the finished icon container to embed. Empty for none.
	IconPath string
	// OutputDir is the directory the container is created under.
	OutputDir string
}

const (
	// executableMode is the permission applied to the embedded binary.
	executableMode os.FileMode = 0o755

	// windowsMetadataFilename is the metadata slot of the Windows container.
	windowsMetadataFilename = "app.yaml"

	// macIconResource is the icon resource name inside the macOS bundle.
	macIconResource = "AppIcon.icns"
)

// windowsMetadata is the metadata descriptor written into the Windows
// container's metadata slot.
type windowsMetadata struct {
	// Name is the application display name.
	Name string `yaml:"name"`
	// BundleID is the application identifier.
	BundleID string `yaml:"bundle_id"`
	// Version is the release version string, verbatim.
	Version string `yaml:"version"`
	// MinOSVersion is the minimum supported OS version.
	MinOSVersion string `yaml:"min_os_version"`
	// Publisher is the vendor name.
	Publisher string `yaml:"publisher"`
}

// Run assembles the application container. Any pre-existing container at the
// output path is destroyed first, so re-running is idempotent. On failure the
// partial output is removed; callers never observe a half-written container.
func Run(ctx context.Context, opts *Options) (*dist.Container, error) {
	if _, err := os.Stat(opts.ExecutablePath); err != nil {
		return nil, fmt.Errorf("%s: %w", opts.ExecutablePath, dist.ErrExecutableMissing)
	}

	root := containerRoot(opts)

	if err := os.RemoveAll(root); err != nil {
		return nil, fmt.Errorf("destroy previous container: %w", err)
	}

	logger.InfoKV(ctx, "Assembling container", "root", root)

	var (
		container *dist.Container
		err       error
	)

	switch opts.Platform {
	case dist.OSDarwin:
		container, err = assembleDarwin(root, opts)
	case dist.OSWindows:
		container, err = assembleWindows(root, opts)
	default:
		err = fmt.Errorf("no container convention for platform %q", opts.Platform)
	}

	if err != nil {
		// Leave the destroyed prior state, not a partial container.
		_ = os.RemoveAll(root)

		return nil, err
	}

	return container, nil
}

// containerRoot returns the canonical container path for the platform.
func containerRoot(opts *Options) string {
	if opts.Platform == dist.OSDarwin {
		return filepath.Join(opts.OutputDir, opts.Config.App.Name+".app")
	}

	return filepath.Join(opts.OutputDir, opts.Config.App.Name)
}

// assembleDarwin builds the .app skeleton: Contents/MacOS for the executable,
// Contents/Info.plist for metadata, Contents/Resources for the icon.
func assembleDarwin(root string, opts *Options) (*dist.Container, error) {
	app := opts.Config.App

	macOSDir := filepath.Join(root, "Contents", "MacOS")
	resourcesDir := filepath.Join(root, "Contents", "Resources")

	for _, dir := range []string{macOSDir, resourcesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create skeleton: %w", err)
		}
	}

	executable := filepath.Join(macOSDir, app.ExecutableName)
	if err := copyFile(opts.ExecutablePath, executable, executableMode); err != nil {
		return nil, fmt.Errorf("embed executable: %w", err)
	}

	iconPath := ""
	iconFile := ""

	if opts.IconPath != "" {
		iconPath = filepath.Join(resourcesDir, macIconResource)
		iconFile = macIconResource

		if err := copyFile(opts.IconPath, iconPath, 0o644); err != nil {
			return nil, fmt.Errorf("embed icon: %w", err)
		}
	}

	metadataPath := filepath.Join(root, "Contents", "Info.plist")

	var buf bytes.Buffer

	err := infoPlistTemplate.Execute(&buf, plistData{
		Name:           app.Name,
		ExecutableName: app.ExecutableName,
		BundleID:       app.BundleID,
		Version:        app.Version,
		MinOSVersion:   app.MinOSVersion,
		IconFile:       iconFile,
	})
	if err != nil {
		return nil, fmt.Errorf("render Info.plist: %w: %w", dist.ErrMetadataWriteFailed, err)
	}

	if err := os.WriteFile(metadataPath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write Info.plist: %w: %w", dist.ErrMetadataWriteFailed, err)
	}

	return &dist.Container{
		Root:           root,
		ExecutablePath: executable,
		MetadataPath:   metadataPath,
		IconPath:       iconPath,
		BundleID:       app.BundleID,
		Version:        app.Version,
	}, nil
}

// assembleWindows lays out the flat distribution directory Windows uses in
// place of a bundle: executable, YAML metadata slot, and the ico resource.
func assembleWindows(root string, opts *Options) (*dist.Container, error) {
	app := opts.Config.App

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create skeleton: %w", err)
	}

	executable := filepath.Join(root, app.ExecutableName+".exe")
	if err := copyFile(opts.ExecutablePath, executable, executableMode); err != nil {
		return nil, fmt.Errorf("embed executable: %w", err)
	}

	iconPath := ""
	if opts.IconPath != "" {
		iconPath = filepath.Join(root, "app.ico")

		if err := copyFile(opts.IconPath, iconPath, 0o644); err != nil {
			return nil, fmt.Errorf("embed icon: %w", err)
		}
	}

	metadataPath := filepath.Join(root, windowsMetadataFilename)

	data, err := yaml.Marshal(windowsMetadata{
		Name:         app.Name,
		BundleID:     app.BundleID,
		Version:      app.Version,
		MinOSVersion: app.MinOSVersion,
		Publisher:    app.Publisher,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w: %w", dist.ErrMetadataWriteFailed, err)
	}

	if err := os.WriteFile(metadataPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write metadata: %w: %w", dist.ErrMetadataWriteFailed, err)
	}

	return &dist.Container{
		Root:           root,
		ExecutablePath: executable,
		MetadataPath:   metadataPath,
		IconPath:       iconPath,
		BundleID:       app.BundleID,
		Version:        app.Version,
	}, nil
}

// copyFile copies src to dst with the provided permissions.
func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}

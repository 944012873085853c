package producer

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/multiinstance/dist-builder/internal/config"
	"github.com/multiinstance/dist-builder/internal/domain/dist"
	"github.com/multiinstance/dist-builder/internal/logger"
)

// ArchiveOptions contains inputs for the portable-archive variant.
type ArchiveOptions struct {
	// Config is the build manifest.
	Config *config.Config
	// Platform is the OS the archive targets.
	Platform dist.OS
	// ArchLabel is the architecture tag used in the artifact name
	// ("universal", "arm64", "x64").
	ArchLabel string
	// Payload is the container root (macOS .app) or distribution directory.
	Payload string
	// OutputDir is where the archive is written.
	OutputDir string
}

// BuildArchive stages the payload with the manifest's auxiliary files and
// compresses the staging directory into a single versioned zip. A missing
// required auxiliary file fails with dist.ErrStagingFailed; archiver errors
// fail with dist.ErrCompressionFailed. The prior archive at the same path is
// overwritten.
func BuildArchive(ctx context.Context, opts *ArchiveOptions) (*dist.Artifact, error) {
	staging, err := os.MkdirTemp("", "dist-builder-stage-*")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w: %w", dist.ErrStagingFailed, err)
	}

	defer func() {
		_ = os.RemoveAll(staging)
	}()

	if err := stagePayload(opts.Payload, staging); err != nil {
		return nil, fmt.Errorf("stage payload: %w: %w", dist.ErrStagingFailed, err)
	}

	if err := stageAuxFiles(ctx, opts.Config, staging); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s-%s-%s-%s.zip",
		opts.Config.App.Name, opts.Config.App.Version, opts.Platform.Label(), opts.ArchLabel)
	archivePath := filepath.Join(opts.OutputDir, name)

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w: %w", dist.ErrCompressionFailed, err)
	}

	logger.InfoKV(ctx, "Compressing portable archive", "path", archivePath)

	if err := zipDirectory(staging, archivePath); err != nil {
		return nil, fmt.Errorf("%w: %w", dist.ErrCompressionFailed, err)
	}

	return &dist.Artifact{
		Kind:     dist.ArtifactPortableArchive,
		Path:     archivePath,
		Version:  opts.Config.App.Version,
		Platform: opts.Platform,
	}, nil
}

// stagePayload copies the payload file or directory into the staging root,
// preserving its base name.
func stagePayload(payload, staging string) error {
	info, err := os.Stat(payload)
	if err != nil {
		return err
	}

	dst := filepath.Join(staging, filepath.Base(payload))

	if info.IsDir() {
		return copyTree(payload, dst)
	}

	return copyPreservingMode(payload, dst, info.Mode())
}

// stageAuxFiles copies license/readme style files next to the payload.
// Optional files that are absent are skipped with a log line; required ones
// fail staging.
func stageAuxFiles(ctx context.Context, cfg *config.Config, staging string) error {
	for _, aux := range cfg.AuxFiles {
		src := aux.Path
		if !filepath.IsAbs(src) {
			src = filepath.Join(cfg.SourceDir, aux.Path)
		}

		info, err := os.Stat(src)

		switch {
		case errors.Is(err, os.ErrNotExist) && aux.Required:
			return fmt.Errorf("required file %s: %w: %w", aux.Path, dist.ErrStagingFailed, os.ErrNotExist)
		case err != nil:
			logger.WarnKV(ctx, "Skipping absent auxiliary file", "path", aux.Path)
			continue
		}

		if err := copyPreservingMode(src, filepath.Join(staging, filepath.Base(src)), info.Mode()); err != nil {
			return fmt.Errorf("stage %s: %w: %w", aux.Path, dist.ErrStagingFailed, err)
		}
	}

	return nil
}

// zipDirectory compresses the tree rooted at dir into a zip file at dst,
// preserving file modes through FileInfoHeader.
func zipDirectory(dir, dst string) error {
	out, err := os.Create(filepath.Clean(dst))
	if err != nil {
		return err
	}

	writer := zip.NewWriter(out)

	walkErr := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		relative, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}

		header.Name = filepath.ToSlash(relative)
		header.Method = zip.Deflate

		entry, err := writer.CreateHeader(header)
		if err != nil {
			return err
		}

		file, err := os.Open(filepath.Clean(path))
		if err != nil {
			return err
		}

		_, err = io.Copy(entry, file)
		_ = file.Close()

		return err
	})

	if walkErr != nil {
		_ = writer.Close()
		_ = out.Close()
		_ = os.Remove(dst)

		return walkErr
	}

	if err := writer.Close(); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}

// copyTree copies a directory recursively, preserving file modes.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relative, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, relative)

		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}

		return copyPreservingMode(path, target, info.Mode())
	})
}

// copyPreservingMode copies one file keeping its permission bits.
func copyPreservingMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}

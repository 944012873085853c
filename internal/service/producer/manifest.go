package producer

import (
	"context"
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/multiinstance/dist-builder/internal/domain/dist"
	"github.com/multiinstance/dist-builder/internal/logger"

	// Ensure SHA512 is available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// checksumFunction is used to hash release artifacts.
	checksumFunction crypto.Hash = crypto.SHA512

	// manifestFileMode is the permission for the written manifest.
	manifestFileMode os.FileMode = 0o644
)

var errHashUnavailable = errors.New("hash function unavailable")

// Manifest describes a published release: the version and a map of artifact
// filenames to base64-encoded checksums.
type Manifest struct {
	// Version is the release version.
	Version string `yaml:"version"`
	// Files maps artifact filenames to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// WriteManifest hashes the produced artifacts and writes the release manifest
// next to them. The manifest itself is returned as a checksum-manifest
// artifact.
func WriteManifest(
	ctx context.Context,
	appName, version string,
	platform dist.OS,
	outputDir string,
	artifacts []dist.Artifact,
) (*dist.Artifact, error) {
	manifest := &Manifest{
		Version: version,
		Files:   make(map[string]string, len(artifacts)),
	}

	for _, artifact := range artifacts {
		checksum, err := fileChecksum(artifact.Path)
		if err != nil {
			return nil, fmt.Errorf("checksum %s: %w", artifact.Path, err)
		}

		manifest.Files[filepath.Base(artifact.Path)] = base64.StdEncoding.EncodeToString(checksum)
	}

	contents, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}

	name := fmt.Sprintf("%s-%s-checksums.yaml", appName, version)
	path := filepath.Join(outputDir, name)

	if err := os.WriteFile(path, contents, manifestFileMode); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	logger.InfoKV(ctx, "Wrote release manifest", "path", path, "artifacts", len(artifacts))

	return &dist.Artifact{
		Kind:     dist.ArtifactChecksumManifest,
		Path:     path,
		Version:  version,
		Platform: platform,
	}, nil
}

// fileChecksum returns checksum bytes for a file using checksumFunction.
func fileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !checksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := checksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

package producer

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/multiinstance/dist-builder/internal/domain/dist"
)

// TestWriteManifest hashes artifacts and records them by filename.
func TestWriteManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "MultiInstance-1.0.0-windows-x64.zip")
	contents := []byte("zip bytes")
	require.NoError(t, os.WriteFile(archivePath, contents, 0o644))

	artifacts := []dist.Artifact{{
		Kind:     dist.ArtifactPortableArchive,
		Path:     archivePath,
		Version:  "1.0.0",
		Platform: dist.OSWindows,
	}}

	artifact, err := WriteManifest(context.Background(), "MultiInstance", "1.0.0", dist.OSWindows, dir, artifacts)
	require.NoError(t, err)
	require.Equal(t, dist.ArtifactChecksumManifest, artifact.Kind)
	require.Equal(t, filepath.Join(dir, "MultiInstance-1.0.0-checksums.yaml"), artifact.Path)

	raw, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)

	var manifest Manifest

	require.NoError(t, yaml.Unmarshal(raw, &manifest))
	require.Equal(t, "1.0.0", manifest.Version)

	sum := sha512.Sum512(contents)
	require.Equal(t,
		base64.StdEncoding.EncodeToString(sum[:]),
		manifest.Files["MultiInstance-1.0.0-windows-x64.zip"])
}

// TestWriteManifestMissingArtifact fails when an artifact cannot be read back.
func TestWriteManifestMissingArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	artifacts := []dist.Artifact{{
		Kind: dist.ArtifactPortableArchive,
		Path: filepath.Join(dir, "absent.zip"),
	}}

	_, err := WriteManifest(context.Background(), "MultiInstance", "1.0.0", dist.OSDarwin, dir, artifacts)
	require.Error(t, err)
}

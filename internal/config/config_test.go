package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// validConfig returns a minimal manifest that passes validation.
func validConfig() *Config {
	return &Config{
		App: App{
			Name:     "MultiInstance",
			BundleID: "com.multiinstance.app",
			Version:  "1.0.0",
		},
	}
}

// TestValidate checks required fields and version shape validation.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))

	// Missing name.
	cfg := &Config{}
	require.Error(t, Validate(cfg))

	// Missing bundle identifier.
	cfg = &Config{App: App{Name: "MultiInstance"}}
	require.Error(t, Validate(cfg))

	// Missing version.
	cfg = &Config{App: App{Name: "MultiInstance", BundleID: "com.multiinstance.app"}}
	require.Error(t, Validate(cfg))

	// Malformed version.
	cfg = validConfig()
	cfg.App.Version = "not-a-version"
	require.Error(t, Validate(cfg))

	require.NoError(t, Validate(validConfig()))
}

// TestValidateDefaults checks defaults are applied in place.
func TestValidateDefaults(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, Validate(cfg))

	require.Equal(t, "multiinstance", cfg.App.ExecutableName)
	require.Equal(t, DefaultMinOSVersion, cfg.App.MinOSVersion)
	require.Equal(t, "MultiInstance", cfg.App.Publisher)
	require.Equal(t, ".", cfg.SourceDir)
	require.Equal(t, "dist", cfg.OutputRoot)
	require.Equal(t, AdHocIdentity, cfg.Signing.Identity)
}

// TestSaveLoadRoundtrip ensures the manifest is persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "dist-builder.yaml")

	cfg := validConfig()
	cfg.Icon.Source = "resources/icon.svg"
	cfg.AuxFiles = []AuxFile{{Path: "LICENSE", Required: true}}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.App.Name, loaded.App.Name)
	require.Equal(t, cfg.App.Version, loaded.App.Version)
	require.Equal(t, cfg.Icon.Source, loaded.Icon.Source)
	require.Equal(t, cfg.AuxFiles, loaded.AuxFiles)
}

// TestLoadMissingFile fails cleanly when the manifest does not exist.
func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

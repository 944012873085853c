package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// App holds the application metadata embedded into produced containers.
type App struct {
	// Name is the display name of the application.
	Name string `yaml:"name"`
	// ExecutableName is the compiled binary's base name. Defaults to the
	// lowercased Name.
	ExecutableName string `yaml:"executable_name"`
	// BundleID is the reverse-DNS bundle identifier.
	BundleID string `yaml:"bundle_id"`
	// Version is the release version string, semantic-version shaped.
	Version string `yaml:"version"`
	// MinOSVersion is the minimum supported macOS version.
	MinOSVersion string `yaml:"min_os_version"`
	// Publisher is the vendor name shown by the installer.
	Publisher string `yaml:"publisher"`
}

// Icon configures the optional icon embedding step.
type Icon struct {
	// Source is the path to the vector source image. Empty disables icons.
	Source string `yaml:"source"`
	// Required promotes a missing source or converter to a fatal error.
	Required bool `yaml:"required"`
}

// Signing configures the trust signature step.
type Signing struct {
	// Identity is the signing identity. "-" selects ad-hoc signing.
	Identity string `yaml:"identity"`
	// Required promotes signing failure to fatal for release-intended builds.
	Required bool `yaml:"required"`
}

// Installer configures the installer-executable variant.
type Installer struct {
	// Startup registers the application to run at user login.
	Startup bool `yaml:"startup"`
}

// AuxFile is an auxiliary file shipped in the portable archive.
type AuxFile struct {
	// Path is the file location relative to the source directory.
	Path string `yaml:"path"`
	// Required makes the file's absence a staging failure instead of a warning.
	Required bool `yaml:"required"`
}

// Config is the build manifest shared by all pipeline stages.
type Config struct {
	// App is the application metadata.
	App App `yaml:"app"`
	// SourceDir is the root of the application source tree.
	SourceDir string `yaml:"source_dir"`
	// OutputRoot is the directory all artifacts are written under.
	OutputRoot string `yaml:"output_root"`
	// Icon configures icon embedding.
	Icon Icon `yaml:"icon"`
	// Signing configures the trust signature.
	Signing Signing `yaml:"signing"`
	// Installer configures installer generation.
	Installer Installer `yaml:"installer"`
	// AuxFiles are shipped alongside the executable in the portable archive.
	AuxFiles []AuxFile `yaml:"aux_files"`
}

const (
	// DefaultConfigFilename is the default build manifest filename.
	DefaultConfigFilename = "dist-builder.yaml"

	// DefaultMinOSVersion is the minimum macOS version declared when the
	// manifest does not set one.
	DefaultMinOSVersion = "11.0"

	// DefaultFilePermissions is the permission for written manifest files.
	DefaultFilePermissions = 0o600

	// AdHocIdentity is the codesign identity selecting an ad-hoc signature.
	AdHocIdentity = "-"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errAppNameRequired is returned when the application name is missing.
	errAppNameRequired = errors.New("app name must be provided")
	// errBundleIDRequired is returned when the bundle identifier is missing.
	errBundleIDRequired = errors.New("bundle identifier must be provided")
	// errVersionRequired is returned when the version is missing.
	errVersionRequired = errors.New("app version must be provided")
)

// Load reads the build manifest from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the build manifest to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// Validate checks required fields and applies defaults in place.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.App.Name == "" {
		return errAppNameRequired
	}

	if cfg.App.BundleID == "" {
		return errBundleIDRequired
	}

	if cfg.App.Version == "" {
		return errVersionRequired
	}

	// Shape check only. Containers receive the string verbatim.
	if _, err := semver.NewVersion(cfg.App.Version); err != nil {
		return fmt.Errorf("invalid app version %q: %w", cfg.App.Version, err)
	}

	if cfg.App.ExecutableName == "" {
		cfg.App.ExecutableName = strings.ToLower(cfg.App.Name)
	}

	if cfg.App.MinOSVersion == "" {
		cfg.App.MinOSVersion = DefaultMinOSVersion
	}

	if cfg.App.Publisher == "" {
		cfg.App.Publisher = cfg.App.Name
	}

	if cfg.SourceDir == "" {
		cfg.SourceDir = "."
	}

	if cfg.OutputRoot == "" {
		cfg.OutputRoot = "dist"
	}

	if cfg.Signing.Identity == "" {
		cfg.Signing.Identity = AdHocIdentity
	}

	return nil
}

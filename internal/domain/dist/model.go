package dist

// CompiledBinary is one architecture-specific executable produced by the
// compiler stage. It is created per build invocation and never mutated.
type CompiledBinary struct {
	// Target is the compilation unit that produced the binary.
	Target Target
	// Path is the absolute or build-relative path to the executable file.
	Path string
}

// UniversalBinary is a single executable containing slices for several
// architectures of the same OS.
type UniversalBinary struct {
	// Constituents are the merged binaries in merge order.
	Constituents []CompiledBinary
	// Path is the location of the merged executable.
	Path string
}

// Architectures returns the architecture of each constituent in order.
func (u *UniversalBinary) Architectures() []Arch {
	arches := make([]Arch, 0, len(u.Constituents))

	for _, c := range u.Constituents {
		arches = append(arches, c.Target.Arch)
	}

	return arches
}

// IconFormat identifies a platform icon container format.
type IconFormat string

const (
	// IconICNS is the macOS multi-resolution icon bundle.
	IconICNS IconFormat = "icns"
	// IconICO is the Windows multi-resolution single-file icon.
	IconICO IconFormat = "ico"
)

// IconSize is one required raster size in a platform's size matrix.
type IconSize struct {
	// Points is the nominal size in points (width and height are equal).
	Points int
	// Scale is the pixel density multiplier (1 or 2).
	Scale int
}

// Pixels returns the raster edge length in pixels.
func (s IconSize) Pixels() int {
	return s.Points * s.Scale
}

// MacIconSizes returns the size matrix required by the macOS icon bundle.
// The set is part of the format contract and must not be altered.
func MacIconSizes() []IconSize {
	points := []int{16, 32, 64, 128, 256, 512}
	sizes := make([]IconSize, 0, len(points)*2)

	for _, p := range points {
		sizes = append(sizes, IconSize{Points: p, Scale: 1}, IconSize{Points: p, Scale: 2})
	}

	return sizes
}

// WindowsIconSizes returns the pixel sizes required by the Windows ICO format.
// The set is part of the format contract and must not be altered.
func WindowsIconSizes() []int {
	return []int{16, 32, 48, 64, 128, 256}
}

// IconAsset is a finished platform icon container produced from a vector source.
type IconAsset struct {
	// SourcePath is the vector image the raster sizes were rendered from.
	SourcePath string
	// Format is the container format of the produced file.
	Format IconFormat
	// Path is the location of the produced icon container.
	Path string
}

// Container is an assembled platform-native application bundle.
type Container struct {
	// Root is the container's top-level directory.
	Root string
	// ExecutablePath is the executable inside the container.
	ExecutablePath string
	// MetadataPath is the canonical metadata slot inside the container.
	MetadataPath string
	// IconPath is the embedded icon, empty when no icon was provided.
	IconPath string
	// BundleID is the identifier declared in the metadata.
	BundleID string
	// Version is the version string declared in the metadata, verbatim.
	Version string
}

// ArtifactKind distinguishes terminal pipeline outputs.
type ArtifactKind string

const (
	// ArtifactPortableArchive is a compressed portable archive.
	ArtifactPortableArchive ArtifactKind = "portable-archive"
	// ArtifactInstaller is an installer executable.
	ArtifactInstaller ArtifactKind = "installer-executable"
	// ArtifactChecksumManifest is the release checksum manifest.
	ArtifactChecksumManifest ArtifactKind = "checksum-manifest"
)

// Artifact is a terminal distributable output written to a deterministic,
// versioned path. Re-running the pipeline overwrites it.
type Artifact struct {
	// Kind classifies the artifact.
	Kind ArtifactKind
	// Path is the artifact's location on disk.
	Path string
	// Version is the release version the artifact belongs to.
	Version string
	// Platform is the OS the artifact targets.
	Platform OS
}

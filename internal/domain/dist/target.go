package dist

import "fmt"

// OS identifies a desktop platform the pipeline can target.
type OS string

const (
	// OSDarwin is macOS.
	OSDarwin OS = "darwin"
	// OSWindows is Windows.
	OSWindows OS = "windows"
)

// Label returns the human-facing platform name used in artifact filenames
// and output directories.
func (o OS) Label() string {
	if o == OSDarwin {
		return "macos"
	}

	return string(o)
}

// Arch identifies a CPU architecture.
type Arch string

const (
	// ArchARM64 is 64-bit ARM (Apple Silicon).
	ArchARM64 Arch = "arm64"
	// ArchAMD64 is 64-bit x86.
	ArchAMD64 Arch = "amd64"
)

// LipoName returns the architecture tag as reported by lipo -archs.
func (a Arch) LipoName() string {
	if a == ArchAMD64 {
		return "x86_64"
	}

	return string(a)
}

// Label returns the architecture tag used in artifact filenames.
func (a Arch) Label() string {
	if a == ArchAMD64 {
		return "x64"
	}

	return string(a)
}

// Target identifies one (OS, architecture) compilation unit
// together with its toolchain triple.
type Target struct {
	// OS is the operating system this target produces binaries for.
	OS OS
	// Arch is the CPU architecture of the produced binary.
	Arch Arch
	// Triple is the toolchain target triple passed to the compiler.
	Triple string
}

// String renders the target as "os/arch" for logs and errors.
func (t Target) String() string {
	return fmt.Sprintf("%s/%s", t.OS, t.Arch)
}

// targets is the static enumeration of compilation units the pipeline supports.
//
//nolint:gochecknoglobals // Fixed target matrix, never mutated.
var targets = []Target{
	{OS: OSDarwin, Arch: ArchARM64, Triple: "aarch64-apple-darwin"},
	{OS: OSDarwin, Arch: ArchAMD64, Triple: "x86_64-apple-darwin"},
	{OS: OSWindows, Arch: ArchAMD64, Triple: "x86_64-pc-windows-msvc"},
}

// Targets returns a copy of the supported target enumeration.
func Targets() []Target {
	return append([]Target(nil), targets...)
}

// TargetsFor returns all supported targets for the provided OS.
func TargetsFor(os OS) []Target {
	result := make([]Target, 0, len(targets))

	for _, t := range targets {
		if t.OS == os {
			result = append(result, t)
		}
	}

	return result
}

// LookupTarget finds the target for an (OS, architecture) pair.
func LookupTarget(os OS, arch Arch) (Target, bool) {
	for _, t := range targets {
		if t.OS == os && t.Arch == arch {
			return t, true
		}
	}

	return Target{}, false
}

// ParseArch converts user input to an Arch, accepting common aliases.
func ParseArch(s string) (Arch, bool) {
	switch s {
	case "arm64", "aarch64":
		return ArchARM64, true
	case "amd64", "x64", "x86_64":
		return ArchAMD64, true
	default:
		return "", false
	}
}

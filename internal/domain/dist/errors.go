package dist

import "errors"

// Error taxonomy shared by all pipeline stages. Stages wrap these sentinels
// with fmt.Errorf("...: %w", ...) so callers can classify failures with
// errors.Is regardless of the wrapping detail.
var (
	// ErrToolchainMissing indicates the compiler or a required target is not installed.
	ErrToolchainMissing = errors.New("toolchain missing")
	// ErrCompileFailed indicates the compiler exited non-zero.
	ErrCompileFailed = errors.New("compile failed")
	// ErrMissingConstituent indicates a per-architecture binary required for a merge is absent.
	ErrMissingConstituent = errors.New("missing constituent binary")
	// ErrArchitectureMismatch indicates merge inputs do not target the same OS
	// or repeat an architecture.
	ErrArchitectureMismatch = errors.New("architecture mismatch")
	// ErrMergeVerificationFailed indicates the merged binary does not contain
	// exactly the requested architecture set.
	ErrMergeVerificationFailed = errors.New("merge verification failed")
	// ErrConverterUnavailable indicates no compatible rasterization tool was found.
	ErrConverterUnavailable = errors.New("icon converter unavailable")
	// ErrRasterizationFailed indicates an individual icon size conversion errored.
	ErrRasterizationFailed = errors.New("rasterization failed")
	// ErrExecutableMissing indicates the binary handed to the packager does not exist.
	ErrExecutableMissing = errors.New("executable missing")
	// ErrMetadataWriteFailed indicates the container metadata could not be serialized.
	ErrMetadataWriteFailed = errors.New("metadata write failed")
	// ErrStagingFailed indicates a required auxiliary file was missing during staging.
	ErrStagingFailed = errors.New("staging failed")
	// ErrCompressionFailed indicates the archiver errored.
	ErrCompressionFailed = errors.New("compression failed")
	// ErrInstallerToolMissing indicates the installer compiler is not installed.
	ErrInstallerToolMissing = errors.New("installer tool missing")
	// ErrInstallerCompileFailed indicates the installer compiler reported an error.
	ErrInstallerCompileFailed = errors.New("installer compile failed")
	// ErrSigningUnavailable indicates the signing tool is not present. Warning-class.
	ErrSigningUnavailable = errors.New("signing unavailable")
	// ErrOutputRootBusy indicates another build currently owns the output root.
	ErrOutputRootBusy = errors.New("output root is in use by another build")
)

package icon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/multiinstance/dist-builder/internal/domain/dist"
	"github.com/multiinstance/dist-builder/internal/logger"
	"github.com/multiinstance/dist-builder/internal/toolchain"
)

// Options contains inputs for one icon conversion.
type Options struct {
	// SourcePath is the vector source image.
	SourcePath string
	// Format selects the target container format.
	Format dist.IconFormat
	// OutputPath is where the icon container is written.
	OutputPath string
	// Runner executes external tools. Defaults to toolchain.ExecRunner.
	Runner toolchain.Runner
	// Probe resolves tool availability. Defaults to toolchain.Probe.
	Probe toolchain.ProbeFunc
}

// rasterizer renders a vector image to a PNG of the given pixel size.
type rasterizer struct {
	// name is the tool name probed for on the host.
	name string
	// args builds the tool's argument list for one conversion.
	args func(src, dst string, pixels int) []string
}

// rasterizers is the fixed preference order of interchangeable conversion
// tools. The first one present on the host wins.
//
//nolint:gochecknoglobals // Fixed fallback chain, never mutated.
var rasterizers = []rasterizer{
	{
		name: "rsvg-convert",
		args: func(src, dst string, pixels int) []string {
			px := strconv.Itoa(pixels)
			return []string{"-w", px, "-h", px, "-o", dst, src}
		},
	},
	{
		name: "inkscape",
		args: func(src, dst string, pixels int) []string {
			px := strconv.Itoa(pixels)
			return []string{"--export-type=png", "--export-filename=" + dst, "-w", px, "-h", px, src}
		},
	},
	{
		name: "magick",
		args: func(src, dst string, pixels int) []string {
			size := fmt.Sprintf("%dx%d", pixels, pixels)
			return []string{"-background", "none", src, "-resize", size, dst}
		},
	},
	{
		name: "convert",
		args: func(src, dst string, pixels int) []string {
			size := fmt.Sprintf("%dx%d", pixels, pixels)
			return []string{"-background", "none", src, "-resize", size, dst}
		},
	},
}

// Run renders the source vector into the platform's required size matrix and
// packs the container. It fails with dist.ErrConverterUnavailable when no
// rasterization tool is found, and dist.ErrRasterizationFailed when any
// individual size conversion errors.
func Run(ctx context.Context, opts *Options) (*dist.IconAsset, error) {
	runner := opts.Runner
	if runner == nil {
		runner = toolchain.ExecRunner{}
	}

	probe := opts.Probe
	if probe == nil {
		probe = toolchain.Probe
	}

	if _, err := os.Stat(opts.SourcePath); err != nil {
		return nil, fmt.Errorf("icon source %s: %w", opts.SourcePath, err)
	}

	tool, ok := pickRasterizer(probe)
	if !ok {
		return nil, fmt.Errorf("no rasterization tool found (tried rsvg-convert, inkscape, magick, convert): %w",
			dist.ErrConverterUnavailable)
	}

	logger.InfoKV(ctx, "Rendering icon", "tool", tool.capability.Name, "format", string(opts.Format))

	scratch, err := os.MkdirTemp("", "dist-builder-icon-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}

	// Scratch rasters are removed on success and failure alike.
	defer func() {
		_ = os.RemoveAll(scratch)
	}()

	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	switch opts.Format {
	case dist.IconICNS:
		err = buildICNS(ctx, runner, probe, tool, scratch, opts)
	case dist.IconICO:
		err = buildICO(ctx, runner, tool, scratch, opts)
	default:
		err = fmt.Errorf("unknown icon format %q: %w", opts.Format, dist.ErrConverterUnavailable)
	}

	if err != nil {
		return nil, err
	}

	return &dist.IconAsset{
		SourcePath: opts.SourcePath,
		Format:     opts.Format,
		Path:       opts.OutputPath,
	}, nil
}

// pickedRasterizer couples a chain entry with its resolved path.
type pickedRasterizer struct {
	rasterizer rasterizer
	capability toolchain.Capability
}

// pickRasterizer walks the fallback chain and returns the first available tool.
func pickRasterizer(probe toolchain.ProbeFunc) (pickedRasterizer, bool) {
	for _, r := range rasterizers {
		if c := probe(r.name); c.Available {
			return pickedRasterizer{rasterizer: r, capability: c}, true
		}
	}

	return pickedRasterizer{}, false
}

// render produces one PNG at the requested pixel size.
func render(ctx context.Context, runner toolchain.Runner, tool pickedRasterizer, src, dst string, pixels int) error {
	err := runner.Run(ctx, "", tool.capability.Path, tool.rasterizer.args(src, dst, pixels)...)
	if err != nil {
		return fmt.Errorf("render %dpx: %w: %w", pixels, dist.ErrRasterizationFailed, err)
	}

	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("render %dpx produced no output: %w", pixels, dist.ErrRasterizationFailed)
	}

	return nil
}

// buildICNS renders the macOS iconset size matrix and packs it with iconutil.
// Every size in the matrix is required; a missing size is a hard failure.
func buildICNS(
	ctx context.Context,
	runner toolchain.Runner,
	probe toolchain.ProbeFunc,
	tool pickedRasterizer,
	scratch string,
	opts *Options,
) error {
	iconutil := probe("iconutil")
	if !iconutil.Available {
		return fmt.Errorf("iconutil not found on PATH: %w", dist.ErrConverterUnavailable)
	}

	iconset := filepath.Join(scratch, "AppIcon.iconset")
	if err := os.Mkdir(iconset, 0o755); err != nil {
		return fmt.Errorf("create iconset: %w", err)
	}

	for _, size := range dist.MacIconSizes() {
		name := fmt.Sprintf("icon_%dx%d.png", size.Points, size.Points)
		if size.Scale == 2 {
			name = fmt.Sprintf("icon_%dx%d@2x.png", size.Points, size.Points)
		}

		dst := filepath.Join(iconset, name)
		if err := render(ctx, runner, tool, opts.SourcePath, dst, size.Pixels()); err != nil {
			return err
		}
	}

	err := runner.Run(ctx, "", iconutil.Path, "-c", "icns", "-o", opts.OutputPath, iconset)
	if err != nil {
		return fmt.Errorf("iconutil: %w: %w", dist.ErrRasterizationFailed, err)
	}

	return nil
}

// buildICO renders the Windows size matrix and writes the ICO container.
func buildICO(
	ctx context.Context,
	runner toolchain.Runner,
	tool pickedRasterizer,
	scratch string,
	opts *Options,
) error {
	entries := make([]icoEntry, 0, len(dist.WindowsIconSizes()))

	for _, pixels := range dist.WindowsIconSizes() {
		dst := filepath.Join(scratch, fmt.Sprintf("icon_%d.png", pixels))
		if err := render(ctx, runner, tool, opts.SourcePath, dst, pixels); err != nil {
			return err
		}

		data, err := os.ReadFile(dst) //nolint:gosec // Path is inside our scratch directory.
		if err != nil {
			return fmt.Errorf("read raster %dpx: %w: %w", pixels, dist.ErrRasterizationFailed, err)
		}

		entries = append(entries, icoEntry{size: pixels, data: data})
	}

	if err := writeICO(opts.OutputPath, entries); err != nil {
		return fmt.Errorf("%w: %w", dist.ErrRasterizationFailed, err)
	}

	return nil
}

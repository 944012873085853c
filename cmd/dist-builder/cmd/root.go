package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/multiinstance/dist-builder/internal/config"
	"github.com/multiinstance/dist-builder/internal/domain/dist"
	"github.com/multiinstance/dist-builder/internal/logger"
	"github.com/multiinstance/dist-builder/internal/service/builder"
	"github.com/multiinstance/dist-builder/internal/version"
)

var (
	// configPath is the path to the build manifest YAML file.
	configPath string
	// logLevel is the minimum level for console logging.
	logLevel string
	// archFlags restricts compilation to the listed architectures.
	archFlags []string
	// universalFlag requests a multi-architecture merge.
	universalFlag bool
	// installerFlag additionally produces the Windows installer executable.
	installerFlag bool
	// skipCompileFlag packages existing binaries without recompiling.
	skipCompileFlag bool

	// exitCode carries the pipeline outcome to Execute:
	// 0 full success, 1 fatal failure, 2 partial success.
	exitCode int

	// rootCmd represents the base command for producing distribution artifacts.
	rootCmd = &cobra.Command{
		Use:   "dist-builder",
		Short: "Build signed, installable distribution artifacts",
		Long: "dist-builder compiles the application per architecture, merges universal " +
			"binaries, assembles platform-native containers, signs them, and produces " +
			"portable archives and installers.",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}
)

// Execute runs the dist-builder CLI and exits with the pipeline's status code.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}

	os.Exit(exitCode)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c",
		config.DefaultConfigFilename, "path to the build manifest")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"minimum log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringSliceVar(&archFlags, "arch", nil,
		"target architecture(s) to compile (arm64, x64)")
	rootCmd.PersistentFlags().BoolVar(&universalFlag, "universal", false,
		"merge all architectures into a universal binary")
	rootCmd.PersistentFlags().BoolVar(&installerFlag, "installer", false,
		"also generate the installer executable on Windows")
	rootCmd.PersistentFlags().BoolVar(&skipCompileFlag, "skip-compile", false,
		"package existing binaries without recompiling")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "macos",
			Short: "Build the macOS artifact set",
			RunE: func(_ *cobra.Command, _ []string) error {
				return runBuild(dist.OSDarwin)
			},
		},
		&cobra.Command{
			Use:   "windows",
			Short: "Build the Windows artifact set",
			RunE: func(_ *cobra.Command, _ []string) error {
				return runBuild(dist.OSWindows)
			},
		},
		&cobra.Command{
			Use:   "all",
			Short: "Build every platform's artifact set",
			RunE: func(_ *cobra.Command, _ []string) error {
				return runBuild(dist.OSDarwin, dist.OSWindows)
			},
		},
	)
}

// runBuild executes the pipeline for the requested platforms and records the
// exit code for Execute.
func runBuild(platforms ...dist.OS) error {
	// Setup graceful shutdown handling; the orchestrator aborts between stages.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	arches := make([]dist.Arch, 0, len(archFlags))

	for _, raw := range archFlags {
		arch, ok := dist.ParseArch(raw)
		if !ok {
			return fmt.Errorf("unknown architecture %q", raw)
		}

		arches = append(arches, arch)
	}

	result, err := builder.Run(ctx, &builder.Options{
		Config:      cfg,
		Platforms:   platforms,
		Arches:      arches,
		Universal:   universalFlag,
		Installer:   installerFlag,
		SkipCompile: skipCompileFlag,
	})
	if err != nil {
		return err
	}

	exitCode = result.ExitCode()

	return nil
}

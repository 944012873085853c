package producer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/multiinstance/dist-builder/internal/config"
	"github.com/multiinstance/dist-builder/internal/domain/dist"
	"github.com/multiinstance/dist-builder/internal/logger"
	"github.com/multiinstance/dist-builder/internal/toolchain"
)

// InstallerOptions contains inputs for the installer-executable variant.
type InstallerOptions struct {
	// Config is the build manifest.
	Config *config.Config
	// SourceDir is the assembled Windows container to install from.
	SourceDir string
	// OutputDir is where the installer executable is written.
	OutputDir string
	// Runner executes external tools. Defaults to toolchain.ExecRunner.
	Runner toolchain.Runner
	// Probe resolves tool availability. Defaults to toolchain.Probe.
	Probe toolchain.ProbeFunc
}

// nsisTemplate renders the declarative packaging script consumed by makensis.
// Optional files carry /nonfatal so an absent source is skipped at compile
// time instead of aborting the installer build.
//
//nolint:gochecknoglobals // Parsed once, read-only.
var nsisTemplate = template.Must(template.New("installer.nsi").Parse(
	`!define APP_NAME "{{.AppName}}"
!define APP_VERSION "{{.Version}}"
!define APP_PUBLISHER "{{.Publisher}}"
!define APP_EXE "{{.ExecutableName}}.exe"

Name "${APP_NAME} ${APP_VERSION}"
OutFile "{{.OutFile}}"
InstallDir "$PROGRAMFILES64\${APP_NAME}"
RequestExecutionLevel admin
SetCompressor /FINAL lzma

Section "Install"
	SetOutPath "$INSTDIR"
{{- range .Files}}
	File {{if not .Required}}/nonfatal {{end}}"{{.Path}}"
{{- end}}
	CreateDirectory "$SMPROGRAMS\${APP_NAME}"
	CreateShortCut "$SMPROGRAMS\${APP_NAME}\${APP_NAME}.lnk" "$INSTDIR\${APP_EXE}"
{{- if .Startup}}
	WriteRegStr HKCU "Software\Microsoft\Windows\CurrentVersion\Run" "${APP_NAME}" "$INSTDIR\${APP_EXE}"
{{- end}}
	WriteRegStr HKLM "Software\Microsoft\Windows\CurrentVersion\Uninstall\${APP_NAME}" "DisplayName" "${APP_NAME}"
	WriteRegStr HKLM "Software\Microsoft\Windows\CurrentVersion\Uninstall\${APP_NAME}" "DisplayVersion" "${APP_VERSION}"
	WriteRegStr HKLM "Software\Microsoft\Windows\CurrentVersion\Uninstall\${APP_NAME}" "Publisher" "${APP_PUBLISHER}"
	WriteRegStr HKLM "Software\Microsoft\Windows\CurrentVersion\Uninstall\${APP_NAME}" "UninstallString" "$INSTDIR\uninstall.exe"
	WriteUninstaller "$INSTDIR\uninstall.exe"
SectionEnd

Section "Uninstall"
	Delete "$SMPROGRAMS\${APP_NAME}\${APP_NAME}.lnk"
	RMDir "$SMPROGRAMS\${APP_NAME}"
{{- if .Startup}}
	DeleteRegValue HKCU "Software\Microsoft\Windows\CurrentVersion\Run" "${APP_NAME}"
{{- end}}
	DeleteRegKey HKLM "Software\Microsoft\Windows\CurrentVersion\Uninstall\${APP_NAME}"
	RMDir /r "$INSTDIR"
SectionEnd
`))

// nsisFile is one file entry of the rendered script.
type nsisFile struct {
	// Path is the absolute source path of the installed file.
	Path string
	// Required controls the /nonfatal flag.
	Required bool
}

// nsisData is the template input for the packaging script.
type nsisData struct {
	// AppName is the application display name.
	AppName string
	// Version is the release version string.
	Version string
	// Publisher is the vendor name.
	Publisher string
	// ExecutableName is the installed binary's base name.
	ExecutableName string
	// OutFile is the absolute path of the produced installer executable.
	OutFile string
	// Files are the container files to install.
	Files []nsisFile
	// Startup registers the application to run at user login.
	Startup bool
}

// BuildInstaller renders the packaging script and compiles it with makensis.
// It fails with dist.ErrInstallerToolMissing when makensis is absent (the
// orchestrator downgrades this to a warning with a remediation hint) and
// dist.ErrInstallerCompileFailed when the tool reports an error.
func BuildInstaller(ctx context.Context, opts *InstallerOptions) (*dist.Artifact, error) {
	runner := opts.Runner
	if runner == nil {
		runner = toolchain.ExecRunner{}
	}

	probe := opts.Probe
	if probe == nil {
		probe = toolchain.Probe
	}

	makensis := probe("makensis")
	if !makensis.Available {
		return nil, fmt.Errorf("makensis not found on PATH, install NSIS to produce installers: %w",
			dist.ErrInstallerToolMissing)
	}

	script, outFile, err := renderScript(opts)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = os.Remove(script)
	}()

	logger.InfoKV(ctx, "Compiling installer", "script", script, "output", outFile)

	if err := runner.Run(ctx, "", makensis.Path, script); err != nil {
		return nil, fmt.Errorf("makensis: %w: %w", dist.ErrInstallerCompileFailed, err)
	}

	return &dist.Artifact{
		Kind:     dist.ArtifactInstaller,
		Path:     outFile,
		Version:  opts.Config.App.Version,
		Platform: dist.OSWindows,
	}, nil
}

// renderScript writes the instantiated packaging script next to the container
// and returns its path together with the deterministic installer path.
func renderScript(opts *InstallerOptions) (scriptPath, outFile string, err error) {
	if err = os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}

	files, err := collectFiles(opts)
	if err != nil {
		return "", "", err
	}

	app := opts.Config.App

	outFile, err = filepath.Abs(filepath.Join(opts.OutputDir,
		fmt.Sprintf("%s-%s-setup.exe", app.Name, app.Version)))
	if err != nil {
		return "", "", fmt.Errorf("resolve installer path: %w", err)
	}

	var buf bytes.Buffer

	err = nsisTemplate.Execute(&buf, nsisData{
		AppName:        app.Name,
		Version:        app.Version,
		Publisher:      app.Publisher,
		ExecutableName: app.ExecutableName,
		OutFile:        outFile,
		Files:          files,
		Startup:        opts.Config.Installer.Startup,
	})
	if err != nil {
		return "", "", fmt.Errorf("render packaging script: %w", err)
	}

	scriptPath = filepath.Join(opts.OutputDir, "installer.nsi")
	if err = os.WriteFile(scriptPath, buf.Bytes(), 0o644); err != nil {
		return "", "", fmt.Errorf("write packaging script: %w", err)
	}

	return scriptPath, outFile, nil
}

// collectFiles lists the container's files for the script. The executable is
// required; everything else (icon, metadata, aux) is installed /nonfatal.
func collectFiles(opts *InstallerOptions) ([]nsisFile, error) {
	entries, err := os.ReadDir(opts.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("read container: %w", err)
	}

	exeName := opts.Config.App.ExecutableName + ".exe"
	files := make([]nsisFile, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path, err := filepath.Abs(filepath.Join(opts.SourceDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", entry.Name(), err)
		}

		files = append(files, nsisFile{
			Path:     path,
			Required: entry.Name() == exeName,
		})
	}

	return files, nil
}

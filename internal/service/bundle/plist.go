package bundle

import "text/template"

// infoPlistTemplate renders the macOS bundle metadata descriptor. Version
// fields are written verbatim from the build manifest.
//
//nolint:gochecknoglobals // Parsed once, read-only.
var infoPlistTemplate = template.Must(template.New("Info.plist").Parse(
	`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleDevelopmentRegion</key>
	<string>en</string>
	<key>CFBundleExecutable</key>
	<string>{{.ExecutableName}}</string>
	<key>CFBundleIdentifier</key>
	<string>{{.BundleID}}</string>
	<key>CFBundleInfoDictionaryVersion</key>
	<string>6.0</string>
	<key>CFBundleName</key>
	<string>{{.Name}}</string>
	<key>CFBundleDisplayName</key>
	<string>{{.Name}}</string>
	<key>CFBundlePackageType</key>
	<string>APPL</string>
	<key>CFBundleShortVersionString</key>
	<string>{{.Version}}</string>
	<key>CFBundleVersion</key>
	<string>{{.Version}}</string>
	<key>LSMinimumSystemVersion</key>
	<string>{{.MinOSVersion}}</string>
	<key>NSHighResolutionCapable</key>
	<true/>
{{- if .IconFile}}
	<key>CFBundleIconFile</key>
	<string>{{.IconFile}}</string>
{{- end}}
</dict>
</plist>
`))

// plistData is the template input for Info.plist.
type plistData struct {
	// Name is the application display name.
	Name string
	// ExecutableName is the binary name inside Contents/MacOS.
	ExecutableName string
	// BundleID is the reverse-DNS bundle identifier.
	BundleID string
	// Version is the release version string, verbatim.
	Version string
	// MinOSVersion is the minimum supported macOS version.
	MinOSVersion string
	// IconFile is the resource name of the embedded icon, empty for none.
	IconFile string
}

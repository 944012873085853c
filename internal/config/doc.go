// Package config loads and validates the build manifest.
//
// The manifest (dist-builder.yaml) declares the application metadata written
// into containers, the icon source, signing and installer policy, and the
// auxiliary files shipped alongside the executable. Load applies defaults and
// validates required fields; the version string is checked for semantic
// version shape here, while downstream stages write it verbatim.
package config

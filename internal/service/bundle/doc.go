// Package bundle assembles the platform-native application container.
//
// On macOS it builds the .app directory skeleton with Info.plist and the icns
// resource; on Windows it lays out a flat distribution directory with a YAML
// metadata slot and the ico. Any pre-existing container at the output path is
// destroyed first, and a failed assembly removes its partial output, so the
// caller only ever observes a complete container or none.
package bundle

// Package icon renders a vector source image into the raster size matrix a
// platform's icon container format requires and packs the result.
//
// Rasterization is delegated to the first available tool from a fixed
// preference chain (rsvg-convert, inkscape, magick, convert). macOS icons are
// packed into an .icns bundle via iconutil; Windows icons are written as a
// multi-resolution .ico file directly. Intermediate rasters live in a scratch
// directory removed on both success and failure.
package icon

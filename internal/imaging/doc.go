// Package imaging implements the pixel stages of the date-stamp reader.
//
// A photo flows forward through these functions, each returning a new
// buffer and never touching its input:
//
//	Raster -> Segment -> Refine -> Normalize -> SelectRegion -> (OCR) -> Annotate
//
// # Conventions
//
// Rasters carry an explicit ChannelOrder. Decoded images become RGBA with
// FromImage; Segment drops alpha (no blending) and reads RGB.
//
// Masks are *image.Gray anchored at the origin with only the values 0 and
// 255. Segment emits overlay pixels as 255. Refine inverts that, so the
// mask handed to OCR has dark (0) glyphs on a light (255) background.
//
// Coordinates are 0-based with the origin at the top-left corner. Symbol
// boxes returned by OCR are in the coordinate space of the cropped region.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless
// and may run concurrently on different inputs.
package imaging

// Package detection assembles recognised glyphs into date-stamp candidates.
//
// The OCR engine reports one Symbol per glyph, in its own reading order,
// with boxes in the coordinate space of the cropped region. An Aggregator
// turns those into Candidates:
//
//   - FlatAggregator concatenates every glyph into one candidate. It is the
//     pipeline default and assumes the crop holds a single line.
//   - SpatialClusterAggregator groups glyphs into lines and words by
//     position, keeps lines that parse as dates, and ranks them by distance
//     from the region centre.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Dates
//
// Candidate text is matched against time.Parse layouts (DefaultLayouts).
// Two-digit years follow time.Parse: 69-99 map to the 1900s, 00-68 to the
// 2000s.
package detection

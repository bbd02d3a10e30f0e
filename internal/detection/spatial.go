package detection

import (
	"image"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/photo-date-reader/internal/ocr"
)

// Selection orders parsed candidates by the distance between their centre
// and the centre of the region.
type Selection int

const (
	// SelectNearestCenter ranks the line closest to the region centre first.
	SelectNearestCenter Selection = iota

	// SelectFarthestFromCenter ranks the line farthest from the centre
	// first, for crops that also catch the frame edge.
	SelectFarthestFromCenter
)

// DefaultGapFactor splits words where the horizontal gap between glyphs is
// larger than this fraction of the median glyph width.
const DefaultGapFactor = 0.6

// SpatialClusterAggregator groups glyphs into lines and words by position,
// keeps the lines that parse as dates and ranks them.
//
// Lines are formed from glyphs whose boxes overlap vertically by at least
// half the smaller height. Within a line, glyphs are read left to right and
// a space is inserted wherever the gap exceeds GapFactor times the line's
// median glyph width.
type SpatialClusterAggregator struct {
	GapFactor float64
	Layouts   []string
	Selection Selection
}

// NewSpatialClusterAggregator returns an aggregator with the default gap
// factor, layouts and nearest-centre selection.
func NewSpatialClusterAggregator() *SpatialClusterAggregator {
	return &SpatialClusterAggregator{
		GapFactor: DefaultGapFactor,
		Layouts:   DefaultLayouts,
		Selection: SelectNearestCenter,
	}
}

// line is a cluster of glyphs under construction.
type line struct {
	bounds  ocr.Bounds
	symbols []ocr.Symbol
}

// Aggregate implements Aggregator.
func (a *SpatialClusterAggregator) Aggregate(symbols []ocr.Symbol, space image.Rectangle) []Candidate {
	if len(symbols) == 0 {
		return nil
	}

	gap := a.GapFactor
	if gap <= 0 {
		gap = DefaultGapFactor
	}
	layouts := a.Layouts
	if layouts == nil {
		layouts = DefaultLayouts
	}

	sx, sy := float64(space.Min.X+space.Max.X)/2, float64(space.Min.Y+space.Max.Y)/2
	origin := []float64{sx, sy}

	type ranked struct {
		c    Candidate
		dist float64
	}
	var parsed []ranked
	for _, l := range groupLines(symbols) {
		text := lineText(l.symbols, gap)
		date := ParseDate(text, layouts)
		if date == nil {
			continue
		}
		cx, cy := centre(l.bounds)
		parsed = append(parsed, ranked{
			c: Candidate{
				Text:    text,
				Bounds:  l.bounds,
				Symbols: l.symbols,
				Space:   space,
				Date:    date,
			},
			dist: floats.Distance([]float64{cx, cy}, origin, 2),
		})
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		if a.Selection == SelectFarthestFromCenter {
			return parsed[i].dist > parsed[j].dist
		}
		return parsed[i].dist < parsed[j].dist
	})

	out := make([]Candidate, len(parsed))
	for i, p := range parsed {
		out[i] = p.c
	}
	return out
}

// groupLines clusters symbols top to bottom. Each line's glyphs are sorted
// left to right. symbols is not modified.
func groupLines(symbols []ocr.Symbol) []line {
	sorted := append([]ocr.Symbol(nil), symbols...)
	sort.SliceStable(sorted, func(i, j int) bool {
		_, yi := centre(sorted[i].Bounds)
		_, yj := centre(sorted[j].Bounds)
		if yi != yj {
			return yi < yj
		}
		return sorted[i].Bounds.X1 < sorted[j].Bounds.X1
	})

	var lines []line
	for _, s := range sorted {
		joined := false
		for i := range lines {
			need := min(height(s.Bounds), height(lines[i].bounds)) / 2
			if verticalOverlap(s.Bounds, lines[i].bounds) >= max(need, 1) {
				lines[i].symbols = append(lines[i].symbols, s)
				lines[i].bounds = mergeBounds(lines[i].bounds, s.Bounds)
				joined = true
				break
			}
		}
		if !joined {
			lines = append(lines, line{bounds: s.Bounds, symbols: []ocr.Symbol{s}})
		}
	}

	for i := range lines {
		syms := lines[i].symbols
		sort.SliceStable(syms, func(a, b int) bool { return syms[a].Bounds.X1 < syms[b].Bounds.X1 })
	}
	return lines
}

// lineText joins left-to-right glyphs, inserting a space at word gaps.
func lineText(symbols []ocr.Symbol, gapFactor float64) string {
	widths := make([]int, len(symbols))
	for i, s := range symbols {
		widths[i] = width(s.Bounds)
	}
	sort.Ints(widths)
	limit := gapFactor * float64(widths[len(widths)/2])

	var sb strings.Builder
	for i, s := range symbols {
		if i > 0 && float64(s.Bounds.X1-symbols[i-1].Bounds.X2) > limit {
			sb.WriteByte(' ')
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}

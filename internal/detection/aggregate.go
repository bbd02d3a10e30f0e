package detection

import (
	"fmt"
	"image"
	"strings"
	"time"

	apperr "github.com/ironsheep/photo-date-reader/internal/errors"
	"github.com/ironsheep/photo-date-reader/internal/ocr"
)

// Candidate is one possible date stamp assembled from recognised glyphs.
type Candidate struct {
	// Text is the glyph text, with spaces where the aggregator saw word gaps.
	Text string `json:"text"`

	// Bounds is the union of the symbol boxes.
	Bounds ocr.Bounds `json:"bounds"`

	Symbols []ocr.Symbol `json:"symbols"`

	// Space is the coordinate space of Bounds, the cropped region.
	Space image.Rectangle `json:"-"`

	// Date is set when Text matched one of the date layouts.
	Date *time.Time `json:"date,omitempty"`
}

// Aggregator turns the glyphs of one region into date candidates.
//
// Implementations return candidates best first and never modify symbols.
type Aggregator interface {
	Aggregate(symbols []ocr.Symbol, space image.Rectangle) []Candidate
}

// DefaultLayouts are the time.Parse layouts tried on candidate text, in
// order. Cameras print two-digit years, optionally after an apostrophe, and
// months and days with or without a leading zero.
var DefaultLayouts = []string{
	"'06 1 2",
	"06 1 2",
	"06 01 02",
}

// DisplayLayout renders a parsed date the way the folder listing shows it.
const DisplayLayout = "02/01/2006"

// ParseDate tries each layout against text after collapsing runs of
// whitespace. It returns nil when none match.
func ParseDate(text string, layouts []string) *time.Time {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return &t
		}
	}
	return nil
}

// FlatAggregator concatenates every glyph into a single candidate in the
// engine's reading order.
//
// It performs no spatial grouping: the cropped region is expected to hold a
// single line. Zero symbols produce zero candidates.
type FlatAggregator struct {
	// Layouts used to fill Candidate.Date. Nil means DefaultLayouts.
	Layouts []string
}

// Aggregate implements Aggregator.
func (a FlatAggregator) Aggregate(symbols []ocr.Symbol, space image.Rectangle) []Candidate {
	if len(symbols) == 0 {
		return nil
	}

	var sb strings.Builder
	for _, s := range symbols {
		sb.WriteString(s.Text)
	}

	layouts := a.Layouts
	if layouts == nil {
		layouts = DefaultLayouts
	}

	c := Candidate{
		Text:    sb.String(),
		Bounds:  unionOf(symbols),
		Symbols: append([]ocr.Symbol(nil), symbols...),
		Space:   space,
	}
	c.Date = ParseDate(c.Text, layouts)
	return []Candidate{c}
}

// Aggregator names accepted by NewAggregator.
const (
	AggregatorFlat    = "flat"
	AggregatorSpatial = "spatial"
)

// NewAggregator returns the aggregator registered under name. An empty name
// selects the flat aggregator.
func NewAggregator(name string) (Aggregator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", AggregatorFlat:
		return FlatAggregator{}, nil
	case AggregatorSpatial:
		return NewSpatialClusterAggregator(), nil
	}
	return nil, apperr.NewInvalidConfigError("aggregator",
		fmt.Sprintf("unknown aggregator %q (want %q or %q)", name, AggregatorFlat, AggregatorSpatial))
}

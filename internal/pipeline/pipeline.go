// Package pipeline runs a photo through every stage of the date reader and
// schedules batches of photos across bounded worker pools.
package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"time"

	"github.com/ironsheep/photo-date-reader/internal/config"
	"github.com/ironsheep/photo-date-reader/internal/detection"
	apperr "github.com/ironsheep/photo-date-reader/internal/errors"
	"github.com/ironsheep/photo-date-reader/internal/imaging"
	"github.com/ironsheep/photo-date-reader/internal/logging"
	"github.com/ironsheep/photo-date-reader/internal/ocr"
)

// Stage names attached to errors.
const (
	StageDecode    = "decode"
	StageSegment   = "segment"
	StageRefine    = "refine"
	StageOrient    = "orient"
	StageCrop      = "crop"
	StageOCR       = "ocr"
	StageAggregate = "aggregate"
	StageAnnotate  = "annotate"
)

// Recognizer transcribes a cropped mask. *ocr.Pool implements it.
type Recognizer interface {
	Recognize(ctx context.Context, region *image.Gray) (*ocr.Result, error)
}

// Result is everything learned about one photo.
type Result struct {
	FullText   string                `json:"full_text"`
	Symbols    []ocr.Symbol          `json:"symbols"`
	Candidates []detection.Candidate `json:"candidates"`

	// Date is the first candidate date, or the full text parsed with the
	// default layouts when no candidate carried one.
	Date *time.Time `json:"date,omitempty"`

	// Region is the crop rectangle in the coordinates of the oriented mask.
	Region image.Rectangle `json:"-"`

	// Rotated is true when the mask was turned from portrait to landscape.
	Rotated bool `json:"rotated"`

	// Mask is the cropped, dark-on-light region handed to OCR.
	Mask *image.Gray `json:"-"`

	// Annotated is Mask with every symbol outlined and labelled.
	Annotated *image.NRGBA `json:"-"`
}

// DisplayText returns the date as dd/MM/yyyy when one was found, otherwise
// the raw transcription.
func (r *Result) DisplayText() string {
	if r.Date != nil {
		return r.Date.Format(detection.DisplayLayout)
	}
	return r.FullText
}

// Pipeline holds the immutable settings of one run. It is safe for
// concurrent use when its Recognizer is.
type Pipeline struct {
	band      imaging.Band
	crop      imaging.CropRect
	highlight color.Color
	ocr       Recognizer
	agg       detection.Aggregator
	log       *logging.Logger
}

// New builds a pipeline from cfg. A nil aggregator is resolved from
// cfg.Aggregator; a nil logger discards output.
func New(cfg *config.Config, rec Recognizer, agg detection.Aggregator, log *logging.Logger) (*Pipeline, error) {
	highlight, err := cfg.HighlightRGBA()
	if err != nil {
		return nil, err
	}
	if agg == nil {
		if agg, err = AggregatorFor(cfg); err != nil {
			return nil, err
		}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Pipeline{
		band:      cfg.Band,
		crop:      cfg.Crop,
		highlight: highlight,
		ocr:       rec,
		agg:       agg,
		log:       log,
	}, nil
}

// AggregatorFor builds the aggregator named by cfg, applying the spatial
// settings when relevant.
func AggregatorFor(cfg *config.Config) (detection.Aggregator, error) {
	agg, err := detection.NewAggregator(cfg.Aggregator)
	if err != nil {
		return nil, err
	}
	if s, ok := agg.(*detection.SpatialClusterAggregator); ok {
		s.GapFactor = cfg.GapFactor
		if strings.EqualFold(cfg.Selection, "farthest") {
			s.Selection = detection.SelectFarthestFromCenter
		}
	}
	return agg, nil
}

// Process runs src through segmentation, refinement, orientation, cropping,
// OCR, aggregation and annotation, in that order.
//
// Parameters:
//   - ctx: Checked between stages; once done, the remaining stages are skipped.
//   - src: The decoded photo. It is never modified.
//
// Returns:
//   - *Result: Transcription, candidates, chosen date (nil when none parsed),
//     crop rectangle, rotation flag, mask and annotated crop.
//   - error: Non-nil if a stage failed or ctx ended.
//
// A photo with no readable date is not an error: Result.Date is nil and the
// candidates show what was seen.
//
// # Errors
//
//   - INVALID_REGION with Stage "crop" if the crop rectangle is empty or
//     falls outside the mask
//   - ENGINE_INIT_FAILED or ENGINE_RECOGNITION_FAILED with Stage "ocr"
//   - ctx.Err() if ctx is cancelled before the last stage
func (p *Pipeline) Process(ctx context.Context, src *imaging.Raster) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mask := imaging.Segment(src, p.band)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	refined := imaging.Refine(mask)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	upright, rotated := imaging.Normalize(refined)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	region, rect, err := imaging.SelectRegion(upright, p.crop)
	if err != nil {
		return nil, withStage(err, StageCrop)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := p.ocr.Recognize(ctx, region)
	if err != nil {
		return nil, withStage(err, StageOCR)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	space := region.Bounds()
	candidates := p.agg.Aggregate(text.Symbols, space)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	annotated := imaging.Annotate(region, symbolLabels(text.Symbols), p.highlight)

	res := &Result{
		FullText:   text.FullText,
		Symbols:    text.Symbols,
		Candidates: candidates,
		Region:     rect,
		Rotated:    rotated,
		Mask:       region,
		Annotated:  annotated,
	}
	res.Date = pickDate(candidates, text.FullText)

	p.log.Debug("photo processed",
		"rotated", rotated,
		"region", rect,
		"symbols", len(text.Symbols),
		"candidates", len(candidates),
		"text", text.FullText)
	return res, nil
}

func pickDate(candidates []detection.Candidate, fullText string) *time.Time {
	for _, c := range candidates {
		if c.Date != nil {
			return c.Date
		}
	}
	return detection.ParseDate(fullText, detection.DefaultLayouts)
}

func symbolLabels(symbols []ocr.Symbol) []imaging.Label {
	labels := make([]imaging.Label, len(symbols))
	for i, s := range symbols {
		labels[i] = imaging.Label{Text: s.Text, Rect: s.Bounds.Rect()}
	}
	return labels
}

// withStage tags coded errors with the stage they came from. Other errors,
// including context errors, pass through unchanged.
func withStage(err error, stage string) error {
	var se *apperr.StampError
	if errors.As(err, &se) {
		return se.WithStage(stage)
	}
	return err
}

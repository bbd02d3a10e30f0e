//go:build ocr

package ocr

import (
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	apperr "github.com/ironsheep/photo-date-reader/internal/errors"
)

const backend = "gosseract"

// Tesseract variables that keep the engine from "correcting" digit runs
// into dictionary words.
var engineVariables = []struct {
	key   gosseract.SettableVariable
	value string
}{
	{"classify_nonlinear_norm", "1"},
	{"load_system_dawg", "false"},
	{"load_freq_dawg", "false"},
}

// Engine wraps one configured Tesseract client.
//
// An Engine is not safe for concurrent use; share engines through a Pool.
type Engine struct {
	client   *gosseract.Client
	settings Settings
}

// NewEngine creates a Tesseract client configured for date stamps and loads
// its trained data.
//
// Parameters:
//   - settings: Trained data location, language and character whitelist.
//
// Returns:
//   - *Engine: A warmed-up engine, ready for Recognize.
//   - error: Non-nil when the engine cannot be used.
//
// # Errors
//
//   - ENGINE_INIT_FAILED if the settings are incomplete
//   - ENGINE_INIT_FAILED if <TessdataDir>/<Language>.traineddata is missing;
//     this is detected before the native library is involved
//   - ENGINE_INIT_FAILED if Tesseract rejects the configuration or the data
func NewEngine(settings Settings) (*Engine, error) {
	if err := checkTrainedData(settings); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	e := &Engine{client: client, settings: settings}

	if err := e.configure(); err != nil {
		client.Close()
		return nil, apperr.NewEngineInitFailedError(settings.TessdataDir, settings.Language, err)
	}

	// gosseract initialises lazily; run one blank page so a corrupt data
	// file fails here rather than on the first photo.
	if err := e.warmUp(); err != nil {
		client.Close()
		return nil, apperr.NewEngineInitFailedError(settings.TessdataDir, settings.Language, err)
	}
	return e, nil
}

func (e *Engine) configure() error {
	if err := e.client.SetTessdataPrefix(e.settings.TessdataDir); err != nil {
		return fmt.Errorf("failed to set tessdata path: %w", err)
	}
	if err := e.client.SetLanguage(e.settings.Language); err != nil {
		return fmt.Errorf("failed to set language: %w", err)
	}
	if err := e.client.SetWhitelist(e.settings.Whitelist); err != nil {
		return fmt.Errorf("failed to set whitelist: %w", err)
	}
	for _, v := range engineVariables {
		if err := e.client.SetVariable(v.key, v.value); err != nil {
			return fmt.Errorf("failed to set %s: %w", v.key, err)
		}
	}
	if err := e.client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	return nil
}

func (e *Engine) warmUp() error {
	blank := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}
	data, err := encodeRegion(blank)
	if err != nil {
		return err
	}
	if err := e.client.SetImageFromBytes(data); err != nil {
		return err
	}
	_, err = e.client.Text()
	return err
}

// Settings returns the configuration the engine was built with.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Version returns the version of the linked Tesseract library.
func (e *Engine) Version() string {
	return e.client.Version()
}

// Recognize transcribes a dark-on-light single-line region.
//
// Parameters:
//   - region: The cropped mask, glyphs 0 on a 255 background. It may be a
//     sub-image; it is re-anchored at the origin before encoding.
//
// Returns:
//   - *Result: The trimmed full text and one Symbol per non-empty glyph, in
//     the engine's reading order, with boxes in region coordinates.
//   - error: Non-nil if the region is empty or the engine fails.
//
// The region is passed to Tesseract as an 8-bit grayscale PNG, one byte per
// pixel with stride equal to the width.
//
// # Errors
//
//   - INVALID_REGION if region has zero width or height
//   - ENGINE_INIT_FAILED if loading the image exposes an initialisation
//     problem
//   - ENGINE_RECOGNITION_FAILED for every other engine failure
func (e *Engine) Recognize(region *image.Gray) (*Result, error) {
	b := region.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, apperr.NewInvalidRegionError(b.Dx(), b.Dy(), "empty region passed to OCR")
	}

	data, err := encodeRegion(region)
	if err != nil {
		return nil, apperr.NewEngineRecognitionFailedError(err)
	}
	if err := e.client.SetImageFromBytes(data); err != nil {
		return nil, engineError(e.settings, stepLoadImage, err)
	}

	text, err := e.client.Text()
	if err != nil {
		return nil, engineError(e.settings, stepRecognize, err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_SYMBOL)
	if err != nil {
		return nil, engineError(e.settings, stepRecognize, err)
	}

	symbols := make([]Symbol, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		symbols = append(symbols, Symbol{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}

	return &Result{
		FullText: strings.TrimSpace(text),
		Symbols:  symbols,
	}, nil
}

// Close releases the native engine.
func (e *Engine) Close() error {
	return e.client.Close()
}

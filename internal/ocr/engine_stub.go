//go:build !ocr

package ocr

import (
	"errors"
	"image"

	apperr "github.com/ironsheep/photo-date-reader/internal/errors"
)

const backend = "none"

var errNotCompiled = errors.New("OCR support not compiled in (build with -tags ocr)")

// Engine is a placeholder for builds without Tesseract. NewEngine never
// returns one.
type Engine struct {
	settings Settings
}

// NewEngine always fails with ENGINE_INIT_FAILED in builds without the ocr
// tag. Settings and the trained data file are still checked first, so the
// error names the same problem a full build would report.
func NewEngine(settings Settings) (*Engine, error) {
	if err := checkTrainedData(settings); err != nil {
		return nil, err
	}
	return nil, apperr.NewEngineInitFailedError(settings.TessdataDir, settings.Language, errNotCompiled)
}

// Settings returns the configuration the engine was built with.
func (e *Engine) Settings() Settings {
	return e.settings
}

func (e *Engine) Version() string {
	return ""
}

func (e *Engine) Recognize(region *image.Gray) (*Result, error) {
	return nil, apperr.NewEngineInitFailedError(e.settings.TessdataDir, e.settings.Language, errNotCompiled)
}

func (e *Engine) Close() error {
	return nil
}

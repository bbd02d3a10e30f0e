// Package ocr recognises the digits of a camera date stamp using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) with a fixed
// configuration: a trained data set for seven-segment digits, a character
// whitelist of digits and the apostrophe, single-line page segmentation, and
// the system and frequency dictionaries disabled.
//
// # Prerequisites
//
// The Tesseract engine is only compiled in with the ocr build tag:
//
//	go build -tags ocr ./cmd/photo-date-reader
//
// Without the tag NewEngine always fails with ENGINE_INIT_FAILED, which lets
// the rest of the module build and test on hosts without the native
// libraries. With the tag, Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install libtesseract-dev libleptonica-dev
//   - macOS: brew install tesseract
//
// The trained data file <TessdataDir>/<Language>.traineddata must exist. The
// default is trainingData/7seg.traineddata relative to the working directory.
//
// # Engines and Pools
//
// Building an Engine loads the trained data, which is slow. A Pool keeps up
// to N engines alive and hands each to one task at a time:
//
//	pool := ocr.NewPool(settings, runtime.NumCPU())
//	defer pool.Close()
//	res, err := pool.Recognize(ctx, region)
//
// An engine that fails with an engine error is discarded rather than reused.
// Input errors such as INVALID_REGION leave the engine in the pool.
//
// # Error Handling
//
// Errors carry codes from internal/errors:
//   - ENGINE_INIT_FAILED when the trained data cannot be loaded
//   - ENGINE_RECOGNITION_FAILED for any other engine failure
//
// Both are per-image failures; callers report them and carry on.
package ocr

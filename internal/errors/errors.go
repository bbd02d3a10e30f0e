// Package errors defines the coded failure kinds reported per image.
//
// Every failure the pipeline produces is a *StampError carrying an ErrorCode.
// Callers branch on the code with errors.Is against the exported sentinels or
// with CodeOf. None of these conditions is process-fatal: a failure for one
// image never aborts processing of others, and nothing here retries.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode enumerates the failure kinds.
type ErrorCode string

const (
	// ErrorDecodeUnavailable is propagated from the image cache when a file
	// cannot be read or decoded.
	ErrorDecodeUnavailable ErrorCode = "DECODE_UNAVAILABLE"

	// ErrorInvalidRegion means the crop rectangle resolved to a non-positive area.
	ErrorInvalidRegion ErrorCode = "INVALID_REGION"

	// ErrorEngineInitFailed means Tesseract could not load its trained data.
	ErrorEngineInitFailed ErrorCode = "ENGINE_INIT_FAILED"

	// ErrorEngineRecognitionFailed means the engine produced no usable result.
	ErrorEngineRecognitionFailed ErrorCode = "ENGINE_RECOGNITION_FAILED"

	// ErrorInvalidConfig is returned by configuration validation.
	ErrorInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// StampError is a structured per-image failure.
type StampError struct {
	Code      ErrorCode
	Message   string
	Path      string
	Stage     string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *StampError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StampError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *StampError with the same code.
// This lets errors.Is(err, ErrInvalidRegion) match any invalid-region error.
func (e *StampError) Is(target error) bool {
	t, ok := target.(*StampError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithPath returns a copy of e annotated with the image path.
func (e *StampError) WithPath(path string) *StampError {
	c := *e
	c.Path = path
	return &c
}

// WithStage returns a copy of e annotated with the pipeline stage name.
func (e *StampError) WithStage(stage string) *StampError {
	c := *e
	c.Stage = stage
	return &c
}

// Sentinels for errors.Is comparisons.
var (
	ErrDecodeUnavailable       = &StampError{Code: ErrorDecodeUnavailable}
	ErrInvalidRegion           = &StampError{Code: ErrorInvalidRegion}
	ErrEngineInitFailed        = &StampError{Code: ErrorEngineInitFailed}
	ErrEngineRecognitionFailed = &StampError{Code: ErrorEngineRecognitionFailed}
	ErrInvalidConfig           = &StampError{Code: ErrorInvalidConfig}
)

// NewDecodeUnavailableError reports a file that is missing, unreadable or not
// a supported image. The stage is "decode".
func NewDecodeUnavailableError(path string, cause error) *StampError {
	return &StampError{
		Code:      ErrorDecodeUnavailable,
		Message:   "image could not be decoded",
		Path:      path,
		Stage:     "decode",
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// NewInvalidRegionError reports a crop with zero width or height. The region
// size is kept in Details so callers can tell a tiny photo from a bad layout.
func NewInvalidRegionError(width, height int, reason string) *StampError {
	return &StampError{
		Code:      ErrorInvalidRegion,
		Message:   fmt.Sprintf("crop region is empty: %s", reason),
		Stage:     "crop",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"region_width":  width,
			"region_height": height,
		},
	}
}

// NewEngineInitFailedError reports an OCR engine that could not be created or
// could not load <tessdataDir>/<language>.traineddata.
func NewEngineInitFailedError(tessdataDir, language string, cause error) *StampError {
	return &StampError{
		Code:      ErrorEngineInitFailed,
		Message:   fmt.Sprintf("could not load trained data %q from %s", language, tessdataDir),
		Stage:     "ocr",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"tessdata_dir": tessdataDir,
			"language":     language,
		},
		Cause: cause,
	}
}

// NewEngineRecognitionFailedError wraps a failure inside a running engine.
func NewEngineRecognitionFailedError(cause error) *StampError {
	return &StampError{
		Code:      ErrorEngineRecognitionFailed,
		Message:   "engine returned no usable result",
		Stage:     "ocr",
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// NewInvalidConfigError names the configuration field that failed validation.
// It has no stage because it happens before any image is touched.
func NewInvalidConfigError(field string, reason string) *StampError {
	return &StampError{
		Code:      ErrorInvalidConfig,
		Message:   fmt.Sprintf("%s: %s", field, reason),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"field": field,
		},
	}
}

// CodeOf returns the code of the first *StampError in err's chain,
// or the empty code when there is none.
func CodeOf(err error) ErrorCode {
	var se *StampError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// ToMap converts the error to a flat map for JSON responses.
func (e *StampError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}
	if e.Path != "" {
		result["path"] = e.Path
	}
	if e.Stage != "" {
		result["stage"] = e.Stage
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}

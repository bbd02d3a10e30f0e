package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	apperr "github.com/ironsheep/photo-date-reader/internal/errors"
)

// Settings configures every engine a Pool creates.
type Settings struct {
	// TessdataDir holds <Language>.traineddata. It is only read, so one
	// directory is shared by all engines.
	TessdataDir string `yaml:"tessdata_dir" json:"tessdata_dir"`

	// Language names the trained data set, e.g. "7seg" for the seven-segment
	// digits cameras print.
	Language string `yaml:"language" json:"language"`

	// Whitelist restricts recognition to these characters.
	Whitelist string `yaml:"whitelist" json:"whitelist"`
}

// DefaultSettings returns the configuration used for camera date stamps.
func DefaultSettings() Settings {
	return Settings{
		TessdataDir: "trainingData",
		Language:    "7seg",
		Whitelist:   "0123456789'",
	}
}

// TrainedDataPath returns the file the engine loads.
func (s Settings) TrainedDataPath() string {
	return filepath.Join(s.TessdataDir, s.Language+".traineddata")
}

// Validate checks that the settings are usable without touching the disk.
func (s Settings) Validate() error {
	if s.Language == "" {
		return fmt.Errorf("language is required")
	}
	if s.Whitelist == "" {
		return fmt.Errorf("whitelist is required")
	}
	return nil
}

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Rect converts b to an image.Rectangle with Min=(X1,Y1) and Max=(X2,Y2).
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Symbol is one recognised glyph and its box in the coordinate space of the
// region handed to Recognize.
type Symbol struct {
	Text string `json:"text"`

	Bounds Bounds `json:"bounds"`

	// Confidence is the engine's score scaled to 0.0-1.0.
	Confidence float64 `json:"confidence"`
}

// Result contains the transcription of one region.
type Result struct {
	// FullText is the engine's single-line transcription, trimmed.
	FullText string `json:"full_text"`

	// Symbols are in the engine's reading order. May be empty even when
	// FullText is not.
	Symbols []Symbol `json:"symbols"`
}

// Recognizer is an OCR engine that may be used by one goroutine at a time.
type Recognizer interface {
	Recognize(region *image.Gray) (*Result, error)
	Close() error
}

// encodeRegion serialises a mask as an 8-bit grayscale PNG anchored at the
// origin, the layout Tesseract reads as one byte per pixel.
func encodeRegion(region *image.Gray) ([]byte, error) {
	src := region
	if b := region.Bounds(); b.Min != (image.Point{}) {
		src = image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			copy(src.Pix[y*src.Stride:y*src.Stride+b.Dx()], region.Pix[region.PixOffset(b.Min.X, b.Min.Y+y):])
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, fmt.Errorf("failed to encode region: %w", err)
	}
	return buf.Bytes(), nil
}

// EngineInfo contains information about the OCR subsystem.
type EngineInfo struct {
	Available    bool   `json:"available"`
	Version      string `json:"version,omitempty"`
	Backend      string `json:"backend"`
	Language     string `json:"language"`
	Whitelist    string `json:"whitelist"`
	TessdataPath string `json:"tessdata_path"`
	Error        string `json:"error,omitempty"`
}

// Info reports whether an engine can be built with settings.
func Info(settings Settings) EngineInfo {
	info := EngineInfo{
		Backend:      backend,
		Language:     settings.Language,
		Whitelist:    settings.Whitelist,
		TessdataPath: settings.TrainedDataPath(),
	}

	engine, err := NewEngine(settings)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	defer engine.Close()

	info.Available = true
	info.Version = engine.Version()
	return info
}

// checkTrainedData validates settings and confirms that
// <TessdataDir>/<Language>.traineddata exists, before any native code runs.
func checkTrainedData(s Settings) error {
	if err := s.Validate(); err != nil {
		return apperr.NewEngineInitFailedError(s.TessdataDir, s.Language, err)
	}
	if _, err := os.Stat(s.TrainedDataPath()); err != nil {
		return apperr.NewEngineInitFailedError(s.TessdataDir, s.Language, err)
	}
	return nil
}

type engineStep int

const (
	// stepLoadImage hands the encoded region to the engine. gosseract
	// completes its lazy initialisation here.
	stepLoadImage engineStep = iota

	// stepRecognize covers text and bounding-box extraction.
	stepRecognize
)

// engineError codes a native engine failure. Only the image-loading step
// can surface an initialisation problem, and gosseract reports those
// through the message text alone.
func engineError(s Settings, step engineStep, err error) error {
	if step == stepLoadImage {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "init") || strings.Contains(msg, "traineddata") || strings.Contains(msg, "tessdata") {
			return apperr.NewEngineInitFailedError(s.TessdataDir, s.Language, err)
		}
	}
	return apperr.NewEngineRecognitionFailedError(err)
}

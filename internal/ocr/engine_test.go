package ocr

import (
	"errors"
	"image"
	"path/filepath"
	"strings"
	"testing"

	apperr "github.com/ironsheep/photo-date-reader/internal/errors"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.TessdataDir != "trainingData" || s.Language != "7seg" || s.Whitelist != "0123456789'" {
		t.Errorf("DefaultSettings() = %+v", s)
	}
	if got := s.TrainedDataPath(); got != filepath.Join("trainingData", "7seg.traineddata") {
		t.Errorf("TrainedDataPath() = %q", got)
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr bool
	}{
		{"default", DefaultSettings(), false},
		{"no language", Settings{TessdataDir: "x", Whitelist: "0"}, true},
		{"no whitelist", Settings{TessdataDir: "x", Language: "eng"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.s.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewEngine_MissingTrainedData(t *testing.T) {
	s := Settings{
		TessdataDir: filepath.Join(t.TempDir(), "does-not-exist"),
		Language:    "7seg",
		Whitelist:   "0123456789'",
	}

	engine, err := NewEngine(s)
	if err == nil {
		engine.Close()
		t.Fatal("expected error for missing trained data")
	}
	if !errors.Is(err, apperr.ErrEngineInitFailed) {
		t.Errorf("err = %v, want ENGINE_INIT_FAILED", err)
	}
	if apperr.CodeOf(err) != apperr.ErrorEngineInitFailed {
		t.Errorf("CodeOf = %q, want only ENGINE_INIT_FAILED", apperr.CodeOf(err))
	}
}

func TestBoundsRect(t *testing.T) {
	b := Bounds{X1: 1, Y1: 2, X2: 5, Y2: 9}
	if got := b.Rect(); got != image.Rect(1, 2, 5, 9) {
		t.Errorf("Rect() = %v", got)
	}
}

func TestEncodeRegion(t *testing.T) {
	parent := image.NewGray(image.Rect(0, 0, 10, 10))
	parent.Pix[5*parent.Stride+5] = 200
	sub := parent.SubImage(image.Rect(4, 4, 8, 8)).(*image.Gray)

	data, err := encodeRegion(sub)
	if err != nil {
		t.Fatalf("encodeRegion failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "\x89PNG") {
		t.Fatal("expected PNG signature")
	}
}

func TestInfoUnavailable(t *testing.T) {
	info := Info(Settings{TessdataDir: t.TempDir(), Language: "7seg", Whitelist: "0"})
	if info.Available {
		t.Error("expected unavailable engine")
	}
	if info.Error == "" {
		t.Error("expected an error message")
	}
	if info.Backend != backend {
		t.Errorf("Backend = %q, want %q", info.Backend, backend)
	}
}

func TestEngineError(t *testing.T) {
	s := DefaultSettings()
	tests := []struct {
		name string
		step engineStep
		err  error
		want apperr.ErrorCode
	}{
		{"load image init failure", stepLoadImage, errors.New("failed to init tesseract"), apperr.ErrorEngineInitFailed},
		{"load image missing data", stepLoadImage, errors.New("Error opening data file 7seg.traineddata"), apperr.ErrorEngineInitFailed},
		{"load image bad bytes", stepLoadImage, errors.New("bad image"), apperr.ErrorEngineRecognitionFailed},
		{"recognize iterator", stepRecognize, errors.New("could not init iterator"), apperr.ErrorEngineRecognitionFailed},
		{"recognize tessdata wording", stepRecognize, errors.New("tessdata lookup failed"), apperr.ErrorEngineRecognitionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engineError(s, tt.step, tt.err)
			if got := apperr.CodeOf(err); got != tt.want {
				t.Errorf("CodeOf = %q, want %q", got, tt.want)
			}
			if !errors.Is(err, tt.err) {
				t.Error("cause should stay reachable through errors.Is")
			}
		})
	}
}

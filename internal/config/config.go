// Package config holds every tunable of the date reader.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// PHOTO_DATE_* environment variables (which may come from a .env file).
// Nothing here is process-global; callers pass a Config explicitly.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/shirou/gopsutil/v3/cpu"
	"gopkg.in/yaml.v3"

	apperr "github.com/ironsheep/photo-date-reader/internal/errors"
	"github.com/ironsheep/photo-date-reader/internal/imaging"
	"github.com/ironsheep/photo-date-reader/internal/ocr"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "PHOTO_DATE_"

// Config holds the pipeline, OCR and scheduling settings.
type Config struct {
	Band imaging.Band     `yaml:"band"`
	Crop imaging.CropRect `yaml:"crop"`
	OCR  ocr.Settings     `yaml:"ocr"`

	// EnginePoolSize caps the number of live Tesseract engines.
	EnginePoolSize int `yaml:"engine_pool_size"`

	// DecodeWorkers and ProcessWorkers size the two batch pools: file
	// decoding (I/O) and pixel processing plus OCR (CPU).
	DecodeWorkers  int `yaml:"decode_workers"`
	ProcessWorkers int `yaml:"process_workers"`

	CacheCapacity int `yaml:"cache_capacity"`

	// Aggregator is "flat" or "spatial".
	Aggregator string `yaml:"aggregator"`

	// GapFactor and Selection tune the spatial aggregator. Selection is
	// "nearest" or "farthest".
	GapFactor float64 `yaml:"gap_factor"`
	Selection string  `yaml:"selection"`

	// HighlightColor is a #RRGGBB hex string for annotation boxes.
	HighlightColor string `yaml:"highlight_color"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration. Worker counts follow the
// number of logical CPUs.
func Default() *Config {
	cpus := logicalCPUs()
	return &Config{
		Band:           imaging.DefaultBand,
		Crop:           imaging.DefaultCrop,
		OCR:            ocr.DefaultSettings(),
		EnginePoolSize: cpus,
		DecodeWorkers:  max(2, cpus/2),
		ProcessWorkers: cpus,
		CacheCapacity:  imaging.DefaultCacheCapacity,
		Aggregator:     "flat",
		GapFactor:      0.6,
		Selection:      "nearest",
		HighlightColor: "#FF0000",
		LogLevel:       "info",
	}
}

// logicalCPUs falls back to 1 when the count cannot be read.
func logicalCPUs() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Load builds a Config from defaults, the YAML file at path (if path is
// non-empty, or else $PHOTO_DATE_CONFIG), and environment overrides. A
// .env file in the working directory is read first if present; it never
// overrides variables already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// mergeFile overlays YAML keys present in path onto c.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return apperr.NewInvalidConfigError("file", fmt.Sprintf("%s: %v", path, err))
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.OCR.TessdataDir = getEnvOrDefault("TESSDATA_DIR", c.OCR.TessdataDir)
	c.OCR.Language = getEnvOrDefault("LANGUAGE", c.OCR.Language)
	c.OCR.Whitelist = getEnvOrDefault("WHITELIST", c.OCR.Whitelist)
	c.Aggregator = getEnvOrDefault("AGGREGATOR", c.Aggregator)
	c.Selection = getEnvOrDefault("SELECTION", c.Selection)
	c.HighlightColor = getEnvOrDefault("HIGHLIGHT_COLOR", c.HighlightColor)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)

	for _, f := range []struct {
		key string
		dst *int
	}{
		{"ENGINE_POOL_SIZE", &c.EnginePoolSize},
		{"DECODE_WORKERS", &c.DecodeWorkers},
		{"PROCESS_WORKERS", &c.ProcessWorkers},
		{"CACHE_CAPACITY", &c.CacheCapacity},
	} {
		v, err := getEnvAsInt(f.key, *f.dst)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}

// getEnvOrDefault gets PHOTO_DATE_<key> or returns defaultValue.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets PHOTO_DATE_<key> as an int. Unset returns defaultValue;
// a malformed value is an INVALID_CONFIG error.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(EnvPrefix + key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return 0, apperr.NewInvalidConfigError(strings.ToLower(key), fmt.Sprintf("%q is not an integer", valueStr))
	}
	return value, nil
}

// Validate checks every field. Errors carry the INVALID_CONFIG code.
func (c *Config) Validate() error {
	if err := c.Band.Validate(); err != nil {
		return apperr.NewInvalidConfigError("band", err.Error())
	}
	if err := c.Crop.Validate(); err != nil {
		return apperr.NewInvalidConfigError("crop", err.Error())
	}
	if err := c.OCR.Validate(); err != nil {
		return apperr.NewInvalidConfigError("ocr", err.Error())
	}

	for _, f := range []struct {
		name string
		v    int
	}{
		{"engine_pool_size", c.EnginePoolSize},
		{"decode_workers", c.DecodeWorkers},
		{"process_workers", c.ProcessWorkers},
		{"cache_capacity", c.CacheCapacity},
	} {
		if f.v < 1 {
			return apperr.NewInvalidConfigError(f.name, fmt.Sprintf("must be at least 1, got %d", f.v))
		}
	}

	switch strings.ToLower(c.Aggregator) {
	case "flat", "spatial":
	default:
		return apperr.NewInvalidConfigError("aggregator", fmt.Sprintf("unknown aggregator %q", c.Aggregator))
	}
	switch strings.ToLower(c.Selection) {
	case "nearest", "farthest":
	default:
		return apperr.NewInvalidConfigError("selection", fmt.Sprintf("unknown selection %q", c.Selection))
	}
	if c.GapFactor <= 0 {
		return apperr.NewInvalidConfigError("gap_factor", fmt.Sprintf("must be positive, got %g", c.GapFactor))
	}
	if _, err := c.HighlightRGBA(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return apperr.NewInvalidConfigError("log_level", fmt.Sprintf("unknown level %q", c.LogLevel))
	}
	return nil
}

// HighlightRGBA parses HighlightColor into an opaque colour.
func (c *Config) HighlightRGBA() (color.NRGBA, error) {
	col, err := colorful.Hex(c.HighlightColor)
	if err != nil {
		return color.NRGBA{}, apperr.NewInvalidConfigError("highlight_color", err.Error())
	}
	r, g, b := col.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

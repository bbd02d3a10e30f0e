package imaging

import (
	"fmt"
	"image"
	"image/color"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSVColor is a full-range HSV triple as used by Band (every channel 0-255).
type HSVColor struct {
	H uint8 `json:"h"`
	S uint8 `json:"s"`
	V uint8 `json:"v"`
}

// ColorResult describes one sampled pixel in the terms needed to tune a Band.
type ColorResult struct {
	Hex    string   `json:"hex"`
	RGB    RGBColor `json:"rgb"`
	HSV    HSVColor `json:"hsv"`
	InBand bool     `json:"in_band"`
}

// SampleColor reads pixel (x, y) of img and reports its RGB and full-range
// HSV values and whether band would mark it as overlay.
//
// Alpha is ignored, as in Segment.
func SampleColor(img image.Image, x, y int, band Band) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	// Same conversion as FromImage, so sampling agrees with Segment.
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	r8, g8, b8 := c.R, c.G, c.B
	h, s, v := ToHSV(r8, g8, b8)

	return &ColorResult{
		Hex:    fmt.Sprintf("#%02X%02X%02X", r8, g8, b8),
		RGB:    RGBColor{R: r8, G: g8, B: b8},
		HSV:    HSVColor{H: h, S: s, V: v},
		InBand: band.Contains(h, s, v),
	}, nil
}

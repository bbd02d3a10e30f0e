package imaging

import (
	"fmt"
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Band is an inclusive HSV threshold window. All channels use the full
// 0-255 range: hue degrees are scaled by 256/360.
type Band struct {
	HMin uint8 `yaml:"h_min" json:"h_min"`
	HMax uint8 `yaml:"h_max" json:"h_max"`
	SMin uint8 `yaml:"s_min" json:"s_min"`
	SMax uint8 `yaml:"s_max" json:"s_max"`
	VMin uint8 `yaml:"v_min" json:"v_min"`
	VMax uint8 `yaml:"v_max" json:"v_max"`
}

// DefaultBand matches the orange/yellow overlay printed by film cameras.
var DefaultBand = Band{
	HMin: 15, HMax: 35,
	SMin: 40, SMax: 255,
	VMin: 170, VMax: 255,
}

// Validate checks that min <= max on every channel.
func (b Band) Validate() error {
	if b.HMin > b.HMax {
		return fmt.Errorf("hue min %d > max %d", b.HMin, b.HMax)
	}
	if b.SMin > b.SMax {
		return fmt.Errorf("saturation min %d > max %d", b.SMin, b.SMax)
	}
	if b.VMin > b.VMax {
		return fmt.Errorf("value min %d > max %d", b.VMin, b.VMax)
	}
	return nil
}

// Contains reports whether an HSV triple lies inside the band.
func (b Band) Contains(h, s, v uint8) bool {
	return h >= b.HMin && h <= b.HMax &&
		s >= b.SMin && s <= b.SMax &&
		v >= b.VMin && v <= b.VMax
}

// ToHSV converts 8-bit RGB to full-range 8-bit HSV.
//
// Hue is rounded from degrees*256/360 and wraps 256 to 0, saturation and
// value are rounded from [0,1] to [0,255]. Gray pixels have hue and
// saturation 0.
func ToHSV(r, g, b uint8) (h, s, v uint8) {
	c := colorful.Color{R: float64(r) / 255.0, G: float64(g) / 255.0, B: float64(b) / 255.0}
	hd, sf, vf := c.Hsv()

	hh := int(math.Round(hd * 256.0 / 360.0))
	if hh >= 256 {
		hh -= 256
	}
	return uint8(hh), uint8(math.Round(sf * 255.0)), uint8(math.Round(vf * 255.0))
}

// Segment classifies every pixel of src against band and returns a binary
// mask: 255 inside the band, 0 outside.
//
// 4-channel rasters are reduced to RGB with DropAlpha first. src is not
// modified.
func Segment(src *Raster, band Band) *image.Gray {
	rgb := src
	if src.Channels() == 4 {
		rgb = src.DropAlpha()
	}

	mask := image.NewGray(image.Rect(0, 0, rgb.Width, rgb.Height))
	for y := 0; y < rgb.Height; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+rgb.Width]
		for x := range row {
			h, s, v := ToHSV(rgb.RGBAt(x, y))
			if band.Contains(h, s, v) {
				row[x] = 0xff
			}
		}
	}
	return mask
}

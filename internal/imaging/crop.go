package imaging

import (
	"fmt"
	"image"
	"math"

	apperr "github.com/ironsheep/photo-date-reader/internal/errors"
)

// CropRect is a sub-rectangle expressed as fractions of width and height.
//
// Each bound lies in [0,1] and starts must be below ends. The zero value is
// not valid; use DefaultCrop.
type CropRect struct {
	HStart float64 `yaml:"h_start" json:"h_start"`
	HEnd   float64 `yaml:"h_end" json:"h_end"`
	VStart float64 `yaml:"v_start" json:"v_start"`
	VEnd   float64 `yaml:"v_end" json:"v_end"`
}

// DefaultCrop selects the bottom-right 25% x 20% of the frame, where
// cameras print the date.
var DefaultCrop = CropRect{HStart: 0.75, HEnd: 1.0, VStart: 0.80, VEnd: 1.0}

// Validate checks ranges and ordering.
func (c CropRect) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"h_start", c.HStart}, {"h_end", c.HEnd}, {"v_start", c.VStart}, {"v_end", c.VEnd},
	} {
		if f.v < 0 || f.v > 1 || math.IsNaN(f.v) {
			return fmt.Errorf("%s %.3f outside [0,1]", f.name, f.v)
		}
	}
	if c.HStart >= c.HEnd {
		return fmt.Errorf("h_start %.3f must be < h_end %.3f", c.HStart, c.HEnd)
	}
	if c.VStart >= c.VEnd {
		return fmt.Errorf("v_start %.3f must be < v_end %.3f", c.VStart, c.VEnd)
	}
	return nil
}

// fracEpsilon absorbs binary rounding so 0.2*100 truncates to 20, not 19.
const fracEpsilon = 1e-9

func truncFrac(f float64, n int) int {
	return int(math.Floor(f*float64(n) + fracEpsilon))
}

// Bounds resolves the fractions against a width x height image.
//
// The origin is trunc(start*size) and the extent is trunc((end-start)*size),
// so a (0.75,1.0,0.80,1.0) rectangle on W x H yields floor(0.25*W) by
// floor(0.2*H). The result may be empty or inverted for bad input; callers
// check with SelectRegion.
func (c CropRect) Bounds(width, height int) image.Rectangle {
	x := truncFrac(c.HStart, width)
	y := truncFrac(c.VStart, height)
	w := truncFrac(c.HEnd-c.HStart, width)
	h := truncFrac(c.VEnd-c.VStart, height)
	return image.Rectangle{Min: image.Pt(x, y), Max: image.Pt(x+w, y+h)}
}

// SelectRegion copies the part of mask described by crop into a new
// 0-origin mask.
//
// Parameters:
//   - mask: The upright binary mask. It is not modified.
//   - crop: Fractions of the mask's width and height; see CropRect.Bounds
//     for the rounding.
//
// Returns:
//   - *image.Gray: A copy of the selected pixels, anchored at the origin.
//   - image.Rectangle: The selection in mask coordinates, also on error.
//   - error: Non-nil if the selection is unusable.
//
// # Errors
//
//   - INVALID_REGION if the rectangle has non-positive width or height
//   - INVALID_REGION if the rectangle extends past the mask, which happens
//     when a fraction lies outside [0,1]
func SelectRegion(mask *image.Gray, crop CropRect) (*image.Gray, image.Rectangle, error) {
	mb := mask.Bounds()
	r := crop.Bounds(mb.Dx(), mb.Dy())

	if r.Dx() <= 0 || r.Dy() <= 0 {
		return nil, r, apperr.NewInvalidRegionError(r.Dx(), r.Dy(),
			fmt.Sprintf("crop %+v on %dx%d mask", crop, mb.Dx(), mb.Dy()))
	}
	if !r.In(image.Rect(0, 0, mb.Dx(), mb.Dy())) {
		return nil, r, apperr.NewInvalidRegionError(r.Dx(), r.Dy(),
			fmt.Sprintf("crop %+v exceeds %dx%d mask", crop, mb.Dx(), mb.Dy()))
	}

	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		src := mask.PixOffset(mb.Min.X+r.Min.X, mb.Min.Y+r.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+r.Dx()], mask.Pix[src:src+r.Dx()])
	}
	return out, r, nil
}

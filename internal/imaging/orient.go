package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// Normalize turns a portrait mask into landscape so the overlay reads left
// to right.
//
// When the mask has more rows than columns it is transposed and then
// flipped horizontally (a 90° clockwise turn) and true is returned.
// Otherwise mask itself is returned with false. The decision depends only
// on the aspect ratio and is applied at most once.
func Normalize(mask *image.Gray) (*image.Gray, bool) {
	b := mask.Bounds()
	if b.Dy() <= b.Dx() {
		return mask, false
	}
	rotated := imaging.FlipH(imaging.Transpose(mask))
	return grayFrom(rotated), true
}

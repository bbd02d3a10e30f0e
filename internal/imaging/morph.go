package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// Kernel is a rectangular structuring element, anchored at its centre.
type Kernel struct {
	Width  int
	Height int
}

var (
	// OpenKernel removes isolated speckles.
	OpenKernel = Kernel{Width: 3, Height: 3}

	// BridgeKernel is wider than tall so it joins gaps inside a digit
	// without merging neighbouring lines.
	BridgeKernel = Kernel{Width: 5, Height: 3}
)

// Refine cleans a segmentation mask for OCR.
//
// The steps run in a fixed order:
//  1. Opening with OpenKernel (erode, then dilate)
//  2. Dilation with BridgeKernel
//  3. Re-binarisation at the Otsu threshold (v > t becomes 255)
//  4. Polarity inversion, so overlay pixels end up 0 on a 255 background
//
// The result is a new mask of the same size. Refine is deterministic.
func Refine(mask *image.Gray) *image.Gray {
	opened := Open(mask, OpenKernel)
	bridged := Dilate(opened, BridgeKernel)
	binary := Binarize(bridged, OtsuThreshold(bridged))
	return Invert(binary)
}

// Open performs erosion followed by dilation with the same kernel.
func Open(mask *image.Gray, k Kernel) *image.Gray {
	return Dilate(Erode(mask, k), k)
}

// Erode replaces each pixel with the minimum of its kernel neighbourhood.
// Neighbours outside the image are ignored.
func Erode(mask *image.Gray, k Kernel) *image.Gray {
	return rankFilter(mask, k, func(a, b uint8) bool { return b < a })
}

// Dilate replaces each pixel with the maximum of its kernel neighbourhood.
// Neighbours outside the image are ignored.
func Dilate(mask *image.Gray, k Kernel) *image.Gray {
	return rankFilter(mask, k, func(a, b uint8) bool { return b > a })
}

// rankFilter applies a rectangular min or max filter as two separable
// passes: horizontal over Width, then vertical over Height.
func rankFilter(src *image.Gray, k Kernel, better func(cur, cand uint8) bool) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	ax, ay := k.Width/2, k.Height/2

	horiz := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			x0 := max(0, x-ax)
			x1 := min(w-1, x-ax+k.Width-1)
			v := row[x0]
			for i := x0 + 1; i <= x1; i++ {
				if better(v, row[i]) {
					v = row[i]
				}
			}
			horiz[y*w+x] = v
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			y0 := max(0, y-ay)
			y1 := min(h-1, y-ay+k.Height-1)
			v := horiz[y0*w+x]
			for j := y0 + 1; j <= y1; j++ {
				if c := horiz[j*w+x]; better(v, c) {
					v = c
				}
			}
			out.Pix[y*out.Stride+x] = v
		}
	}
	return out
}

// OtsuThreshold picks the level that maximises between-class variance of
// the mask histogram. Pixels strictly above the returned level belong to
// the foreground. Ties keep the lowest level; a single-valued image yields 0.
func OtsuThreshold(mask *image.Gray) uint8 {
	var hist [256]int
	b := mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, y) : mask.PixOffset(b.Min.X, y)+b.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}

	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	scale := 1.0 / float64(total)

	var mu float64
	for i, n := range hist {
		mu += float64(i) * float64(n)
	}
	mu *= scale

	const eps = 1.1920929e-07 // float32 epsilon
	var q1, mu1, maxSigma float64
	best := 0
	for i := 0; i < 256; i++ {
		p := float64(hist[i]) * scale
		mu1 *= q1
		q1 += p
		q2 := 1.0 - q1

		if min(q1, q2) < eps || max(q1, q2) > 1.0-eps {
			continue
		}

		mu1 = (mu1 + float64(i)*p) / q1
		mu2 := (mu - q1*mu1) / q2
		sigma := q1 * q2 * (mu1 - mu2) * (mu1 - mu2)
		if sigma > maxSigma {
			maxSigma = sigma
			best = i
		}
	}
	return uint8(best)
}

// Binarize sets pixels strictly above level to 255 and the rest to 0.
func Binarize(mask *image.Gray, level uint8) *image.Gray {
	b := mask.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := mask.Pix[mask.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < b.Dx(); x++ {
			if src[x] > level {
				dst[x] = 0xff
			}
		}
	}
	return out
}

// Invert flips mask polarity: 0 becomes 255 and 255 becomes 0.
func Invert(mask *image.Gray) *image.Gray {
	return grayFrom(effect.Invert(mask))
}

// grayFrom copies the red channel of img into a 0-origin gray mask.
// Inputs are expected to be gray already (R == G == B).
func grayFrom(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out.Pix[y*out.Stride+x] = uint8(r >> 8)
		}
	}
	return out
}

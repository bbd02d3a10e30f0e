package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Label is one box to outline on an annotated image, with the text to print
// above it. Rect uses the coordinate space of the mask being annotated;
// both Min and Max edges are drawn.
type Label struct {
	Text string
	Rect image.Rectangle
}

// DefaultHighlight is the outline and text colour used when none is configured.
var DefaultHighlight = color.NRGBA{R: 255, A: 255}

// labelBaselineOffset is the gap between a box top and the text baseline.
const labelBaselineOffset = 3

// ToDisplay converts a single-channel mask to an opaque 3-colour image with
// R == G == B == mask value.
func ToDisplay(mask *image.Gray) *image.NRGBA {
	return imaging.Clone(mask)
}

// Annotate draws every label onto a display copy of mask.
//
// Each label gets a 1-pixel outline in highlight and its text rendered with
// basicfont just above the top edge. Drawing is clipped to the image. With
// no labels the result equals ToDisplay(mask) pixel for pixel. mask is not
// modified.
func Annotate(mask *image.Gray, labels []Label, highlight color.Color) *image.NRGBA {
	out := ToDisplay(mask)
	if len(labels) == 0 {
		return out
	}

	src := image.NewUniform(highlight)
	for _, l := range labels {
		drawOutline(out, l.Rect, src)

		d := &font.Drawer{
			Dst:  out,
			Src:  src,
			Face: basicfont.Face7x13,
			Dot:  fixed.P(l.Rect.Min.X, l.Rect.Min.Y-labelBaselineOffset),
		}
		d.DrawString(l.Text)
	}
	return out
}

// drawOutline strokes the four edges of r, including the Max row and column.
func drawOutline(dst draw.Image, r image.Rectangle, src image.Image) {
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X+1, r.Min.Y+1), // top
		image.Rect(r.Min.X, r.Max.Y, r.Max.X+1, r.Max.Y+1), // bottom
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y+1), // left
		image.Rect(r.Max.X, r.Min.Y, r.Max.X+1, r.Max.Y+1), // right
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}

// EncodePNGBase64 encodes img as PNG and returns it base64-encoded, the form
// MCP image content expects.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SavePNG writes img to path as PNG.
func SavePNG(img image.Image, path string) error {
	return imaging.Save(img, path)
}

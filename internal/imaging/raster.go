package imaging

import (
	"fmt"
	"image"
	"image/color"
)

// ChannelOrder names the byte layout of one pixel in a Raster.
//
// Every conversion in this package states its input and output order
// explicitly. Decoded Go images always become RGBA; the segmenter always
// works on RGB.
type ChannelOrder int

const (
	OrderRGB ChannelOrder = iota
	OrderBGR
	OrderRGBA
	OrderBGRA
	OrderARGB
	OrderABGR
)

func (o ChannelOrder) String() string {
	switch o {
	case OrderRGB:
		return "RGB"
	case OrderBGR:
		return "BGR"
	case OrderRGBA:
		return "RGBA"
	case OrderBGRA:
		return "BGRA"
	case OrderARGB:
		return "ARGB"
	case OrderABGR:
		return "ABGR"
	}
	return fmt.Sprintf("ChannelOrder(%d)", int(o))
}

// Channels returns 3 or 4.
func (o ChannelOrder) Channels() int {
	switch o {
	case OrderRGB, OrderBGR:
		return 3
	default:
		return 4
	}
}

// offsets returns the byte offsets of red, green and blue within a pixel.
func (o ChannelOrder) offsets() (r, g, b int) {
	switch o {
	case OrderBGR, OrderBGRA:
		return 2, 1, 0
	case OrderARGB:
		return 1, 2, 3
	case OrderABGR:
		return 3, 2, 1
	default:
		return 0, 1, 2
	}
}

// Raster is an 8-bit-per-channel pixel buffer with an explicit channel order.
//
// Pixel (x, y) starts at Pix[y*Stride + x*Order.Channels()]. Rasters handed to
// the pipeline are owned by the caller and are never modified; conversions
// return new rasters.
type Raster struct {
	Width  int
	Height int
	Stride int
	Order  ChannelOrder
	Pix    []byte
}

// NewRaster allocates a zeroed raster with a tightly packed stride.
func NewRaster(width, height int, order ChannelOrder) *Raster {
	stride := width * order.Channels()
	return &Raster{
		Width:  width,
		Height: height,
		Stride: stride,
		Order:  order,
		Pix:    make([]byte, stride*height),
	}
}

// Channels returns the number of bytes per pixel.
func (r *Raster) Channels() int {
	return r.Order.Channels()
}

// Bounds returns the raster rectangle anchored at the origin.
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

// RGBAt returns the red, green and blue bytes of pixel (x, y).
func (r *Raster) RGBAt(x, y int) (uint8, uint8, uint8) {
	ro, gro, bo := r.Order.offsets()
	i := y*r.Stride + x*r.Order.Channels()
	return r.Pix[i+ro], r.Pix[i+gro], r.Pix[i+bo]
}

// SetRGB writes the colour channels of pixel (x, y). On 4-channel rasters the
// alpha byte is set to 255.
func (r *Raster) SetRGB(x, y int, red, green, blue uint8) {
	ro, gro, bo := r.Order.offsets()
	n := r.Order.Channels()
	i := y*r.Stride + x*n
	r.Pix[i+ro] = red
	r.Pix[i+gro] = green
	r.Pix[i+bo] = blue
	if n == 4 {
		r.Pix[i+alphaOffset(r.Order)] = 0xff
	}
}

func alphaOffset(o ChannelOrder) int {
	switch o {
	case OrderARGB, OrderABGR:
		return 0
	default:
		return 3
	}
}

// FromImage copies any image.Image into an RGBA-ordered raster with
// non-premultiplied colour channels.
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	out := NewRaster(b.Dx(), b.Dy(), OrderRGBA)

	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < out.Height; y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:(y+1)*out.Stride], src.Pix[si:si+out.Stride])
		}
		return out
	}

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := y*out.Stride + x*4
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = c.A
		}
	}
	return out
}

// DropAlpha returns a 3-channel RGB copy of r. Alpha is discarded without
// blending; colour bytes are copied as stored. A 3-channel input is copied
// and normalised to RGB order.
func (r *Raster) DropAlpha() *Raster {
	out := NewRaster(r.Width, r.Height, OrderRGB)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			red, green, blue := r.RGBAt(x, y)
			i := y*out.Stride + x*3
			out.Pix[i+0] = red
			out.Pix[i+1] = green
			out.Pix[i+2] = blue
		}
	}
	return out
}

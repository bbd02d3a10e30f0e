package imaging

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func TestToDisplay(t *testing.T) {
	m := maskFromRows("#.", ".#")
	out := ToDisplay(m)

	if out.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	if c := out.NRGBAAt(0, 0); c != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("(0,0) = %v, want opaque white", c)
	}
	if c := out.NRGBAAt(1, 0); c != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("(1,0) = %v, want opaque black", c)
	}
}

func TestAnnotateNoLabels(t *testing.T) {
	m := maskFromRows("#..", ".#.", "..#")
	want := ToDisplay(m)
	got := Annotate(m, nil, DefaultHighlight)

	for i := range want.Pix {
		if got.Pix[i] != want.Pix[i] {
			t.Fatalf("pixel byte %d differs: %d vs %d", i, got.Pix[i], want.Pix[i])
		}
	}
}

func TestAnnotateOutline(t *testing.T) {
	m := image.NewGray(image.Rect(0, 0, 20, 20))
	for i := range m.Pix {
		m.Pix[i] = 255
	}
	orig := append([]byte(nil), m.Pix...)

	box := image.Rect(2, 5, 10, 12)
	out := Annotate(m, []Label{{Rect: box}}, DefaultHighlight)

	red := color.NRGBA{R: 255, A: 255}
	white := color.NRGBA{255, 255, 255, 255}

	for _, p := range []image.Point{
		{2, 5}, {10, 5}, {2, 12}, {10, 12}, // corners, Max included
		{6, 5}, {6, 12}, {2, 8}, {10, 8}, // edge midpoints
	} {
		if c := out.NRGBAAt(p.X, p.Y); c != red {
			t.Errorf("outline %v = %v, want red", p, c)
		}
	}
	for _, p := range []image.Point{{6, 8}, {11, 8}, {6, 13}, {1, 8}} {
		if c := out.NRGBAAt(p.X, p.Y); c != white {
			t.Errorf("%v = %v, want white", p, c)
		}
	}

	for i := range orig {
		if m.Pix[i] != orig[i] {
			t.Fatal("input mask was modified")
		}
	}
}

func TestAnnotateClipsToImage(t *testing.T) {
	m := image.NewGray(image.Rect(0, 0, 10, 10))
	out := Annotate(m, []Label{{Text: "7", Rect: image.Rect(-5, -5, 30, 30)}}, color.NRGBA{G: 255, A: 255})

	if out.Bounds() != m.Bounds() {
		t.Fatalf("bounds = %v, want %v", out.Bounds(), m.Bounds())
	}
	if c := out.NRGBAAt(5, 5); c != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("interior = %v, want unchanged black", c)
	}
}

func TestAnnotateDrawsText(t *testing.T) {
	m := image.NewGray(image.Rect(0, 0, 40, 40))
	box := image.Rect(5, 25, 15, 35)
	out := Annotate(m, []Label{{Text: "8", Rect: box}}, DefaultHighlight)

	// Some glyph pixels must land in the band above the box.
	found := false
	for y := 0; y < box.Min.Y; y++ {
		for x := box.Min.X; x < box.Min.X+7; x++ {
			if out.NRGBAAt(x, y).R == 255 {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected label text above the box")
	}
}

func TestEncodePNGBase64(t *testing.T) {
	img := ToDisplay(maskFromRows("#.", ".#"))
	encoded, err := EncodePNGBase64(img)
	if err != nil {
		t.Fatalf("EncodePNGBase64 failed: %v", err)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	decoded, err := png.Decode(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 2 || decoded.Bounds().Dy() != 2 {
		t.Errorf("decoded size = %v, want 2x2", decoded.Bounds())
	}
}

package detection

import "github.com/ironsheep/photo-date-reader/internal/ocr"

// mergeBounds combines two bounds into their union
func mergeBounds(a, b ocr.Bounds) ocr.Bounds {
	return ocr.Bounds{
		X1: min(a.X1, b.X1),
		Y1: min(a.Y1, b.Y1),
		X2: max(a.X2, b.X2),
		Y2: max(a.Y2, b.Y2),
	}
}

// unionOf returns the union of every symbol box. Callers ensure symbols is
// non-empty.
func unionOf(symbols []ocr.Symbol) ocr.Bounds {
	u := symbols[0].Bounds
	for _, s := range symbols[1:] {
		u = mergeBounds(u, s.Bounds)
	}
	return u
}

// verticalOverlap returns how many rows a and b share; negative when apart.
func verticalOverlap(a, b ocr.Bounds) int {
	return min(a.Y2, b.Y2) - max(a.Y1, b.Y1)
}

// centre returns the midpoint of b.
func centre(b ocr.Bounds) (float64, float64) {
	return float64(b.X1+b.X2) / 2, float64(b.Y1+b.Y2) / 2
}

func width(b ocr.Bounds) int  { return b.X2 - b.X1 }
func height(b ocr.Bounds) int { return b.Y2 - b.Y1 }

package geometry

// FindFirstFreeSpot scans candidate origins in row-major order (y outer, x
// inner, both starting at 0) and returns the first one whose width×height
// footprint overlaps nothing in occupied. maxX and maxY are inclusive; if
// either is negative the item cannot fit and ok is false.
//
// When a candidate is blocked the scan jumps to the right edge of the
// blocking rectangle. Every skipped origin would overlap the same blocker, so
// the result matches a unit-step scan.
func FindFirstFreeSpot(occupied []Rect, maxX, maxY, width, height int) (p Point, ok bool) {
	if maxX < 0 || maxY < 0 || width <= 0 || height <= 0 {
		return Point{}, false
	}
	for y := 0; y <= maxY; y++ {
		for x := 0; x <= maxX; {
			candidate := Rect{X: x, Y: y, Width: width, Height: height}
			blocker, blocked := firstOverlap(candidate, occupied)
			if !blocked {
				return Point{X: x, Y: y}, true
			}
			x = blocker.Right()
		}
	}
	return Point{}, false
}

func firstOverlap(r Rect, others []Rect) (Rect, bool) {
	for _, o := range others {
		if Overlaps(r, o) {
			return o, true
		}
	}
	return Rect{}, false
}

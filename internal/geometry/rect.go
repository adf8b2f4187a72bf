// Package geometry holds the pure footprint math used by placement: the
// rectangle overlap test and the free-spot scan.
package geometry

// Rect is an axis-aligned footprint anchored at its bottom-left corner.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Point is a candidate origin on a shelf.
type Point struct {
	X int
	Y int
}

// Right returns the exclusive right bound.
func (r Rect) Right() int { return r.X + r.Width }

// Top returns the exclusive top bound.
func (r Rect) Top() int { return r.Y + r.Height }

// Overlaps reports whether a and b share interior area. Edges that only touch
// (a.Right() == b.X) are not a collision, so items can sit flush.
func Overlaps(a, b Rect) bool {
	return a.X < b.Right() && b.X < a.Right() &&
		a.Y < b.Top() && b.Y < a.Top()
}

// FitsWithin reports whether r lies inside a width x height area anchored at
// the origin. It compares against width-r.Width instead of summing, so
// coordinates near the int limit cannot wrap into range.
func FitsWithin(r Rect, width, height int) bool {
	if r.X < 0 || r.Y < 0 || r.Width <= 0 || r.Height <= 0 {
		return false
	}
	return r.Width <= width && r.Height <= height &&
		r.X <= width-r.Width && r.Y <= height-r.Height
}

// OverlapsAny reports whether r overlaps at least one rectangle in others.
func OverlapsAny(r Rect, others []Rect) bool {
	for _, o := range others {
		if Overlaps(r, o) {
			return true
		}
	}
	return false
}

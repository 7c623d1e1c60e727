package wine

// BoundingBox is a frame-relative rectangle in [0,1]² with the origin at the
// top-left corner and Y growing downward.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b BoundingBox) MinX() float64 { return b.X }
func (b BoundingBox) MinY() float64 { return b.Y }
func (b BoundingBox) MaxX() float64 { return b.X + b.Width }
func (b BoundingBox) MaxY() float64 { return b.Y + b.Height }

// Area returns the box area; degenerate boxes have zero area.
func (b BoundingBox) Area() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	minX := min(b.MinX(), o.MinX())
	minY := min(b.MinY(), o.MinY())
	maxX := max(b.MaxX(), o.MaxX())
	maxY := max(b.MaxY(), o.MaxY())
	return BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Intersection returns the overlapping region, or a zero box when disjoint.
func (b BoundingBox) Intersection(o BoundingBox) BoundingBox {
	minX := max(b.MinX(), o.MinX())
	minY := max(b.MinY(), o.MinY())
	maxX := min(b.MaxX(), o.MaxX())
	maxY := min(b.MaxY(), o.MaxY())
	if maxX <= minX || maxY <= minY {
		return BoundingBox{}
	}
	return BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// OverlapRatio is the intersection area as a fraction of the smaller box's area.
func (b BoundingBox) OverlapRatio(o BoundingBox) float64 {
	smaller := min(b.Area(), o.Area())
	if smaller == 0 {
		return 0
	}
	return b.Intersection(o).Area() / smaller
}

// Clamp limits the box to the unit square.
func (b BoundingBox) Clamp() BoundingBox {
	minX := clamp01(b.MinX())
	minY := clamp01(b.MinY())
	maxX := clamp01(b.MaxX())
	maxY := clamp01(b.MaxY())
	return BoundingBox{X: minX, Y: minY, Width: max(0, maxX-minX), Height: max(0, maxY-minY)}
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}

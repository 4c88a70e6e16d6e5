package timeline

// Point is a pixel location relative to the owning track's top-left corner.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is a pixel rectangle in track coordinates.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Union returns the smallest rectangle containing both r and o.
// An empty operand is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1, y1 := max(r.X+r.W, o.X+o.W), max(r.Y+r.H, o.Y+o.H)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Geometry fixes the pixel scale shared by every track of a timeline.
type Geometry struct {
	PixelsPerSecond float64 `json:"pixelsPerSecond"`
	TrackWidth      int     `json:"trackWidth"`
	TrackHeight     int     `json:"trackHeight"`
}

// DefaultGeometry matches the editor's stock layout.
func DefaultGeometry() Geometry {
	return Geometry{PixelsPerSecond: 100, TrackWidth: 1600, TrackHeight: 100}
}

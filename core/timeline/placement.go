package timeline

// LeftInset is the column reserved for the track border. A clip dragged past
// the left edge snaps here instead of to 0, and a clip resting at LeftInset
// starts at 0 seconds.
const LeftInset = 1

// ComputeNewPosition translates current by the horizontal component of delta
// and clamps the result so that 0 <= x and x+clipWidth <= trackWidth.
// Vertical motion is ignored. Clamping never fails.
func ComputeNewPosition(current, delta Point, clipWidth, trackWidth int) Point {
	x := current.X + delta.X
	if x < 0 {
		x = LeftInset
	}
	if x+clipWidth > trackWidth {
		x = trackWidth - clipWidth
	}
	// a clip wider than its track pins to the left edge
	if x < 0 {
		x = 0
	}
	return Point{X: x, Y: current.Y}
}

package timeline

import "github.com/google/uuid"

// ClipID identifies a clip for the lifetime of the session.
type ClipID string

// TrackID is the stable index of a track inside its timeline.
type TrackID int

// Clip is a positioned reference to an audio asset on a track.
type Clip struct {
	ID           ClipID
	Asset        AudioAsset
	Track        TrackID
	StartSeconds float64
	EndSeconds   float64
	Position     Point
}

func newClip(asset AudioAsset, track TrackID) *Clip {
	c := &Clip{
		ID:    ClipID(uuid.NewString()),
		Asset: asset,
		Track: track,
	}
	c.Reset()
	return c
}

// SourcePath is the file the engine edits for this clip.
func (c *Clip) SourcePath() string {
	return c.Asset.SourcePath
}

func (c *Clip) Duration() float64 {
	return c.Asset.DurationSeconds
}

// Reset moves the clip back to the start of its track.
func (c *Clip) Reset() {
	c.StartSeconds = 0
	c.EndSeconds = c.Asset.DurationSeconds
	c.Position = Point{X: LeftInset, Y: c.Position.Y}
}

// place applies a new pixel position and re-derives the time window from it.
func (c *Clip) place(p Point, pixelsPerSecond float64) {
	c.Position = p
	offset := max(p.X-LeftInset, 0)
	c.StartSeconds = float64(offset) / pixelsPerSecond
	c.EndSeconds = c.StartSeconds + c.Asset.DurationSeconds
}

package timeline

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrNoClips is returned by operations that need at least one clip.
	ErrNoClips = errors.New("no clips on track")
	// ErrClipNotFound is returned when a clip id is not on the track.
	ErrClipNotFound = errors.New("clip not found")
	// ErrTrackNotFound is returned for an unknown track id.
	ErrTrackNotFound = errors.New("track not found")
)

// ClipView is the rendered state of one clip, derived from the clip list.
type ClipView struct {
	ClipID ClipID `json:"clipId"`
	Label  string `json:"label"`
	Bounds Rect   `json:"bounds"`
}

// Track is an ordered lane of clips. Order is insertion order, not start time.
type Track struct {
	id       TrackID
	title    string
	selected bool
	geom     Geometry
	clips    []*Clip
	view     []ClipView
}

func newTrack(id TrackID, title string, geom Geometry) *Track {
	return &Track{id: id, title: title, geom: geom}
}

func (t *Track) ID() TrackID { return t.id }
func (t *Track) Title() string { return t.title }
func (t *Track) Selected() bool { return t.selected }
func (t *Track) String() string { return t.title }
func (t *Track) Len() int { return len(t.clips) }
func (t *Track) Geometry() Geometry { return t.geom }

// Clips returns the live clip list. Callers must not hold on to it across
// mutations.
func (t *Track) Clips() []*Clip {
	return t.clips
}

// SetClip appends a new clip at start 0 wrapping a copy of asset and
// rebuilds the view. Overlap with existing clips is allowed.
func (t *Track) SetClip(asset AudioAsset) *Clip {
	c := newClip(asset, t.id)
	t.clips = append(t.clips, c)
	t.RebuildClipView()
	return c
}

// First returns the clip at the head of the list.
func (t *Track) First() (*Clip, error) {
	if len(t.clips) == 0 {
		return nil, ErrNoClips
	}
	return t.clips[0], nil
}

// RemoveFirst detaches the head clip. The view is not rebuilt.
func (t *Track) RemoveFirst() (*Clip, error) {
	if len(t.clips) == 0 {
		return nil, ErrNoClips
	}
	c := t.clips[0]
	t.clips = slices.Delete(t.clips, 0, 1)
	return c, nil
}

// Clip looks a clip up by id.
func (t *Track) Clip(id ClipID) (*Clip, error) {
	i := t.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s on %s", ErrClipNotFound, id, t.title)
	}
	return t.clips[i], nil
}

// Remove deletes a clip by id and rebuilds the view.
func (t *Track) Remove(id ClipID) error {
	i := t.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s on %s", ErrClipNotFound, id, t.title)
	}
	t.clips = slices.Delete(t.clips, i, i+1)
	t.RebuildClipView()
	return nil
}

func (t *Track) indexOf(id ClipID) int {
	return slices.IndexFunc(t.clips, func(c *Clip) bool { return c.ID == id })
}

// RebuildClipView clears and repopulates the view from the clip list so the
// two never diverge.
func (t *Track) RebuildClipView() {
	t.view = t.view[:0]
	for _, c := range t.clips {
		t.view = append(t.view, ClipView{
			ClipID: c.ID,
			Label:  c.Asset.DisplayName,
			Bounds: t.ClipBounds(c),
		})
	}
}

// View returns a copy of the current rendered sequence.
func (t *Track) View() []ClipView {
	return slices.Clone(t.view)
}

// ClipWidth is the rendered extent of c, clamped so it always fits inside
// the track to the right of the border inset.
func (t *Track) ClipWidth(c *Clip) int {
	w := int(math.Round(c.Duration() * t.geom.PixelsPerSecond))
	return min(max(w, 0), max(t.geom.TrackWidth-LeftInset, 0))
}

// ClipBounds is the pixel rectangle c occupies on the track.
func (t *Track) ClipBounds(c *Clip) Rect {
	return Rect{X: c.Position.X, Y: c.Position.Y, W: t.ClipWidth(c), H: t.geom.TrackHeight}
}

// DragClip moves a clip by the horizontal component of delta, keeping it
// inside the track. It returns the region that needs repainting: the union
// of the old and new bounds.
func (t *Track) DragClip(id ClipID, delta Point) (Rect, error) {
	c, err := t.Clip(id)
	if err != nil {
		return Rect{}, err
	}
	before := t.ClipBounds(c)
	width := t.ClipWidth(c)
	c.place(ComputeNewPosition(c.Position, delta, width, t.geom.TrackWidth), t.geom.PixelsPerSecond)
	after := t.ClipBounds(c)

	if i := t.indexOf(id); i < len(t.view) && t.view[i].ClipID == id {
		t.view[i].Bounds = after
	} else {
		t.RebuildClipView()
	}
	return before.Union(after), nil
}

// MoveClipTo places a clip so it starts at the given second, clamped like a
// drag would be.
func (t *Track) MoveClipTo(id ClipID, startSeconds float64) (Rect, error) {
	c, err := t.Clip(id)
	if err != nil {
		return Rect{}, err
	}
	target := LeftInset + int(math.Round(startSeconds*t.geom.PixelsPerSecond))
	return t.DragClip(id, Point{X: target - c.Position.X})
}

package timeline

import (
	"fmt"
	"strconv"
)

// Timeline is the ordered set of tracks in a session. Tracks are appended
// and never removed, so a TrackID stays valid for the timeline's lifetime.
//
// A Timeline is not safe for concurrent use; the session serializes access.
type Timeline struct {
	geom     Geometry
	tracks   []*Track
	selected TrackID
}

// New returns an empty timeline. Non-positive geometry fields fall back to
// DefaultGeometry.
func New(geom Geometry) *Timeline {
	def := DefaultGeometry()
	if geom.PixelsPerSecond <= 0 {
		geom.PixelsPerSecond = def.PixelsPerSecond
	}
	if geom.TrackWidth <= 0 {
		geom.TrackWidth = def.TrackWidth
	}
	if geom.TrackHeight <= 0 {
		geom.TrackHeight = def.TrackHeight
	}
	return &Timeline{geom: geom, selected: -1}
}

// WithDefaultTracks appends n tracks titled Track1..TrackN.
func (tl *Timeline) WithDefaultTracks(n int) *Timeline {
	for i := 0; i < n; i++ {
		tl.AddTrack("")
	}
	return tl
}

func (tl *Timeline) Geometry() Geometry {
	return tl.geom
}

// AddTrack appends a track. An empty title becomes Track<n> where n is the
// new track count.
func (tl *Timeline) AddTrack(title string) *Track {
	if title == "" {
		title = "Track" + strconv.Itoa(len(tl.tracks)+1)
	}
	t := newTrack(TrackID(len(tl.tracks)), title, tl.geom)
	tl.tracks = append(tl.tracks, t)
	return t
}

// AddTrackForAsset creates a new track holding a single clip for asset.
func (tl *Timeline) AddTrackForAsset(asset AudioAsset) (*Track, *Clip) {
	t := tl.AddTrack("")
	return t, t.SetClip(asset)
}

// Tracks returns the tracks in timeline order.
func (tl *Timeline) Tracks() []*Track {
	return tl.tracks
}

func (tl *Timeline) Track(id TrackID) (*Track, error) {
	if id < 0 || int(id) >= len(tl.tracks) {
		return nil, fmt.Errorf("%w: %d", ErrTrackNotFound, id)
	}
	return tl.tracks[id], nil
}

// Select marks id as the selected track and clears the previous selection.
func (tl *Timeline) Select(id TrackID) error {
	t, err := tl.Track(id)
	if err != nil {
		return err
	}
	if prev, ok := tl.Selected(); ok && prev != t {
		prev.selected = false
	}
	t.selected = true
	tl.selected = id
	return nil
}

// Selected returns the selected track, if any.
func (tl *Timeline) Selected() (*Track, bool) {
	if tl.selected < 0 {
		return nil, false
	}
	return tl.tracks[tl.selected], true
}

// Clips lists every clip in track order, then clip order.
func (tl *Timeline) Clips() []*Clip {
	var out []*Clip
	for _, t := range tl.tracks {
		out = append(out, t.clips...)
	}
	return out
}

// MaxEnd is the latest clip end time across all tracks, 0 when empty.
func (tl *Timeline) MaxEnd() float64 {
	var end float64
	for _, c := range tl.Clips() {
		end = max(end, c.EndSeconds)
	}
	return end
}

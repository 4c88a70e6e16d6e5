package session

import (
	"context"
	"errors"
	"fmt"

	"Tracksmith/core/edit"
	"Tracksmith/core/mixdown"
	"Tracksmith/core/staging"
	"Tracksmith/core/timeline"
)

var ErrNoTrackSelected = errors.New("no track selected")

// State is everything the session goroutine owns. It is only touched from
// inside Session.Do.
type State struct {
	Timeline   *timeline.Timeline
	Staging    *staging.Area
	Dispatcher *edit.Dispatcher
	Mixdown    *mixdown.Orchestrator
	// Prober reads the engine-reported master duration on each tick.
	Prober timeline.DurationProber

	masterSeconds float64
}

func (st *State) Stage(ctx context.Context, path string) (timeline.AudioAsset, error) {
	return st.Staging.Add(ctx, path)
}

func (st *State) Unstage(index int) (timeline.AudioAsset, error) {
	return st.Staging.Delete(index)
}

func (st *State) AddToTrack(index int, id timeline.TrackID) (*timeline.Clip, error) {
	tr, err := st.Timeline.Track(id)
	if err != nil {
		return nil, err
	}
	return st.Staging.AddToTrack(index, tr)
}

func (st *State) AddToNewTrack(index int) (*timeline.Track, *timeline.Clip, error) {
	return st.Staging.AddToNewTrack(index, st.Timeline)
}

func (st *State) Select(id timeline.TrackID) error {
	return st.Timeline.Select(id)
}

// DragClip moves a clip by delta and returns the area to repaint.
func (st *State) DragClip(id timeline.TrackID, clip timeline.ClipID, delta timeline.Point) (timeline.Rect, error) {
	tr, err := st.Timeline.Track(id)
	if err != nil {
		return timeline.Rect{}, err
	}
	return tr.DragClip(clip, delta)
}

// SelectedTrack returns the selected track or ErrNoTrackSelected.
func (st *State) SelectedTrack() (*timeline.Track, error) {
	tr, ok := st.Timeline.Selected()
	if !ok {
		return nil, ErrNoTrackSelected
	}
	return tr, nil
}

// EditSelected runs an edit transaction on the selected track.
func (st *State) EditSelected(ctx context.Context, op edit.Operation, p edit.Prompter) (edit.Outcome, error) {
	tr, err := st.SelectedTrack()
	if err != nil {
		return edit.Outcome{}, err
	}
	return st.Dispatcher.Edit(ctx, tr, op, p)
}

// EditTrack runs an edit transaction on track id.
func (st *State) EditTrack(ctx context.Context, id timeline.TrackID, op edit.Operation, p edit.Prompter) (edit.Outcome, error) {
	tr, err := st.Timeline.Track(id)
	if err != nil {
		return edit.Outcome{}, err
	}
	return st.Dispatcher.Edit(ctx, tr, op, p)
}

func (st *State) UpdateMaster(ctx context.Context) (int, error) {
	return st.Mixdown.UpdateMaster(ctx, st.Timeline)
}

// Export renders the timeline to dir/name.wav.
func (st *State) Export(ctx context.Context, dir, name string) (string, error) {
	dest := mixdown.ResolveExportPath(dir, name)
	path, err := st.Mixdown.ExportTo(ctx, st.Timeline, dest)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	return path, nil
}

// MasterSeconds is the master duration read on the most recent tick.
func (st *State) MasterSeconds() float64 {
	return st.masterSeconds
}

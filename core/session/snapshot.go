package session

import (
	"time"

	"Tracksmith/core/timeline"
)

// Snapshot is an immutable view of the session handed to readers outside
// the session goroutine.
type Snapshot struct {
	Seq           uint64                `json:"seq"`
	Time          time.Time             `json:"time"`
	Tracks        []TrackSnapshot       `json:"tracks"`
	Staged        []timeline.AudioAsset `json:"staged"`
	Selected      *timeline.TrackID     `json:"selected,omitempty"`
	MasterPath    string                `json:"masterPath"`
	MasterSeconds float64               `json:"masterSeconds"`
	MaxEnd        float64               `json:"maxEnd"`
}

type TrackSnapshot struct {
	ID       timeline.TrackID `json:"id"`
	Title    string           `json:"title"`
	Selected bool             `json:"selected"`
	Clips    []ClipSnapshot   `json:"clips"`
}

type ClipSnapshot struct {
	ID         timeline.ClipID `json:"id"`
	Name       string          `json:"name"`
	SourcePath string          `json:"sourcePath"`
	Start      float64         `json:"start"`
	End        float64         `json:"end"`
	Bounds     timeline.Rect   `json:"bounds"`
}

func (st *State) snapshot(seq uint64) Snapshot {
	snap := Snapshot{
		Seq:           seq,
		Time:          time.Now(),
		Staged:        st.Staging.Assets(),
		MasterSeconds: st.masterSeconds,
		MaxEnd:        st.Timeline.MaxEnd(),
	}
	if st.Mixdown != nil {
		snap.MasterPath = st.Mixdown.MasterPath()
	}
	for _, tr := range st.Timeline.Tracks() {
		ts := TrackSnapshot{ID: tr.ID(), Title: tr.Title(), Selected: tr.Selected(), Clips: []ClipSnapshot{}}
		for _, c := range tr.Clips() {
			ts.Clips = append(ts.Clips, ClipSnapshot{
				ID:         c.ID,
				Name:       c.Asset.DisplayName,
				SourcePath: c.SourcePath(),
				Start:      c.StartSeconds,
				End:        c.EndSeconds,
				Bounds:     tr.ClipBounds(c),
			})
		}
		if tr.Selected() {
			id := tr.ID()
			snap.Selected = &id
		}
		snap.Tracks = append(snap.Tracks, ts)
	}
	return snap
}

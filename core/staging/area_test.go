package staging

import (
	"context"
	"errors"
	"testing"

	"Tracksmith/core/timeline"
)

type fixedProber float64

func (p fixedProber) ProbeDuration(ctx context.Context, path string) (float64, error) {
	return float64(p), nil
}

func TestAreaAdd(t *testing.T) {
	a := NewArea(nil)
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"/in/kick.wav", false},
		{"/in/SNARE.WAV", false},
		{"/in/notes.txt", true},
		{"/in/song.mp3", true},
		{"/in/wav", true},
	}
	for _, tt := range tests {
		_, err := a.Add(context.Background(), tt.path)
		if tt.wantErr != errors.Is(err, ErrUnsupportedFile) {
			t.Errorf("Add(%q) err = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
	}
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}
	got, _ := a.Asset(0)
	if got.DisplayName != "kick.wav" || got.DurationSeconds != 0 {
		t.Errorf("Asset(0) = %+v", got)
	}
	if !a.Contains("/in/kick.wav") {
		t.Error("Contains(kick) = false")
	}
}

func TestAreaDelete(t *testing.T) {
	a := NewArea(nil)
	a.Add(context.Background(), "/in/a.wav")
	b, _ := a.Add(context.Background(), "/in/b.wav")
	a.Add(context.Background(), "/in/c.wav")

	tl := timeline.New(timeline.Geometry{}).WithDefaultTracks(1)
	clip, err := a.AddToTrack(1, tl.Tracks()[0])
	if err != nil {
		t.Fatal(err)
	}

	if err := a.DeleteAsset(b); err != nil {
		t.Fatal(err)
	}
	if a.Len() != 2 || a.Contains("/in/b.wav") {
		t.Errorf("b still staged: %v", a.Assets())
	}
	if tl.Tracks()[0].Clips()[0] != clip || clip.Asset != b {
		t.Error("deleting from staging touched the placed clip")
	}
	if err := a.DeleteAsset(b); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("second DeleteAsset err = %v", err)
	}
	if _, err := a.Delete(5); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("Delete(5) err = %v", err)
	}
}

func TestAreaAddToNewTrack(t *testing.T) {
	a := NewArea(fixedProber(4))
	a.Add(context.Background(), "/in/vox.wav")
	tl := timeline.New(timeline.Geometry{}).WithDefaultTracks(7)

	tr, c, err := a.AddToNewTrack(0, tl)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Title() != "Track8" || len(tl.Tracks()) != 8 {
		t.Errorf("new track = %q among %d", tr.Title(), len(tl.Tracks()))
	}
	if c.SourcePath() != "/in/vox.wav" {
		t.Errorf("clip path = %q", c.SourcePath())
	}
	if a.Len() != 1 {
		t.Error("adding to a track must keep the asset staged")
	}
	if _, _, err := a.AddToNewTrack(3, tl); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("AddToNewTrack(3) err = %v", err)
	}
}

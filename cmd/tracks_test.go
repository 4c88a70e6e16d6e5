package cmd

import (
	"errors"
	"testing"

	"Tracksmith/core/session"
	"Tracksmith/core/timeline"
)

func sampleTracks() []session.TrackSnapshot {
	return []session.TrackSnapshot{
		{ID: 0, Title: "Track1"},
		{ID: 1, Title: "Drums", Clips: []session.ClipSnapshot{{ID: "c1"}, {ID: "c2"}}},
		{ID: 2, Title: "Lead Vocals"},
	}
}

func TestResolveTrack(t *testing.T) {
	tests := []struct {
		arg     string
		want    timeline.TrackID
		wantErr bool
	}{
		{"1", 0, false},
		{"3", 2, false},
		{"drums", 1, false},
		{"Lead Vocals", 2, false},
		{"lead vocal", 2, false},
		{"drumz", 1, false},
		{"0", 0, true},
		{"4", 0, true},
		{"bass", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := resolveTrack(sampleTracks(), tt.arg)
			if tt.wantErr {
				if !errors.Is(err, timeline.ErrTrackNotFound) {
					t.Errorf("err = %v, want ErrTrackNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("resolveTrack(%q) = %d, want %d", tt.arg, got, tt.want)
			}
		})
	}
}

func TestResolveClip(t *testing.T) {
	tracks := sampleTracks()
	if id, err := resolveClip(tracks, 1, "2"); err != nil || id != "c2" {
		t.Errorf("resolveClip(1, 2) = %q, %v", id, err)
	}
	if _, err := resolveClip(tracks, 1, "3"); !errors.Is(err, timeline.ErrClipNotFound) {
		t.Errorf("out of range err = %v", err)
	}
	if _, err := resolveClip(tracks, 7, "1"); !errors.Is(err, timeline.ErrTrackNotFound) {
		t.Errorf("unknown track err = %v", err)
	}
}

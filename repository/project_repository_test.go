package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"

	"Tracksmith/core/timeline"
	"Tracksmith/db"
)

func newTestRepo(t *testing.T) ProjectRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := db.Open(sqlite.Open(dsn), "error")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.CloseGormDB(gdb) })
	return NewGormProjectRepository(gdb)
}

func sampleTimeline(t *testing.T) *timeline.Timeline {
	t.Helper()
	tl := timeline.New(timeline.DefaultGeometry()).WithDefaultTracks(2)
	t1 := tl.Tracks()[0]
	t1.SetClip(timeline.AudioAsset{DisplayName: "a.wav", SourcePath: "/in/a.wav", DurationSeconds: 2})
	b := t1.SetClip(timeline.AudioAsset{DisplayName: "b.wav", SourcePath: "/in/b.wav", DurationSeconds: 1.5})
	if _, err := t1.MoveClipTo(b.ID, 3.25); err != nil {
		t.Fatal(err)
	}
	if err := tl.Select(1); err != nil {
		t.Fatal(err)
	}
	return tl
}

func TestProjectRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, "demo", "/p/finalFile.wav", sampleTimeline(t))
	if err != nil {
		t.Fatal(err)
	}
	if saved.ID == "" {
		t.Error("saved project has no id")
	}

	tl, rec, err := repo.Load(ctx, "demo", timeline.DefaultGeometry())
	if err != nil {
		t.Fatal(err)
	}
	if rec.MasterPath != "/p/finalFile.wav" || rec.ID != saved.ID {
		t.Errorf("record = %+v", rec)
	}
	tracks := tl.Tracks()
	if len(tracks) != 2 || tracks[0].Title() != "Track1" {
		t.Fatalf("tracks = %v", tracks)
	}
	clips := tracks[0].Clips()
	if len(clips) != 2 || clips[0].SourcePath() != "/in/a.wav" || clips[1].SourcePath() != "/in/b.wav" {
		t.Fatalf("clips = %v", clips)
	}
	if clips[1].StartSeconds != 3.25 || clips[1].EndSeconds != 4.75 {
		t.Errorf("b window = [%v, %v], want [3.25, 4.75]", clips[1].StartSeconds, clips[1].EndSeconds)
	}
	if sel, ok := tl.Selected(); !ok || sel.ID() != 1 {
		t.Errorf("selected = %v, %v", sel, ok)
	}
}

func TestProjectSaveReplaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Save(ctx, "demo", "/p/m.wav", sampleTimeline(t)); err != nil {
		t.Fatal(err)
	}
	small := timeline.New(timeline.DefaultGeometry()).WithDefaultTracks(1)
	if _, err := repo.Save(ctx, "demo", "/p/m.wav", small); err != nil {
		t.Fatal(err)
	}

	tl, _, err := repo.Load(ctx, "demo", timeline.DefaultGeometry())
	if err != nil {
		t.Fatal(err)
	}
	if len(tl.Tracks()) != 1 || len(tl.Clips()) != 0 {
		t.Errorf("reloaded %d tracks, %d clips, want 1 and 0", len(tl.Tracks()), len(tl.Clips()))
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("List() = %v, %v", list, err)
	}
}

func TestProjectNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, _, err := repo.Load(ctx, "missing", timeline.DefaultGeometry()); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Load() err = %v, want ErrProjectNotFound", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Delete() err = %v, want ErrProjectNotFound", err)
	}

	if _, err := repo.Save(ctx, "gone", "", sampleTimeline(t)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, "gone"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := repo.Load(ctx, "gone", timeline.DefaultGeometry()); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Load() after delete err = %v", err)
	}
}

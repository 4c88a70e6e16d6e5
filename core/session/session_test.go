package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"Tracksmith/core/edit"
	"Tracksmith/core/engine"
	"Tracksmith/core/engine/enginetest"
	"Tracksmith/core/mixdown"
	"Tracksmith/core/staging"
	"Tracksmith/core/timeline"
)

type fixedProber float64

func (p fixedProber) ProbeDuration(ctx context.Context, path string) (float64, error) {
	return float64(p), nil
}

func newState(t *testing.T, rec *enginetest.Recorder) *State {
	t.Helper()
	master := filepath.Join(t.TempDir(), "finalFile.wav")
	if err := os.WriteFile(master, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &State{
		Timeline:   timeline.New(timeline.DefaultGeometry()).WithDefaultTracks(2),
		Staging:    staging.NewArea(nil),
		Dispatcher: edit.NewDispatcher(rec),
		Mixdown:    mixdown.New(rec, master),
		Prober:     fixedProber(900),
	}
}

func start(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestEditSelectedRequiresSelection(t *testing.T) {
	rec := enginetest.New()
	s := New(newState(t, rec), WithTickInterval(0))
	start(t, s)
	ctx := context.Background()

	err := s.Do(ctx, func(ctx context.Context, st *State) error {
		_, err := st.EditSelected(ctx, edit.Normalize, edit.ValuesPrompter{})
		return err
	})
	if !errors.Is(err, ErrNoTrackSelected) {
		t.Fatalf("err = %v, want ErrNoTrackSelected", err)
	}

	err = s.Do(ctx, func(ctx context.Context, st *State) error {
		if _, err := st.Stage(ctx, "/in/a.wav"); err != nil {
			return err
		}
		if _, err := st.AddToTrack(0, 1); err != nil {
			return err
		}
		if err := st.Select(1); err != nil {
			return err
		}
		_, err := st.EditSelected(ctx, edit.Normalize, edit.ValuesPrompter{})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if cmds := rec.Commands(); len(cmds) != 1 || cmds[0].Code != engine.CodeNormalize {
		t.Errorf("commands = %v", cmds)
	}

	snap := s.Snapshot()
	if snap.Selected == nil || *snap.Selected != 1 || len(snap.Tracks[1].Clips) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestDoSerializes(t *testing.T) {
	s := New(newState(t, enginetest.New()), WithTickInterval(0))
	start(t, s)

	var (
		wg      sync.WaitGroup
		running int
		overlap bool
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Do(context.Background(), func(ctx context.Context, st *State) error {
				running++
				if running > 1 {
					overlap = true
				}
				time.Sleep(time.Millisecond)
				st.Timeline.AddTrack("")
				running--
				return nil
			})
		}()
	}
	wg.Wait()

	if overlap {
		t.Error("two requests ran at once")
	}
	var n int
	s.Do(context.Background(), func(ctx context.Context, st *State) error {
		n = len(st.Timeline.Tracks())
		return nil
	})
	if n != 22 {
		t.Errorf("tracks = %d, want 22", n)
	}
}

func TestTickPublishesMasterDuration(t *testing.T) {
	s := New(newState(t, enginetest.New()), WithTickInterval(10*time.Millisecond))
	ch, cancel := s.Subscribe()
	defer cancel()
	start(t, s)

	select {
	case snap := <-ch:
		if snap.MasterSeconds != 900 {
			t.Errorf("MasterSeconds = %v, want 900", snap.MasterSeconds)
		}
		if snap.Seq == 0 {
			t.Error("published snapshot has no sequence number")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no tick snapshot")
	}
}

func TestDoAfterStop(t *testing.T) {
	s := New(newState(t, enginetest.New()), WithTickInterval(0))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	ch, _ := s.Subscribe()
	cancel()
	<-done

	err := s.Do(context.Background(), func(ctx context.Context, st *State) error { return nil })
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Do() after stop = %v, want ErrClosed", err)
	}
	if _, ok := <-ch; ok {
		t.Error("subscription not closed on stop")
	}
	late, _ := s.Subscribe()
	if _, ok := <-late; ok {
		t.Error("late subscription not closed")
	}
}

func TestDoHonoursContextBeforeStart(t *testing.T) {
	s := New(newState(t, enginetest.New()), WithTickInterval(0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Do(ctx, func(ctx context.Context, st *State) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestExportThroughSession(t *testing.T) {
	rec := enginetest.New()
	s := New(newState(t, rec), WithTickInterval(0))
	start(t, s)
	dir := t.TempDir()

	var path string
	err := s.Do(context.Background(), func(ctx context.Context, st *State) error {
		st.Stage(ctx, "/in/a.wav")
		st.AddToNewTrack(0)
		var err error
		path, err = st.Export(ctx, dir, "")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "finalAudio.wav") {
		t.Errorf("export path = %q", path)
	}
	codes := rec.Codes()
	if len(codes) != 2 || codes[0] != engine.CodeSuperimpose || codes[1] != engine.CodeTrim {
		t.Errorf("codes = %v", codes)
	}
}

func TestDoKeepsEngineRunningAfterCallerCancels(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	adapter := engine.AdapterFunc(func(ctx context.Context, cmd engine.EditCommand) error {
		close(started)
		<-release
		return ctx.Err()
	})
	st := newState(t, enginetest.New())
	st.Dispatcher = edit.NewDispatcher(adapter)
	s := New(st, WithTickInterval(0))
	start(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Do(ctx, func(ctx context.Context, st *State) error {
			if _, err := st.Stage(ctx, "/in/a.wav"); err != nil {
				return err
			}
			if _, err := st.AddToTrack(0, 0); err != nil {
				return err
			}
			_, err := st.EditTrack(ctx, 0, edit.Normalize, edit.ValuesPrompter{})
			return err
		})
	}()

	<-started
	cancel()
	close(release)

	if err := <-errCh; err != nil {
		t.Fatalf("Do() = %v, want the edit to finish despite cancellation", err)
	}
	if clips := s.Snapshot().Tracks[0].Clips; len(clips) != 1 {
		t.Errorf("clips after edit = %d, want 1", len(clips))
	}
}

func TestDoRecoversFromPanic(t *testing.T) {
	s := New(newState(t, enginetest.New()), WithTickInterval(0))
	start(t, s)
	ctx := context.Background()

	err := s.Do(ctx, func(ctx context.Context, st *State) error {
		var tracks []int
		_ = tracks[3]
		return nil
	})
	if !errors.Is(err, ErrPanicked) {
		t.Fatalf("err = %v, want ErrPanicked", err)
	}

	if err := s.Do(ctx, func(ctx context.Context, st *State) error {
		st.Timeline.AddTrack("")
		return nil
	}); err != nil {
		t.Fatalf("Do() after panic = %v", err)
	}
	if n := len(s.Snapshot().Tracks); n != 3 {
		t.Errorf("tracks = %d, want 3", n)
	}
}

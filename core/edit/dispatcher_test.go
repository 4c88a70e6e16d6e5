package edit

import (
	"context"
	"errors"
	"slices"
	"testing"

	"Tracksmith/core/engine"
	"Tracksmith/core/engine/enginetest"
	"Tracksmith/core/timeline"
)

func newTrack(t *testing.T, names ...string) *timeline.Track {
	t.Helper()
	tl := timeline.New(timeline.Geometry{PixelsPerSecond: 100, TrackWidth: 1000, TrackHeight: 80}).WithDefaultTracks(1)
	tr := tl.Tracks()[0]
	for i, n := range names {
		tr.SetClip(timeline.AudioAsset{DisplayName: n, SourcePath: "/audio/" + n + ".wav", DurationSeconds: float64(i + 1)})
	}
	return tr
}

func paths(tr *timeline.Track) []string {
	var out []string
	for _, c := range tr.Clips() {
		out = append(out, c.SourcePath())
	}
	return out
}

func TestEditReconcilesOrdering(t *testing.T) {
	rec := enginetest.New()
	d := NewDispatcher(rec)
	tr := newTrack(t, "a", "b", "c")
	before := slices.Clone(tr.Clips())

	out, err := d.Edit(context.Background(), tr, Normalize, ValuesPrompter{})
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	want := []string{"/audio/b.wav", "/audio/c.wav", "/audio/a.wav"}
	if got := paths(tr); !slices.Equal(got, want) {
		t.Errorf("clips = %v, want %v", got, want)
	}
	clips := tr.Clips()
	if clips[0] != before[1] || clips[1] != before[2] {
		t.Error("untouched clips were replaced")
	}
	if clips[2] == before[0] || clips[2].Asset != before[0].Asset {
		t.Error("requeued clip must be a new clip wrapping the same asset")
	}
	if out.Requeued != clips[2] || out.Target != before[0] {
		t.Errorf("outcome = %+v", out)
	}
	if clips[0].StartSeconds != 0 || clips[0].Position.X != timeline.LeftInset {
		t.Errorf("new head not reset: start=%v x=%d", clips[0].StartSeconds, clips[0].Position.X)
	}

	cmds := rec.Commands()
	if len(cmds) != 1 || cmds[0].TargetPath != "/audio/a.wav" || cmds[0].Code != engine.CodeNormalize {
		t.Errorf("engine commands = %v", cmds)
	}
	if tr.Len() != len(tr.View()) {
		t.Error("view diverged from clip list")
	}
}

func TestEditDeleteClip(t *testing.T) {
	rec := enginetest.New()
	d := NewDispatcher(rec)
	tr := newTrack(t, "a", "b")
	b := tr.Clips()[1]

	if _, err := d.Edit(context.Background(), tr, DeleteClip, nil); err != nil {
		t.Fatal(err)
	}
	if tr.Len() != 1 || tr.Clips()[0].Asset != b.Asset {
		t.Fatalf("after first delete: %v", paths(tr))
	}

	if _, err := d.Edit(context.Background(), tr, DeleteClip, nil); err != nil {
		t.Fatal(err)
	}
	if tr.Len() != 0 {
		t.Fatalf("after second delete: %v", paths(tr))
	}

	_, err := d.Edit(context.Background(), tr, DeleteClip, nil)
	if !errors.Is(err, timeline.ErrNoClips) {
		t.Errorf("third delete err = %v, want ErrNoClips", err)
	}
	if len(rec.Commands()) != 0 {
		t.Errorf("delete reached the engine: %v", rec.Commands())
	}
}

func TestEditCancelledIsNoop(t *testing.T) {
	rec := enginetest.New()
	d := NewDispatcher(rec)
	tr := newTrack(t, "a", "b", "c")
	before := slices.Clone(tr.Clips())

	for _, op := range []Operation{Loop, Trim, Compressing, PitchFilter, Reverb} {
		_, err := d.Edit(context.Background(), tr, op, ValuesPrompter{})
		if !errors.Is(err, ErrCancelled) {
			t.Errorf("%s: err = %v, want ErrCancelled", op, err)
		}
	}

	// Trim cancelled on its second field.
	_, err := d.Edit(context.Background(), tr, Trim, ValuesPrompter{FieldTimestamp: "100"})
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("partial trim err = %v, want ErrCancelled", err)
	}

	if !slices.Equal(tr.Clips(), before) {
		t.Error("cancelled edit changed the clip list")
	}
	if len(rec.Commands()) != 0 {
		t.Errorf("cancelled edit reached the engine: %v", rec.Commands())
	}
}

func TestEditInvalidParameterIsNoop(t *testing.T) {
	rec := enginetest.New()
	d := NewDispatcher(rec)
	tr := newTrack(t, "a", "b")
	before := slices.Clone(tr.Clips())

	var pe *ParamError
	_, err := d.Edit(context.Background(), tr, ClipGain, ValuesPrompter{FieldFactor: "loud"})
	if !errors.Is(err, ErrInvalidParameter) || !errors.As(err, &pe) || pe.Field != FieldFactor {
		t.Errorf("err = %v, want ParamError on factor", err)
	}
	if !slices.Equal(tr.Clips(), before) || len(rec.Commands()) != 0 {
		t.Error("invalid parameter mutated the track or called the engine")
	}
}

func TestEditEngineFailureRollsBack(t *testing.T) {
	rec := enginetest.New().FailOn(engine.CodeReverb, nil)
	d := NewDispatcher(rec)
	tr := newTrack(t, "a", "b")
	before := slices.Clone(tr.Clips())

	_, err := d.Edit(context.Background(), tr, Reverb, ValuesPrompter{FieldLevel: "High"})
	if !errors.Is(err, engine.ErrEngine) {
		t.Fatalf("err = %v, want ErrEngine", err)
	}
	if !slices.Equal(tr.Clips(), before) {
		t.Error("engine failure changed the clip list")
	}
}

func TestEditEmptyTrack(t *testing.T) {
	var trans []Transition
	d := NewDispatcher(enginetest.New(), WithObserver(func(tr Transition) { trans = append(trans, tr) }))
	tr := newTrack(t)

	if _, err := d.Edit(context.Background(), tr, Details, nil); !errors.Is(err, timeline.ErrNoClips) {
		t.Errorf("err = %v, want ErrNoClips", err)
	}
	if len(trans) != 1 || trans[0].To != Idle || trans[0].Err == nil {
		t.Errorf("transitions = %+v", trans)
	}
}

func TestEditTransitions(t *testing.T) {
	var states []State
	d := NewDispatcher(enginetest.New(), WithObserver(func(tr Transition) { states = append(states, tr.To) }))
	tr := newTrack(t, "a")

	if _, err := d.Edit(context.Background(), tr, Loop, ValuesPrompter{FieldCount: "2"}); err != nil {
		t.Fatal(err)
	}
	want := []State{OperationChosen, ParametersCollected, Dispatched, Reconciled, Idle}
	if !slices.Equal(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
}

func TestApply(t *testing.T) {
	rec := enginetest.New()
	d := NewDispatcher(rec)
	tr := newTrack(t, "a")

	out, err := d.Apply(context.Background(), tr, TrimParams{TimestampMs: 1500, Part: 1})
	if err != nil {
		t.Fatal(err)
	}
	if out.Command == nil || !slices.Equal(out.Command.Params, []string{"1500.0", "1.0"}) {
		t.Errorf("command = %v", out.Command)
	}
	if _, err := d.Apply(context.Background(), tr, nil); err == nil {
		t.Error("Apply(nil) succeeded")
	}
}

func TestReconcileEmptyTrack(t *testing.T) {
	if got := Reconcile(newTrack(t)); got != nil {
		t.Errorf("Reconcile(empty) = %v", got)
	}
}

func TestEditRunsDispatchedCommandToCompletion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var engineCtxErr error
	d := NewDispatcher(engine.AdapterFunc(func(engineCtx context.Context, cmd engine.EditCommand) error {
		cancel()
		engineCtxErr = engineCtx.Err()
		return engineCtxErr
	}))
	tr := newTrack(t, "a", "b")

	if _, err := d.Edit(ctx, tr, Normalize, ValuesPrompter{}); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if engineCtxErr != nil {
		t.Errorf("engine saw cancelled context: %v", engineCtxErr)
	}
	if got := paths(tr); !slices.Equal(got, []string{"/audio/b.wav", "/audio/a.wav"}) {
		t.Errorf("clips = %v, want reconciled order", got)
	}
}

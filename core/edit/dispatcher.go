package edit

import (
	"context"
	"errors"
	"fmt"

	"Tracksmith/core/engine"
	"Tracksmith/core/timeline"
	"Tracksmith/logger"
)

// State is a step of the edit transaction.
type State int

const (
	Idle State = iota
	OperationChosen
	ParametersCollected
	Dispatched
	Reconciled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case OperationChosen:
		return "OperationChosen"
	case ParametersCollected:
		return "ParametersCollected"
	case Dispatched:
		return "Dispatched"
	case Reconciled:
		return "Reconciled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Transition is reported to observers on every state change. Err is set
// when the transaction aborts back to Idle.
type Transition struct {
	Track     timeline.TrackID
	Operation Operation
	From, To  State
	Err       error
}

// Outcome describes a completed transaction.
type Outcome struct {
	Operation Operation
	// Command is the command sent to the engine, nil for local operations.
	Command *engine.EditCommand
	// Target is the clip the operation applied to.
	Target *timeline.Clip
	// Requeued is the clip appended by reconciliation, nil if the track ended empty.
	Requeued *timeline.Clip
}

type Option func(*Dispatcher)

// WithObserver registers fn to receive every state transition.
func WithObserver(fn func(Transition)) Option {
	return func(d *Dispatcher) { d.observers = append(d.observers, fn) }
}

// Dispatcher runs edit transactions against tracks. Callers serialize
// transactions; the dispatcher holds no lock.
type Dispatcher struct {
	adapter   engine.Adapter
	observers []func(Transition)
}

func NewDispatcher(adapter engine.Adapter, opts ...Option) *Dispatcher {
	d := &Dispatcher{adapter: adapter}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type txn struct {
	d     *Dispatcher
	track *timeline.Track
	op    Operation
	state State
}

func (t *txn) to(s State) {
	from := t.state
	t.state = s
	t.d.notify(Transition{Track: t.track.ID(), Operation: t.op, From: from, To: s})
}

func (t *txn) abort(err error) error {
	from := t.state
	t.state = Idle
	t.d.notify(Transition{Track: t.track.ID(), Operation: t.op, From: from, To: Idle, Err: err})
	return err
}

func (d *Dispatcher) notify(tr Transition) {
	for _, fn := range d.observers {
		fn(tr)
	}
}

// Edit runs a full transaction: op is chosen for track, its parameters are
// collected through p, then dispatched and reconciled.
func (d *Dispatcher) Edit(ctx context.Context, track *timeline.Track, op Operation, p Prompter) (Outcome, error) {
	t := &txn{d: d, track: track, op: op}
	if !op.Valid() {
		return Outcome{}, t.abort(fmt.Errorf("%w: %d", ErrUnknownOperation, int(op)))
	}
	if track.Len() == 0 {
		return Outcome{}, t.abort(fmt.Errorf("%s on %s: %w", op, track.Title(), timeline.ErrNoClips))
	}
	t.to(OperationChosen)

	params, err := Collect(ctx, op, p)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			logger.Debug("edit cancelled", logger.String("track", track.Title()), logger.String("operation", op.String()))
		}
		return Outcome{}, t.abort(err)
	}
	t.to(ParametersCollected)
	return d.run(ctx, t, params)
}

// Apply runs a transaction with parameters that are already collected.
func (d *Dispatcher) Apply(ctx context.Context, track *timeline.Track, params Params) (Outcome, error) {
	if params == nil {
		return Outcome{}, ErrUnknownOperation
	}
	t := &txn{d: d, track: track, op: params.Operation()}
	if track.Len() == 0 {
		return Outcome{}, t.abort(fmt.Errorf("%s on %s: %w", t.op, track.Title(), timeline.ErrNoClips))
	}
	t.to(OperationChosen)
	t.to(ParametersCollected)
	return d.run(ctx, t, params)
}

func (d *Dispatcher) run(ctx context.Context, t *txn, params Params) (Outcome, error) {
	track := t.track
	out := Outcome{Operation: t.op}

	target, err := track.First()
	if err != nil {
		return out, t.abort(fmt.Errorf("%s on %s: %w", t.op, track.Title(), err))
	}
	out.Target = target

	if t.op.Local() {
		if _, err := track.RemoveFirst(); err != nil {
			return out, t.abort(err)
		}
	} else {
		code, _ := t.op.Code()
		cmd := engine.EditCommand{TargetPath: target.SourcePath(), Code: code, Params: params.Args()}
		// A dispatched command is never cancelled midway.
		if err := d.adapter.Execute(context.WithoutCancel(ctx), cmd); err != nil {
			logger.Error("engine command failed",
				logger.String("track", track.Title()),
				logger.String("command", cmd.String()),
				logger.ErrorField(err))
			return out, t.abort(fmt.Errorf("%s on %s: %w", t.op, track.Title(), err))
		}
		out.Command = &cmd
	}
	t.to(Dispatched)

	out.Requeued = Reconcile(track)
	t.to(Reconciled)

	logger.Info("edit applied",
		logger.String("track", track.Title()),
		logger.String("operation", t.op.String()),
		logger.String("clip", string(target.ID)),
		logger.Int("clips", track.Len()))

	t.to(Idle)
	return out, nil
}

// Reconcile re-derives the track after an edit: the first clip is popped and
// a fresh clip wrapping its asset is appended, then the new first clip is
// reset. It returns the appended clip, or nil when the track is empty.
func Reconcile(track *timeline.Track) *timeline.Clip {
	track.RebuildClipView()
	first, err := track.RemoveFirst()
	if err != nil {
		return nil
	}
	requeued := track.SetClip(first.Asset)
	if head, err := track.First(); err == nil {
		head.Reset()
	}
	track.RebuildClipView()
	return requeued
}
